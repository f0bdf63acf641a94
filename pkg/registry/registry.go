// Package registry implements the process-wide name to storage-path
// mapping (spec.md §4.6), including its mirrored on-disk snapshot.
//
// This is the Go-native replacement for the original's global mutable
// singleton (spec.md §9, "Global mutable registry"): callers construct
// one *Registry at startup and share it by reference; there is no
// package-level state.
package registry

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pg9182/parcel/pkg/netbuf"
)

// Entry is a (display name, storage path) pair. storage path is a
// decimal-rendered random 64-bit identifier.
type Entry struct {
	Name string
	Path string
}

// Registry is the ordered, mutex-guarded sequence of entries backing the
// NAME command and its db.bin snapshot.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Count returns the number of registered entries.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Lookup returns the storage path of the first entry whose name equals
// name, fixing the original's substring-match bug (spec.md §9 item 1;
// REDESIGN FLAG). See LookupPrefixCompat for the original's behavior.
func (r *Registry) Lookup(name string) (path string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Name == name {
			return e.Path, true
		}
	}
	return "", false
}

// LookupPrefixCompat reproduces the original byte-substring lookup
// (original_source/src/server_tcp.c:acquire_user), kept only for
// interoperability tests against the unmodified wire behavior; new code
// should use Lookup.
func (r *Registry) LookupPrefixCompat(name string) (path string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if strings.Contains(e.Name, name) {
			return e.Path, true
		}
	}
	return "", false
}

// Insert appends a new entry for name with a freshly generated random
// storage path and returns it. The registry never removes entries.
func (r *Registry) Insert(rng *rand.Rand, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id uint64
	for i := 0; i < 8; i++ {
		id = (id << 8) | uint64(byte(rng.Intn(256)))
	}
	path := strconv.FormatUint(id, 10)
	r.entries = append(r.entries, Entry{Name: name, Path: path})
	return path
}

// Snapshot serializes the registry to path, overwriting any existing
// file, while the registry mutex is held: u32 count, (u32 name_len,
// name_len bytes, u32 path_len, path_len bytes)*, big-endian (fixing the
// original's host-endian format, spec.md §9 item 3; REDESIGN FLAG).
// Written through a netbuf.Cursor in one pass, the same pattern
// pkg/parcelnet/wire.go uses for its own length-prefixed records
// (precompute the size, netbuf.New, write, emit the whole buffer).
func (r *Registry) Snapshot(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := 4
	for _, e := range r.entries {
		size += 4 + len(e.Name) + 4 + len(e.Path)
	}

	buf := netbuf.New(size)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(len(r.entries)))
	for _, e := range r.entries {
		writeLenPrefixed(w, e.Name)
		writeLenPrefixed(w, e.Path)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("registry: write snapshot: %w", err)
	}
	return nil
}

func writeLenPrefixed(w *netbuf.Cursor, s string) {
	b := []byte(s)
	w.WriteU32(uint32(len(b)))
	w.WriteRaw(b)
}

// Load reads a registry snapshot from path. If path does not exist, it
// returns a fresh empty registry and no error (spec.md §4.6, "if db.bin
// is absent the registry starts empty"). A truncated or malformed file is
// an error. The whole file is read into memory and parsed through a
// netbuf.Cursor, mirroring the original's own load_db (which mallocs the
// full entry array up front from a leading count, original_source/src/
// server_tcp.c:load_db).
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read snapshot: %w", err)
	}

	buf := netbuf.NewFromBytes(data)
	r := netbuf.Acquire(buf, netbuf.ModeRead)

	count, ok := r.ReadU32()
	if !ok {
		return nil, fmt.Errorf("registry: read count: %w", io.ErrUnexpectedEOF)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		name, ok := readLenPrefixed(r)
		if !ok {
			return nil, fmt.Errorf("registry: read entry %d name: %w", i, io.ErrUnexpectedEOF)
		}
		path, ok := readLenPrefixed(r)
		if !ok {
			return nil, fmt.Errorf("registry: read entry %d path: %w", i, io.ErrUnexpectedEOF)
		}
		entries = append(entries, Entry{Name: name, Path: path})
	}
	return &Registry{entries: entries}, nil
}

func readLenPrefixed(r *netbuf.Cursor) (string, bool) {
	length, ok := r.ReadU32()
	if !ok {
		return "", false
	}
	b := make([]byte, length)
	if remaining, ok := r.ReadRaw(b); !ok || remaining != 0 {
		return "", false
	}
	return string(b), true
}
