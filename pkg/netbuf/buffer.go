// Package netbuf implements a growable byte buffer with a read/write cursor,
// used throughout parcel for building and parsing wire and on-disk records.
package netbuf

import (
	"bytes"
	"errors"
)

// ErrTooShort is returned by a write when the buffer does not have enough
// remaining capacity to hold the payload.
var ErrTooShort = errors.New("netbuf: buffer too short")

// Buffer is a contiguous byte region with an allocated capacity and a
// logical size, size <= cap(data) always. The zero value is an empty,
// zero-capacity buffer.
type Buffer struct {
	data []byte // len(data) == capacity; data[:size] is the logical content
	size int
}

// New allocates a buffer with at least the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// NewFromBytes wraps b as the initial content of a new buffer; the buffer
// takes ownership of b.
func NewFromBytes(b []byte) *Buffer {
	return &Buffer{data: b, size: len(b)}
}

// Cap returns the allocated capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Size returns the logical length.
func (b *Buffer) Size() int {
	return b.size
}

// Bytes returns the logical content. The slice aliases the buffer's storage
// and must not be retained past the buffer's lifetime or a subsequent grow.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.size]
}

// Resize sets the logical size. It fails if size would exceed the
// allocated capacity; it never grows the capacity.
func (b *Buffer) Resize(size int) bool {
	if size < 0 || size > len(b.data) {
		return false
	}
	b.size = size
	return true
}

// Grow reallocates the buffer so it has at least the given capacity,
// preserving existing content up to the old size. Unlike Resize, this may
// allocate. LIST responses do not use it: parcelnet.EncodeListOK sizes its
// buffer up front.
func (b *Buffer) Grow(capacity int) {
	if capacity <= len(b.data) {
		return
	}
	nd := make([]byte, capacity)
	copy(nd, b.data[:b.size])
	b.data = nd
}

// Clear zeroes the content and resets the logical size to zero, without
// changing the capacity.
func (b *Buffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.size = 0
}

// Contains reports whether needle occurs anywhere in the logical content.
func (b *Buffer) Contains(needle []byte) bool {
	return bytes.Contains(b.Bytes(), needle)
}

// Ref returns a non-owning view of b starting at offset, inheriting
// size-offset as its own logical size. It aliases b's storage and must not
// be used after b is reused or grown. This replaces the original
// implementation's manually-tracked "reference buffer" with ordinary Go
// slice aliasing.
func (b *Buffer) Ref(offset int) *Buffer {
	if offset < 0 || offset > b.size {
		return &Buffer{}
	}
	return &Buffer{data: b.data[offset:], size: b.size - offset}
}
