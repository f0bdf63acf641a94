// Package server implements the parcel server: the worker pool (C8), the
// acceptor (C9), and the glue between them and pkg/registry/pkg/filestore.
package server

import (
	"fmt"
	"net"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pg9182/parcel/pkg/filestore"
	"github.com/pg9182/parcel/pkg/registry"
)

// Config holds the knobs the original reads from parse_arguments (spec.md
// §6, "CLI — server"), already parsed by the caller (pkg/parcelconf or a
// test).
type Config struct {
	Port        uint16
	ThreadCount uint32
	Seed        uint32
	Dir         string // working directory; db.bin and per-user stores live here
	Log         zerolog.Logger
}

const dbFileName = "db.bin"

// Server is a running parcel server: a listener, a worker pool, and the
// shared registry the workers mutate.
type Server struct {
	cfg      Config
	listener *net.TCPListener
	registry *registry.Registry
	pool     *pool
	acceptor *acceptor
}

// New loads db.bin from cfg.Dir (or starts an empty registry if absent,
// spec.md §4.6) and binds the listening socket, but does not yet accept
// connections.
func New(cfg Config) (*Server, error) {
	dbPath := filepath.Join(cfg.Dir, dbFileName)
	reg, err := registry.Load(dbPath)
	if err != nil {
		return nil, fmt.Errorf("server: load %s: %w", dbFileName, err)
	}

	addr := &net.TCPAddr{IP: net.IPv4zero, Port: int(cfg.Port)}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen: %w", err)
	}

	store := &filestore.Store{Dir: cfg.Dir}
	p := newPool(int(cfg.ThreadCount), cfg.Seed, reg, store, dbPath, cfg.Log)

	return &Server{
		cfg:      cfg,
		listener: listener,
		registry: reg,
		pool:     p,
		acceptor: newAcceptor(listener, p, reg, cfg.Log),
	}, nil
}

// Addr returns the bound listening address, useful when Config.Port is 0
// (tests bind an ephemeral port).
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run starts the worker pool and blocks in the accept loop until an
// administrator "quit", then drains the pool and snapshots the registry
// (spec.md §4.9, "Shutdown").
func (s *Server) Run() error {
	s.cfg.Log.Info().Int("users", s.registry.Count()).Msg("server ready")
	s.pool.start()

	s.acceptor.serve()

	s.pool.shutdown()
	s.listener.Close()

	dbPath := filepath.Join(s.cfg.Dir, dbFileName)
	if err := s.registry.Snapshot(dbPath); err != nil {
		return fmt.Errorf("server: snapshot on shutdown: %w", err)
	}
	s.cfg.Log.Info().Int("users", s.registry.Count()).Msg("server closed")
	return nil
}

// Close releases the listener without running the administrator loop or
// snapshotting; used by tests that drive the pool directly.
func (s *Server) Close() error {
	return s.listener.Close()
}
