package server

import (
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pg9182/parcel/pkg/filestore"
	"github.com/pg9182/parcel/pkg/registry"
)

// pool is the fixed-size set of worker goroutines created at startup and
// released at shutdown (spec.md §5, "a fixed pool of N worker threads").
type pool struct {
	workers []*Worker
	idle    chan *Worker
	wg      sync.WaitGroup
}

// newPool creates n workers sharing reg and store, each with its own RNG
// derived from seed so key generation is reproducible across a run
// without workers racing on one shared *rand.Rand.
func newPool(n int, seed uint32, reg *registry.Registry, store *filestore.Store, snapshotPath string, log zerolog.Logger) *pool {
	p := &pool{idle: make(chan *Worker, n)}
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewSource(int64(seed) + int64(i)))
		w := newWorker(i, p.idle, reg, store, rng, snapshotPath, log)
		p.workers = append(p.workers, w)
	}
	return p
}

// start launches every worker's goroutine and marks it idle.
func (p *pool) start() {
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run(&p.wg)
		p.idle <- w
	}
}

// tryAcquire returns an idle worker without blocking, or ok=false if the
// pool is saturated (spec.md §4.9, the capacity-refusal path).
func (p *pool) tryAcquire() (*Worker, bool) {
	select {
	case w := <-p.idle:
		return w, true
	default:
		return nil, false
	}
}

// isEmpty reports whether every worker is currently idle (spec.md §4.9,
// gates whether the acceptor consults administrator stdin).
func (p *pool) isEmpty() bool {
	return len(p.idle) == len(p.workers)
}

// shutdown requests every worker exit, then waits for them to drain.
// Must only be called while isEmpty() holds (the acceptor only offers
// the admin "quit" command in that state).
func (p *pool) shutdown() {
	for len(p.idle) > 0 {
		w := <-p.idle
		w.shutdown()
	}
	p.wg.Wait()
}
