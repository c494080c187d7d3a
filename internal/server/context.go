package server

import (
	"context"
	"sync"

	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/store"
	"github.com/teemow/meetingmate/internal/tasksync"
)

// ServerContext holds the long-lived dependencies the HTTP surface serves
// from: the store, the ingestion side (coordinator, queue, poller) and the
// sync side. It owns the shutdown flag the health checker reports.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store       store.Store
	coordinator *ingest.Coordinator
	queue       *ingest.Queue
	poller      *ingest.Poller
	syncer      *tasksync.Syncer
	accounts    []string

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context over the assembled pipeline.
func NewServerContext(ctx context.Context, st store.Store, coordinator *ingest.Coordinator,
	queue *ingest.Queue, poller *ingest.Poller, syncer *tasksync.Syncer, accounts []string) *ServerContext {

	shutdownCtx, cancel := context.WithCancel(ctx)

	if len(accounts) == 0 {
		accounts = []string{"default"}
	}

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		store:       st,
		coordinator: coordinator,
		queue:       queue,
		poller:      poller,
		syncer:      syncer,
		accounts:    accounts,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the persistence layer.
func (sc *ServerContext) Store() store.Store {
	return sc.store
}

// Coordinator returns the ingestion coordinator.
func (sc *ServerContext) Coordinator() *ingest.Coordinator {
	return sc.coordinator
}

// Queue returns the ingestion queue.
func (sc *ServerContext) Queue() *ingest.Queue {
	return sc.queue
}

// Poller returns the periodic scanner, or nil when polling is disabled.
func (sc *ServerContext) Poller() *ingest.Poller {
	return sc.poller
}

// Syncer returns the task syncer.
func (sc *ServerContext) Syncer() *tasksync.Syncer {
	return sc.syncer
}

// Accounts returns the configured account names.
func (sc *ServerContext) Accounts() []string {
	return sc.accounts
}

// HasAccount reports whether the given account is configured.
func (sc *ServerContext) HasAccount(account string) bool {
	for _, a := range sc.accounts {
		if a == account {
			return true
		}
	}
	return false
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops background work and cancels the server context. Safe to
// call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	if sc.poller != nil {
		sc.poller.Stop()
	}
	if sc.queue != nil {
		sc.queue.Close()
	}
	sc.cancel()
	return nil
}
