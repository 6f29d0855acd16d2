// Package orch coordinates the session lifecycle and every message
// operation: it resolves the acting identity against the registry, talks to
// the durable log, and hands resulting events to the dispatcher.
package orch

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/core"
)

const defaultStoreTimeout = 5 * time.Second

type Orchestrator struct {
	Registry     *app.Registry
	Rooms        *app.Rooms
	Dispatch     *app.Dispatcher
	Store        core.MessageStore
	StoreTimeout time.Duration

	// Mutations against one message identifier must not interleave, or
	// concurrent reaction toggles lose updates. Lock striping keeps the
	// serialization point bounded.
	msgLocks [64]sync.Mutex
}

func New(reg *app.Registry, rooms *app.Rooms, dispatch *app.Dispatcher, store core.MessageStore, storeTimeout time.Duration) *Orchestrator {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &Orchestrator{
		Registry:     reg,
		Rooms:        rooms,
		Dispatch:     dispatch,
		Store:        store,
		StoreTimeout: storeTimeout,
	}
}

func (o *Orchestrator) lockMessage(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &o.msgLocks[h.Sum32()%uint32(len(o.msgLocks))]
	mu.Lock()
	return mu.Unlock
}

// storeCtx bounds every external-store call. On timeout the operation is
// treated as failed; it is never retried silently.
func (o *Orchestrator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.StoreTimeout)
}
