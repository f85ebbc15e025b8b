package webhook

import (
	"context"
	"sync"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// EventHandler processes one normalized inbound event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev entity.InboundEvent) error
}

// Dispatcher serializes event handling per identity. Two deliveries for
// the same phone run one after the other (read-modify-write session
// safety); different phones run concurrently.
type Dispatcher struct {
	handler EventHandler

	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewDispatcher(handler EventHandler) *Dispatcher {
	return &Dispatcher{handler: handler, locks: make(map[string]*identityLock)}
}

// Dispatch blocks until the event has been handled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev entity.InboundEvent) error {
	lock := d.acquire(ev.Identity)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		d.release(ev.Identity, lock)
	}()
	return d.handler.HandleEvent(ctx, ev)
}

func (d *Dispatcher) acquire(identity string) *identityLock {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[identity]
	if !ok {
		lock = &identityLock{}
		d.locks[identity] = lock
	}
	lock.refs++
	return lock
}

func (d *Dispatcher) release(identity string, lock *identityLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(d.locks, identity)
	}
}
