package session

import (
	"context"
	"sync"
)

// Listener observes session mutations. Called synchronously from Set/Clear
// after durable storage has been updated.
type Listener func(sid string, s Session)

// Store is the durable session storage contract. Get on an absent or
// malformed record yields an empty session, never an error; hydration
// problems are treated as "not logged in".
type Store interface {
	Get(ctx context.Context, sid string) (Session, error)
	Set(ctx context.Context, sid string, s Session) error
	Clear(ctx context.Context, sid string) error
	Subscribe(l Listener) (unsubscribe func())
}

// notifier implements subscriber bookkeeping shared by both store
// implementations. Notifications are process-local.
type notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

func (n *notifier) subscribe(l Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]Listener)
	}
	id := n.next
	n.next++
	n.listeners[id] = l
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

func (n *notifier) notify(sid string, s Session) {
	n.mu.Lock()
	ls := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		ls = append(ls, l)
	}
	n.mu.Unlock()
	for _, l := range ls {
		l(sid, s)
	}
}
