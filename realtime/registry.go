// Package realtime maintains the live-session registry and fans newly
// created messages out to connected sessions. Delivery is at-most-once per
// currently connected session and best-effort: there is no replay, backlog,
// or durable subscription. Clients recover by re-reading the store.
package realtime

import (
	"sync"

	"course-chat/contract"
	"course-chat/domain"
)

type sinkSet map[contract.EventSink]struct{}

// Registry maps a user address to its live sessions. A user may hold any
// number of concurrent sessions (devices, tabs); an anonymous sink holds no
// address and only observes broadcasts. The registry is process-scoped:
// created at service start, torn down at shutdown, never ambient state.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[domain.UserID]sinkSet
	sessions map[contract.EventSink]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[domain.UserID]sinkSet),
		sessions: make(map[contract.EventSink]domain.UserID),
	}
}

// Attach registers a live session. An empty user means anonymous: the sink
// is tracked for broadcasts but joins no address.
func (r *Registry) Attach(user domain.UserID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sink] = user
	if user == "" {
		return
	}
	if _, ok := r.byUser[user]; !ok {
		r.byUser[user] = make(sinkSet)
	}
	r.byUser[user][sink] = struct{}{}
}

// Detach removes a session from its address and the broadcast set.
// Empty address sets are dropped so the map does not grow with churn.
func (r *Registry) Detach(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.sessions[sink]
	if !ok {
		return
	}
	delete(r.sessions, sink)

	if members, ok := r.byUser[user]; ok {
		delete(members, sink)
		if len(members) == 0 {
			delete(r.byUser, user)
		}
	}
}

// SinksFor snapshots the sessions currently registered under an address.
func (r *Registry) SinksFor(user domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.byUser[user]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(members))
	for sink := range members {
		sinks = append(sinks, sink)
	}
	return sinks
}

// AllSinks snapshots every attached session, anonymous ones included.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}
