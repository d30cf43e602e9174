package contract

import (
	"context"

	"course-chat/domain"
	"course-chat/domain/event"
)

// EventSink consumes domain events. A live websocket session is the usual
// implementation; tests provide in-memory sinks.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Registry tracks which sinks are currently reachable for a user address.
// A sink attached with an empty UserID never joins an address and only
// observes broadcasts.
type Registry interface {
	Attach(user domain.UserID, sink EventSink)
	Detach(sink EventSink)
	SinksFor(user domain.UserID) []EventSink
	AllSinks() []EventSink
}

// Publisher fans events out to currently connected sessions. Implementations
// are best-effort: no retries, no buffering, failures never reach the caller.
type Publisher interface {
	PublishMessage(ctx context.Context, m domain.Message)
	PublishPresence(ctx context.Context, user domain.UserID, online bool)
}
