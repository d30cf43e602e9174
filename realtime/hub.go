package realtime

import (
	"context"
	"log/slog"

	"course-chat/contract"
	"course-chat/domain"
	"course-chat/domain/event"
)

// Hub fans domain events out to live sessions.
//
// It provides best-effort delivery with no guarantees regarding ordering
// across conversations, durability, or retries. The Hub is not a message
// broker: the Message Store is the only durable fact, and a session that
// misses an event catches up by re-reading it.
//
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	log      *slog.Logger
	registry contract.Registry
}

func NewHub(log *slog.Logger, registry contract.Registry) *Hub {
	return &Hub{log: log, registry: registry}
}

// PublishMessage pushes a message:new event to every session registered
// under the sender's and the receiver's address, once per session even when
// the two address sets overlap (self-send). Sink errors are logged and
// dropped; they must never reach the originating send.
func (h *Hub) PublishMessage(ctx context.Context, m domain.Message) {
	targets := make(map[contract.EventSink]struct{})
	for _, sink := range h.registry.SinksFor(m.SenderID) {
		targets[sink] = struct{}{}
	}
	for _, sink := range h.registry.SinksFor(m.ReceiverID) {
		targets[sink] = struct{}{}
	}
	if len(targets) == 0 {
		return
	}

	evt := event.MessageCreated{Message: m}
	for sink := range targets {
		if err := sink.Consume(ctx, evt); err != nil {
			h.log.Debug("live delivery dropped", "event", evt.Name(), "error", err)
		}
	}
}

// PublishPresence broadcasts a presence hint to every attached session,
// anonymous ones included. Best-effort and non-authoritative.
func (h *Hub) PublishPresence(ctx context.Context, user domain.UserID, online bool) {
	evt := event.PresenceChanged{UserID: user, Online: online}
	for _, sink := range h.registry.AllSinks() {
		if err := sink.Consume(ctx, evt); err != nil {
			h.log.Debug("presence broadcast dropped", "event", evt.Name(), "error", err)
		}
	}
}
