package event

import (
	"course-chat/domain"
)

// DomainEvent is anything the realtime layer can push to live sessions.
type DomainEvent interface {
	Name() string
}

// MessageCreated is emitted after a message has been durably stored.
// Delivery to sessions is best-effort; the store remains the source of truth.
type MessageCreated struct {
	Message domain.Message
}

func (MessageCreated) Name() string { return "message:new" }

// PresenceChanged is a non-authoritative hint broadcast when a user's
// session count transitions between zero and nonzero.
type PresenceChanged struct {
	UserID domain.UserID
	Online bool
}

func (PresenceChanged) Name() string { return "presence:update" }
