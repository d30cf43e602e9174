// Package domain contains core concepts of the messaging system.
// This file defines the Message entity and related rules.
// Messages are immutable except the read flag and validated by the domain.
package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"course-chat/errors"
)

// MaxContentRunes bounds the length of a message body.
const MaxContentRunes = 5000

// UserID is an opaque identifier resolved by the identity collaborator.
type UserID string

// MessageID orders messages. The textual form is a 19-digit zero-padded
// nanosecond timestamp, a dash, and a UUID, so plain string comparison
// is creation-order comparison and the id can serve as a pagination cursor.
type MessageID string

// Message represents a directed message between two users.
// Only the Read flag (and UpdatedAt alongside it) ever changes after creation,
// and only from false to true.
type Message struct {
	ID         MessageID
	SenderID   UserID
	ReceiverID UserID
	Content    string
	Read       bool
	DeletedFor []UserID // reserved visibility mask, unexercised for now
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Peer returns the other participant from the viewer's perspective.
func (m Message) Peer(viewer UserID) UserID {
	if m.SenderID == viewer {
		return m.ReceiverID
	}
	return m.SenderID
}

// UnreadBy reports whether the message is awaiting a read by viewer.
func (m Message) UnreadBy(viewer UserID) bool {
	return m.ReceiverID == viewer && !m.Read
}

var idClock struct {
	mu   sync.Mutex
	last int64
}

// NewMessageID issues an identifier that strictly increases with call order
// within the process, even when the wall clock repeats a nanosecond or steps
// backwards. The UUID suffix keeps ids unique across restarts.
func NewMessageID(now time.Time) MessageID {
	idClock.mu.Lock()
	nano := now.UnixNano()
	if nano <= idClock.last {
		nano = idClock.last + 1
	}
	idClock.last = nano
	idClock.mu.Unlock()
	return MessageID(fmt.Sprintf("%019d-%s", nano, uuid.New()))
}

// ParseUserID checks that a caller-supplied identifier is well formed.
func ParseUserID(raw string) (UserID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("malformed user id %q: %w", raw, err)
	}
	return UserID(id.String()), nil
}

// ParseMessageID validates a pagination cursor. Rejecting alien cursors here
// keeps a corrupted cursor from silently restarting pagination from the top.
func ParseMessageID(raw string) (MessageID, error) {
	const nanoDigits = 19
	if len(raw) != nanoDigits+1+36 || raw[nanoDigits] != '-' {
		return "", fmt.Errorf("malformed message id %q", raw)
	}
	for _, r := range raw[:nanoDigits] {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("malformed message id %q", raw)
		}
	}
	if _, err := uuid.Parse(raw[nanoDigits+1:]); err != nil {
		return "", fmt.Errorf("malformed message id %q: %w", raw, err)
	}
	return MessageID(raw), nil
}

// ValidateContent trims the body and enforces the non-empty and length rules.
// The trimmed form is what gets persisted.
func ValidateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", fmt.Errorf("%w: empty after trimming", errors.ErrEmptyContent)
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return "", fmt.Errorf("%w: exceeds %d characters", errors.ErrContentTooLong, MaxContentRunes)
	}
	return content, nil
}
