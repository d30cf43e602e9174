// Package projection builds wire-shaped views from domain values.
// Field names are part of the external contract and must stay stable;
// every field is always present except isMine, which only exists when
// a viewer context applies.
package projection

import (
	"time"

	"github.com/samber/lo"

	"course-chat/domain"
)

type MessageDTO struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Read       bool      `json:"read"`
	IsMine     *bool     `json:"isMine,omitempty"`
}

// PeerDTO is the profile projection attached to a thread. A peer missing
// from the directory still appears with its bare id.
type PeerDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type ThreadDTO struct {
	Peer        PeerDTO    `json:"peer"`
	LastMessage MessageDTO `json:"lastMessage"`
	UnreadCount int        `json:"unreadCount"`
}

// ConversationPage is one chronological page of a conversation.
// NextCursor is null when the page reached end of history.
type ConversationPage struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor *string      `json:"nextCursor"`
}

// FromMessage shapes a message for the wire. viewer may be nil when no
// viewer context applies (live fanout), in which case isMine is omitted.
func FromMessage(m domain.Message, viewer *domain.UserID) MessageDTO {
	dto := MessageDTO{
		ID:         string(m.ID),
		SenderID:   string(m.SenderID),
		ReceiverID: string(m.ReceiverID),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Read:       m.Read,
	}
	if viewer != nil {
		dto.IsMine = lo.ToPtr(m.SenderID == *viewer)
	}
	return dto
}

// FromMessages shapes a slice preserving order.
func FromMessages(messages []domain.Message, viewer *domain.UserID) []MessageDTO {
	return lo.Map(messages, func(m domain.Message, _ int) MessageDTO {
		return FromMessage(m, viewer)
	})
}

// FromThread attaches the resolved profile when the directory knows the peer.
func FromThread(t domain.Thread, viewer domain.UserID, profiles map[domain.UserID]domain.Profile) ThreadDTO {
	peer := PeerDTO{ID: string(t.Peer)}
	if profile, ok := profiles[t.Peer]; ok {
		peer.Name = profile.Name
		peer.Avatar = profile.Avatar
	}
	return ThreadDTO{
		Peer:        peer,
		LastMessage: FromMessage(t.LastMessage, &viewer),
		UnreadCount: t.UnreadCount,
	}
}
