package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"course-chat/contract"
	"course-chat/domain"
	"course-chat/errors"
	"course-chat/projection"
	"course-chat/repositories"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
	MaxThreads      = 100
)

type IMessageService interface {
	Send(ctx context.Context, sender domain.UserID, receiver, content string) (projection.MessageDTO, error)
	ListThreads(ctx context.Context, viewer domain.UserID) ([]projection.ThreadDTO, error)
	GetConversation(ctx context.Context, viewer domain.UserID, peer string, cursor *string, limit int) (projection.ConversationPage, error)
}

// MessageService is the messaging core: durable sends with live fanout,
// per-viewer thread aggregation, and keyset-paginated conversation reads
// with read-marking.
type MessageService struct {
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	publisher contract.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewMessageService(
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	publisher contract.Publisher,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Send validates, persists, then fans out. Validation happens before any
// store mutation, and a publish failure can never fail the send: the
// publisher is best-effort by contract.
func (s *MessageService) Send(ctx context.Context, sender domain.UserID, receiver, content string) (projection.MessageDTO, error) {
	// 1. Reject malformed input before touching storage.
	receiverID, err := domain.ParseUserID(receiver)
	if err != nil {
		return projection.MessageDTO{}, fmt.Errorf("%w: %v", errors.ErrInvalidReceiver, err)
	}
	trimmed, err := domain.ValidateContent(content)
	if err != nil {
		return projection.MessageDTO{}, err
	}

	// 2. Build the record; the id is the sole ordering authority.
	now := s.now()
	message := domain.Message{
		ID:         domain.NewMessageID(now),
		SenderID:   sender,
		ReceiverID: receiverID,
		Content:    trimmed,
		Read:       false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// 3. Durable write, all-or-nothing.
	if err := s.messages.StoreMessage(message); err != nil {
		return projection.MessageDTO{}, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}

	// 4. Best-effort live delivery to both participants.
	s.publisher.PublishMessage(ctx, message)

	return projection.FromMessage(message, &sender), nil
}

// ListThreads recomputes the viewer's thread summaries from a full scan of
// their messages. The scan has no snapshot guarantee stronger than
// read-committed; a message created mid-scan may or may not appear.
func (s *MessageService) ListThreads(_ context.Context, viewer domain.UserID) ([]projection.ThreadDTO, error) {
	scan, err := s.messages.MessagesInvolving(viewer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}

	threads := domain.BuildThreads(viewer, scan, MaxThreads)

	peerIDs := lo.Map(threads, func(t domain.Thread, _ int) domain.UserID { return t.Peer })
	profiles, err := s.users.Profiles(peerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}

	result := lo.Map(threads, func(t domain.Thread, _ int) projection.ThreadDTO {
		return projection.FromThread(t, viewer, profiles)
	})
	return result, nil
}

// GetConversation returns one chronological page of the conversation with
// peer. Read-marking runs after the page is materialized so it can never
// change which rows the page contains, and its failure is absorbed: reading
// must not fail because bookkeeping did.
func (s *MessageService) GetConversation(_ context.Context, viewer domain.UserID, peer string, cursor *string, limit int) (projection.ConversationPage, error) {
	peerID, err := domain.ParseUserID(peer)
	if err != nil {
		return projection.ConversationPage{}, fmt.Errorf("%w: %v", errors.ErrInvalidPeer, err)
	}

	var boundary *domain.MessageID
	if cursor != nil && *cursor != "" {
		id, err := domain.ParseMessageID(*cursor)
		if err != nil {
			return projection.ConversationPage{}, fmt.Errorf("%w: %v", errors.ErrInvalidCursor, err)
		}
		boundary = &id
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page, err := s.messages.Conversation(viewer, peerID, boundary, limit)
	if err != nil {
		return projection.ConversationPage{}, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}

	// A full page means there may be older history below the smallest id.
	var nextCursor *string
	if len(page) == limit {
		nextCursor = lo.ToPtr(string(page[len(page)-1].ID))
	}

	// Oldest first for direct rendering; the DTOs reflect the state as
	// fetched, before read-marking.
	chronological := lo.Reverse(append([]domain.Message{}, page...))
	dto := projection.ConversationPage{
		Messages:   projection.FromMessages(chronological, &viewer),
		NextCursor: nextCursor,
	}

	unread := lo.FilterMap(page, func(m domain.Message, _ int) (domain.MessageID, bool) {
		return m.ID, m.UnreadBy(viewer)
	})
	if len(unread) > 0 {
		if _, err := s.messages.MarkRead(unread); err != nil {
			s.log.Warn("marking conversation page as read failed",
				"viewer", viewer, "peer", peerID, "count", len(unread), "error", err)
		}
	}

	return dto, nil
}
