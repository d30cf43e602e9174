package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"course-chat/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	Conversation(viewer, peer domain.UserID, cursor *domain.MessageID, limit int) ([]domain.Message, error)
	MessagesInvolving(user domain.UserID) ([]domain.Message, error)
	MarkRead(ids []domain.MessageID) (int, error)
}

// MessageRepository persists messages in BadgerDB under three namespaces:
//
//	msg:{id}              -> JSON record (single source of truth)
//	conv:{pair}:{id}      -> empty (per-conversation index)
//	feed:{user}:{id}      -> empty (per-user index, one key per participant)
//
// The id embeds a 19-digit zero-padded nanosecond timestamp, so the default
// lexicographical key order is chronological and a reverse prefix scan yields
// newest first. All keys for one message are written in a single transaction;
// a failed or cancelled store writes nothing.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	DeletedFor []string  `json:"deletedFor"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// pairKey identifies a conversation independently of direction:
// the two participant ids sorted and joined, so A->B and B->A land
// under the same prefix.
func pairKey(a, b domain.UserID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

func recordKey(id domain.MessageID) []byte {
	return []byte("msg:" + id)
}

// StoreMessage writes the record and both index entries atomically.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	data, err := json.Marshal(fromDomain(message))
	if err != nil {
		return fmt.Errorf("encode message %s: %w", message.ID, err)
	}
	convKey := fmt.Sprintf("conv:%s:%s", pairKey(message.SenderID, message.ReceiverID), message.ID)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(message.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(convKey), nil); err != nil {
			return err
		}
		for _, user := range participants(message) {
			feedKey := fmt.Sprintf("feed:%s:%s", user, message.ID)
			if err := txn.Set([]byte(feedKey), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Conversation returns up to limit messages between viewer and peer, newest
// first, strictly below the cursor when one is given. The cursor is an
// exclusive upper bound on the id, so pages never duplicate or skip rows
// even when new messages land between calls.
func (m MessageRepository) Conversation(viewer, peer domain.UserID, cursor *domain.MessageID, limit int) ([]domain.Message, error) {
	prefix := []byte(fmt.Sprintf("conv:%s:", pairKey(viewer, peer)))
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past any possible id, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), 0xff)
		default:
			seekKey = append(append([]byte{}, prefix...), *cursor...)
		}
		it.Seek(seekKey)

		// A reverse seek lands on the cursor entry itself when it exists;
		// the bound is exclusive, so step past it.
		if cursor != nil && it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			id := domain.MessageID(it.Item().Key()[len(prefix):])
			message, err := m.load(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MessagesInvolving returns every message where user is sender or receiver,
// newest first. Thread aggregation consumes the full scan; there is no cap
// here so unread counts are exact.
func (m MessageRepository) MessagesInvolving(user domain.UserID) ([]domain.Message, error) {
	prefix := []byte(fmt.Sprintf("feed:%s:", user))
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			id := domain.MessageID(it.Item().Key()[len(prefix):])
			message, err := m.load(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips the read flag on the given messages in one transaction and
// returns how many actually transitioned. Already-read and unknown ids are
// skipped, so repeated calls are no-ops.
func (m MessageRepository) MarkRead(ids []domain.MessageID) (int, error) {
	updated := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		now := time.Now().UTC()
		for _, id := range ids {
			message, err := m.load(txn, id)
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if message.Read {
				continue
			}
			message.Read = true
			message.UpdatedAt = now
			data, err := json.Marshal(fromDomain(message))
			if err != nil {
				return fmt.Errorf("encode message %s: %w", id, err)
			}
			if err := txn.Set(recordKey(id), data); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (m MessageRepository) load(txn *badger.Txn, id domain.MessageID) (domain.Message, error) {
	item, err := txn.Get(recordKey(id))
	if err != nil {
		return domain.Message{}, err
	}
	var record diskMessage
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return domain.Message{}, fmt.Errorf("decode message %s: %w", id, err)
	}
	return toDomain(record), nil
}

// participants lists the feed index owners, once each for a self-send.
func participants(message domain.Message) []domain.UserID {
	if message.SenderID == message.ReceiverID {
		return []domain.UserID{message.SenderID}
	}
	return []domain.UserID{message.SenderID, message.ReceiverID}
}

func fromDomain(message domain.Message) diskMessage {
	deletedFor := make([]string, 0, len(message.DeletedFor))
	for _, user := range message.DeletedFor {
		deletedFor = append(deletedFor, string(user))
	}
	return diskMessage{
		ID:         string(message.ID),
		SenderID:   string(message.SenderID),
		ReceiverID: string(message.ReceiverID),
		Content:    message.Content,
		Read:       message.Read,
		DeletedFor: deletedFor,
		CreatedAt:  message.CreatedAt,
		UpdatedAt:  message.UpdatedAt,
	}
}

func toDomain(record diskMessage) domain.Message {
	deletedFor := make([]domain.UserID, 0, len(record.DeletedFor))
	for _, user := range record.DeletedFor {
		deletedFor = append(deletedFor, domain.UserID(user))
	}
	return domain.Message{
		ID:         domain.MessageID(record.ID),
		SenderID:   domain.UserID(record.SenderID),
		ReceiverID: domain.UserID(record.ReceiverID),
		Content:    record.Content,
		Read:       record.Read,
		DeletedFor: deletedFor,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
