package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"course-chat/domain"
	"course-chat/errors"
)

type IUserRepository interface {
	CreateUser(name, email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
	Profiles(ids []domain.UserID) (map[domain.UserID]domain.Profile, error)
}

// UserRepository is the user directory backing identity resolution and
// profile lookups. Records live under account:id:{id}; account:email:{email}
// holds the id so logins resolve by email without a scan.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an account.
type User struct {
	ID           string
	Name         string
	Email        string
	Avatar       string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type diskUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"passwordHash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateUser persists a new account and returns its generated id.
// The email index is checked inside the transaction, so two concurrent
// registrations with the same email cannot both succeed.
func (u UserRepository) CreateUser(name, email, hashedPassword string) (string, error) {
	newID := uuid.New().String()
	record := diskUser{
		ID:           newID,
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("account:email:" + email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(newID)); err != nil {
			return err
		}
		return txn.Set([]byte("account:id:"+newID), data)
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// GetUserByEmail resolves the email index then loads the record.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("account:email:" + email))
		if err != nil {
			return err
		}
		var id []byte
		if err := item.Value(func(val []byte) error {
			id = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		item, err = txn.Get([]byte("account:id:" + string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return User{}, err
	}
	return toUser(record), nil
}

// Profiles resolves ids to minimal projections. Unknown ids are simply
// absent from the result; a thread list must not fail because one peer
// is missing from the directory.
func (u UserRepository) Profiles(ids []domain.UserID) (map[domain.UserID]domain.Profile, error) {
	profiles := make(map[domain.UserID]domain.Profile, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get([]byte("account:id:" + id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var record diskUser
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			profiles[id] = domain.Profile{
				ID:     id,
				Name:   record.Name,
				Avatar: record.Avatar,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func toUser(record diskUser) User {
	return User{
		ID:           record.ID,
		Name:         record.Name,
		Email:        record.Email,
		Avatar:       record.Avatar,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    record.CreatedAt,
	}
}
