package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"course-chat/domain"
	"course-chat/errors"
)

func Test_CreateUser_And_GetByEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	id, err := repository.CreateUser("Alice", "alice@example.com", "$argon2id$fake")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("Alice", user.Name)
	req.Equal("$argon2id$fake", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
	req.False(user.CreatedAt.IsZero())
}

func Test_CreateUser_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("Other Alice", "alice@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Profiles_PartialResults(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	id, err := repository.CreateUser("Bob", "bob@example.com", "hash")
	req.NoError(err)

	known := domain.UserID(id)
	missing := domain.UserID("11111111-2222-3333-4444-555555555555")

	profiles, err := repository.Profiles([]domain.UserID{known, missing})
	req.NoError(err)
	req.Len(profiles, 1)
	req.Equal("Bob", profiles[known].Name)
	_, ok := profiles[missing]
	req.False(ok)
}
