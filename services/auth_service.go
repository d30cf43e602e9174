package services

import (
	"fmt"
	"time"

	"course-chat/auth"
	"course-chat/domain"
	"course-chat/errors"
	"course-chat/repositories"
)

type IAuthService interface {
	Register(name, email, password string) (Token, error)
	Login(email, password string) (Token, error)
	ResolveIdentity(token string) (domain.UserID, error)
}

type AuthService struct {
	users         repositories.IUserRepository
	tokenDuration time.Duration
}

type Token string

func NewAuthService(users repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{users: users, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(name, email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash in the service layer so the repository never sees plaintext.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist; ErrUserAlreadyExists propagates when the email is taken.
	userID, err := s.users.CreateUser(name, email, hashedPassword)
	if err != nil {
		return "", err
	}

	// 4. Issue the initial session token.
	token, err := auth.GenerateToken(userID, []string{"user"}, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Roles, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// ResolveIdentity maps a bearer token to a UserID. The core never infers
// an identity; a bad token is always a rejection.
func (s *AuthService) ResolveIdentity(token string) (domain.UserID, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	return domain.UserID(claims.UserID), nil
}
