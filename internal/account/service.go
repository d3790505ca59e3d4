// Package account implements email/password sign-up and sign-in for
// QuoteDesk users.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quotedesk/api/internal/store"
	"quotedesk/api/internal/util"
)

// UserStore is the subset of the database the account service needs.
// Lookups return (nil, nil) when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, u store.User) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

type Service struct {
	users UserStore
	cost  int
}

func NewService(users UserStore) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost}
}

type SignUpRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Error codes surfaced to the HTTP layer.
var (
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least 8 characters")
)

func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*store.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		ID:           util.NewID("u"),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if user.DisplayName == "" {
		user.DisplayName = email[:strings.Index(email, "@")]
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*store.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		// Burn a comparison so missing accounts cost the same as wrong
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
