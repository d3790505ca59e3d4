package account

import (
	"context"
	"testing"

	"quotedesk/api/internal/store"
)

type fakeUserStore struct {
	byEmail map[string]*store.User
	created []store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*store.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u store.User) (store.User, error) {
	f.created = append(f.created, u)
	f.byEmail[u.Email] = &u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	return f.byEmail[email], nil
}

func TestSignUpThenSignIn(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(users)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, SignUpRequest{
		DisplayName: "Noa Levi",
		Email:       "Noa@Example.com",
		Password:    "correct horse",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if created.Email != "noa@example.com" {
		t.Errorf("email should be normalized, got %s", created.Email)
	}
	if created.PasswordHash == "correct horse" || created.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	signedIn, err := svc.SignIn(ctx, SignInRequest{Email: "noa@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if signedIn.ID != created.ID {
		t.Errorf("SignIn returned wrong user: %s vs %s", signedIn.ID, created.ID)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(users)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "noa@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "NOA@example.com", Password: "another pass"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(users)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "noa@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "noa@example.com", Password: "wrong"}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "whatever"}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{Email: "noa@example.com", Password: "short"}); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}
