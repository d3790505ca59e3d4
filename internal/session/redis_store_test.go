package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	data := TokenData{
		OwnerID:     "u_1",
		DisplayName: "Noa Levi",
		Email:       "noa@example.com",
	}
	if err := store.SaveRefreshSession(ctx, "hash-1", data, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	got, err := store.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if got.OwnerID != "u_1" || got.Email != "noa@example.com" {
		t.Errorf("unexpected session data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on save")
	}
}

func TestLookupExpiredSession(t *testing.T) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	err = store.SaveRefreshSession(ctx, "hash-exp", TokenData{OwnerID: "u_1"}, time.Now().Add(time.Millisecond))
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	if _, err = store.LookupRefreshSession(ctx, "hash-exp"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for expired session, got %v", err)
	}
}

func TestLookupMissingSession(t *testing.T) {
	store := setupTestRedis(t)
	if _, err := store.LookupRefreshSession(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	if err := store.SaveRefreshSession(ctx, "hash-rev", TokenData{OwnerID: "u_1"}, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if err := store.RevokeRefreshSession(ctx, "hash-rev"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := store.LookupRefreshSession(ctx, "hash-rev"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after revoke, got %v", err)
	}

	// Revoking again is a no-op, not an error.
	if err := store.RevokeRefreshSession(ctx, "hash-rev"); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}
}
