package session

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "ays/internal/domain/session"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := domain.New("sid-1", time.Now())
	s.SetFlash("success", "hello")

	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := m.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Flash.Message != "hello" {
		t.Errorf("Flash = %q, want hello", got.Flash.Message)
	}

	if err := m.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ExpiredIsPruned(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := m.Save(ctx, domain.New("old", now.Add(-25*time.Hour))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := m.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get expired = %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0 after pruning", m.Len())
	}
}

func TestMemoryStore_RejectsInvalid(t *testing.T) {
	m := NewMemoryStore()
	if err := m.Save(context.Background(), domain.Session{State: domain.StateAnonymous}); !errors.Is(err, domain.ErrEmptySessionID) {
		t.Errorf("Save without id = %v, want ErrEmptySessionID", err)
	}
}

// TestMemoryStore_SessionsAreIndependent verifies one browser's login never leaks into another's.
func TestMemoryStore_SessionsAreIndependent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	a := domain.New("a", time.Now())
	b := domain.New("b", time.Now())
	if err := a.BeginLogin("https://idp/authorize", "st"); err != nil {
		t.Fatal(err)
	}
	if err := a.CompleteLogin(domain.Profile{"name": "Ann"}); err != nil {
		t.Fatal(err)
	}
	m.Save(ctx, a)
	m.Save(ctx, b)

	gotB, err := m.Get(ctx, "b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotB.LoggedIn() {
		t.Error("session b is logged in after session a logged in")
	}
}
