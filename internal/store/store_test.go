package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyStoreReturnsNil(t *testing.T) {
	s := openTestStore(t)
	c, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil credential, got %+v", c)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	if err := s.Save(Credential{AccessToken: "tok", TokenType: "bearer", ExpiresAt: exp}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c == nil || c.AccessToken != "tok" || c.TokenType != "bearer" {
		t.Fatalf("unexpected credential: %+v", c)
	}
	if !c.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry mismatch: got %v want %v", c.ExpiresAt, exp)
	}
}

func TestSaveReplacesPreviousCredential(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(Credential{AccessToken: "old", TokenType: "bearer"}); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := s.Save(Credential{AccessToken: "new", TokenType: "bearer"}); err != nil {
		t.Fatalf("save new: %v", err)
	}
	c, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.AccessToken != "new" {
		t.Fatalf("expected replacement, got %q", c.AccessToken)
	}
}

func TestSaveSubscriptionID(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveSubscriptionID("sub1"); err == nil {
		t.Fatal("expected error attaching subscription with no credential")
	}
	if err := s.Save(Credential{AccessToken: "tok", TokenType: "bearer"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSubscriptionID("sub1"); err != nil {
		t.Fatalf("save subscription id: %v", err)
	}
	c, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SubscriptionID != "sub1" {
		t.Fatalf("expected subscription id, got %q", c.SubscriptionID)
	}
}
