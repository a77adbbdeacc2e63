package store

import (
	"testing"
	"time"
)

func TestChatPostAssignsID(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteChatStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteChatStore: %v", err)
	}
	id, err := s.Post("user-1", "hello")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated message id")
	}
}

func TestChatDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteChatStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteChatStore: %v", err)
	}

	old := time.Now().Add(-4 * 24 * time.Hour)
	recent := time.Now()
	if _, err := s.db.Exec(`INSERT INTO chat_messages (id, user_id, message, created_at) VALUES ('old', 'u', 'stale', ?)`, old); err != nil {
		t.Fatalf("insert old message: %v", err)
	}
	if _, err := s.db.Exec(`INSERT INTO chat_messages (id, user_id, message, created_at) VALUES ('new', 'u', 'fresh', ?)`, recent); err != nil {
		t.Fatalf("insert recent message: %v", err)
	}

	cutoff := time.Now().Add(-3 * 24 * time.Hour)
	n, err := s.DeleteOlderThan(cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}

	var remaining int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chat_messages`).Scan(&remaining); err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 row remaining, got %d", remaining)
	}
}
