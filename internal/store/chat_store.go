package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatStore is the external chat message store the scheduler's daily
// maintenance job prunes (spec.md §4.1: "deletes chat messages older than
// three days"). Chat itself is out of the core's scope; this store exists
// only so the maintenance job has a real collaborator to exercise.
type ChatStore interface {
	Post(userID, message string) (string, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type SQLiteChatStore struct {
	db *sql.DB
}

func NewSQLiteChatStore(db *sql.DB) (*SQLiteChatStore, error) {
	s := &SQLiteChatStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("chat store: %w", err)
	}
	return s, nil
}

func (s *SQLiteChatStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at);
	`)
	return err
}

func (s *SQLiteChatStore) Post(userID, message string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO chat_messages (id, user_id, message, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, message, time.Now())
	return id, err
}

func (s *SQLiteChatStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM chat_messages WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
