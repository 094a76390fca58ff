// Package store persists the platform credential and subscription id so a
// restarted process can resume without a new authorization-code exchange.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS credential (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	access_token TEXT NOT NULL,
	token_type TEXT NOT NULL DEFAULT 'bearer',
	expires_at TIMESTAMP,
	subscription_id TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
`

// Credential is the persisted authentication state.
type Credential struct {
	AccessToken    string
	TokenType      string
	ExpiresAt      time.Time
	SubscriptionID string
}

// Store is a single-row sqlite-backed credential store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the credential store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open credential db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the credential row.
func (s *Store) Save(c Credential) error {
	_, err := s.db.Exec(`
		INSERT INTO credential (id, access_token, token_type, expires_at, subscription_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			subscription_id = excluded.subscription_id,
			updated_at = excluded.updated_at`,
		c.AccessToken, c.TokenType, c.ExpiresAt, c.SubscriptionID, time.Now().UTC())
	return err
}

// SaveSubscriptionID updates the subscription id on the stored credential.
func (s *Store) SaveSubscriptionID(id string) error {
	res, err := s.db.Exec(`UPDATE credential SET subscription_id = ?, updated_at = ? WHERE id = 1`,
		id, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("no stored credential to attach subscription to")
	}
	return nil
}

// Load returns the stored credential, or nil when none has been saved yet.
func (s *Store) Load() (*Credential, error) {
	var (
		c         Credential
		expiresAt sql.NullTime
	)
	err := s.db.QueryRow(`
		SELECT access_token, token_type, expires_at, subscription_id
		FROM credential WHERE id = 1`).
		Scan(&c.AccessToken, &c.TokenType, &expiresAt, &c.SubscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		c.ExpiresAt = expiresAt.Time
	}
	return &c, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
