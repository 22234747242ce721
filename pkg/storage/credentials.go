package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
)

// DefaultCredentialsName is the row used when a single identity is stored
const DefaultCredentialsName = "default"

// SaveCredentials stores creds under name, replacing any previous bundle
func (s *DB) SaveCredentials(name string, creds *credentials.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	query := `
		INSERT INTO credentials (name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, name, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the bundle stored under name
func (s *DB) LoadCredentials(name string) (*credentials.Credentials, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM credentials WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return &creds, nil
}

// DeleteCredentials removes the bundle stored under name
func (s *DB) DeleteCredentials(name string) error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
