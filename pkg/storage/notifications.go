package storage

import (
	"fmt"
	"time"
)

// Notification is a received, decrypted payload
type Notification struct {
	ID           int64     `json:"id"`
	PersistentID string    `json:"persistentId"`
	Payload      []byte    `json:"payload"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// SaveNotification appends a payload to the history
func (s *DB) SaveNotification(n *Notification) error {
	receivedAt := n.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	expiresAt := receivedAt.Add(s.ttl)

	// payload is NOT NULL; an empty notification is stored as an empty blob
	payload := n.Payload
	if payload == nil {
		payload = []byte{}
	}

	query := `
		INSERT INTO notifications (persistent_id, payload, received_at, expires_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.Exec(query, n.PersistentID, payload, receivedAt.UnixMilli(), expiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	n.ID = id
	n.ReceivedAt = receivedAt
	return nil
}

// Recent returns up to limit unexpired notifications, newest first
func (s *DB) Recent(limit int) ([]*Notification, error) {
	query := `
		SELECT id, persistent_id, payload, received_at
		FROM notifications
		WHERE expires_at > ?
		ORDER BY received_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, time.Now().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n := &Notification{}
		var receivedAt int64
		if err := rows.Scan(&n.ID, &n.PersistentID, &n.Payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ReceivedAt = time.UnixMilli(receivedAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

// NotificationCount returns the number of unexpired notifications
func (s *DB) NotificationCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE expires_at > ?`, time.Now().UnixMilli()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// PruneExpired deletes notifications that expired before now
func (s *DB) PruneExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM notifications WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return result.RowsAffected()
}
