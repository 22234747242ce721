package storage

import (
	"database/sql"
	"fmt"
)

// SavePersistentIDs replaces the stored persistent id list with ids
func (s *DB) SavePersistentIDs(ids []string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM persistent_ids`); err != nil {
			return fmt.Errorf("failed to clear persistent ids: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO persistent_ids (position, persistent_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, id := range ids {
			if _, err := stmt.Exec(i, id); err != nil {
				return fmt.Errorf("failed to save persistent id: %w", err)
			}
		}
		return nil
	})
}

// LoadPersistentIDs returns the stored persistent ids in receive order
func (s *DB) LoadPersistentIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT persistent_id FROM persistent_ids ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load persistent ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan persistent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
