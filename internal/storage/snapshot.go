package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"lending_go/internal/domain"
)

const snapshotKey = "live_snapshot"

// Snapshot is the live state after applying every event up to Seq.
// Recovery loads it and replays only the WAL tail.
type Snapshot struct {
	Seq     uint64              `json:"seq"`
	TsUnixM int64               `json:"ts"`
	Live    domain.LiveSnapshot `json:"live"`
}

// SaveSnapshot stores snap and drops the WAL entries it covers, atomically.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		snapshotKey, string(data), snap.TsUnixM,
	); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id <= ?", snap.Seq); err != nil {
		return fmt.Errorf("failed to prune events: %w", err)
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot, or nil if none exists.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", snapshotKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
