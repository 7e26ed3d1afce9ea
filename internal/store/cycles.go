package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xonecas/zoea-discovery/internal/discovery"
)

// Cycle is a stored cycle summary.
type Cycle struct {
	ID string
	discovery.CycleRecord
}

// RecordCycle stores a cycle summary and returns its id.
func (s *Store) RecordCycle(rec discovery.CycleRecord) (string, error) {
	id := uuid.New().String()

	_, err := s.db.Exec(`
		INSERT INTO cycles (id, started_at, finished_at, reason, origin, candidates,
			dispatched, failures, skips, stopped, delayed, interval_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rec.StartedAt.UTC().UnixNano(), rec.FinishedAt.UTC().UnixNano(), string(rec.Reason), rec.Origin,
		rec.Candidates, rec.Dispatched, rec.Failures, rec.Skips, rec.Stopped, rec.Delayed,
		rec.Interval.Milliseconds(), rec.Error)
	if err != nil {
		return "", fmt.Errorf("insert cycle: %w", err)
	}

	return id, nil
}

// RecentCycles returns the latest cycles, newest first.
func (s *Store) RecentCycles(limit int) ([]*Cycle, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, reason, origin, candidates,
			dispatched, failures, skips, stopped, delayed, interval_ms, error
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*Cycle
	for rows.Next() {
		var c Cycle
		var startedAt, finishedAt, intervalMs int64
		var reason string

		if err := rows.Scan(
			&c.ID,
			&startedAt,
			&finishedAt,
			&reason,
			&c.Origin,
			&c.Candidates,
			&c.Dispatched,
			&c.Failures,
			&c.Skips,
			&c.Stopped,
			&c.Delayed,
			&intervalMs,
			&c.Error,
		); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}

		c.StartedAt = time.Unix(0, startedAt)
		c.FinishedAt = time.Unix(0, finishedAt)
		c.Reason = discovery.Reason(reason)
		c.Interval = time.Duration(intervalMs) * time.Millisecond
		cycles = append(cycles, &c)
	}

	return cycles, rows.Err()
}

// PruneCycles keeps only the newest keep cycles.
func (s *Store) PruneCycles(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM cycles
		WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("prune cycles: %w", err)
	}
	return nil
}
