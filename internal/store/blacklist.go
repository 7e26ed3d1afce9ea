package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Blacklist is a discovery.BlacklistStore that survives restarts.
type Blacklist struct {
	db *sql.DB
}

// Blacklist returns the persistent discovery blacklist.
func (s *Store) Blacklist() *Blacklist {
	return &Blacklist{db: s.db}
}

// IsActive reports whether c is on cooldown at now.
func (b *Blacklist) IsActive(c galaxy.Coordinate, now time.Time) (bool, error) {
	var expiresAt int64
	err := b.db.QueryRow(`
		SELECT expires_at FROM blacklist
		WHERE galaxy = ? AND solar_system = ? AND position = ?
	`, c.Galaxy, c.System, c.Position).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return time.Unix(0, expiresAt).After(now), nil
}

// EvictIfExpired deletes the entry for c when its cooldown is over.
func (b *Blacklist) EvictIfExpired(c galaxy.Coordinate, now time.Time) (bool, error) {
	res, err := b.db.Exec(`
		DELETE FROM blacklist
		WHERE galaxy = ? AND solar_system = ? AND position = ? AND expires_at <= ?
	`, c.Galaxy, c.System, c.Position, now.UnixNano())
	if err != nil {
		return false, fmt.Errorf("evict blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("evict blacklist entry: %w", err)
	}
	return n > 0, nil
}

// Insert stores or replaces the cooldown for c.
func (b *Blacklist) Insert(c galaxy.Coordinate, expiry time.Time) error {
	_, err := b.db.Exec(`
		INSERT INTO blacklist (galaxy, solar_system, position, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(galaxy, solar_system, position) DO UPDATE SET
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, c.Galaxy, c.System, c.Position, expiry.UnixNano(), time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (b *Blacklist) Len() (int, error) {
	var n int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM blacklist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blacklist: %w", err)
	}
	return n, nil
}

// Entries returns all entries ordered by expiry.
func (b *Blacklist) Entries() ([]discovery.BlacklistEntry, error) {
	rows, err := b.db.Query(`
		SELECT galaxy, solar_system, position, expires_at
		FROM blacklist
		ORDER BY expires_at ASC, galaxy ASC, solar_system ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	var entries []discovery.BlacklistEntry
	for rows.Next() {
		var e discovery.BlacklistEntry
		var expiresAt int64
		if err := rows.Scan(&e.Coordinate.Galaxy, &e.Coordinate.System, &e.Coordinate.Position, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		e.Expiry = time.Unix(0, expiresAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// PurgeExpired deletes every entry whose cooldown is over and returns how many went.
func (b *Blacklist) PurgeExpired(now time.Time) (int64, error) {
	res, err := b.db.Exec(`DELETE FROM blacklist WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge blacklist: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry.
func (b *Blacklist) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM blacklist`); err != nil {
		return fmt.Errorf("clear blacklist: %w", err)
	}
	return nil
}
