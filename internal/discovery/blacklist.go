package discovery

import (
	"sort"
	"sync"
	"time"

	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// BlacklistEntry is a coordinate on cooldown until Expiry.
type BlacklistEntry struct {
	Coordinate galaxy.Coordinate
	Expiry     time.Time
}

// BlacklistStore keeps recently targeted coordinates on cooldown.
//
// A coordinate is active-blacklisted iff an entry exists and its expiry is
// strictly after now. Expired entries linger until EvictIfExpired is called
// for them; there is no background sweep. The store has a single writer, the
// in-flight cycle.
type BlacklistStore interface {
	IsActive(c galaxy.Coordinate, now time.Time) (bool, error)
	// EvictIfExpired removes the entry when its expiry is at or before now
	// and reports whether something was removed.
	EvictIfExpired(c galaxy.Coordinate, now time.Time) (bool, error)
	// Insert records a cooldown, replacing any existing entry for c.
	Insert(c galaxy.Coordinate, expiry time.Time) error
	Len() (int, error)
	Entries() ([]BlacklistEntry, error)
}

// MemoryBlacklist is an in-process BlacklistStore. It lives as long as the process.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[galaxy.Coordinate]time.Time
}

// NewMemoryBlacklist creates an empty blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		entries: make(map[galaxy.Coordinate]time.Time),
	}
}

// IsActive reports whether c is on cooldown at now.
func (b *MemoryBlacklist) IsActive(c galaxy.Coordinate, now time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	expiry, ok := b.entries[c]
	return ok && expiry.After(now), nil
}

// EvictIfExpired drops the entry for c if its cooldown is over.
func (b *MemoryBlacklist) EvictIfExpired(c galaxy.Coordinate, now time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiry, ok := b.entries[c]
	if !ok || expiry.After(now) {
		return false, nil
	}
	delete(b.entries, c)
	return true, nil
}

// Insert puts c on cooldown until expiry.
func (b *MemoryBlacklist) Insert(c galaxy.Coordinate, expiry time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[c] = expiry
	return nil
}

// Len returns the number of entries, expired ones included.
func (b *MemoryBlacklist) Len() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries), nil
}

// Entries returns all entries ordered by expiry.
func (b *MemoryBlacklist) Entries() ([]BlacklistEntry, error) {
	b.mu.RLock()
	out := make([]BlacklistEntry, 0, len(b.entries))
	for c, exp := range b.entries {
		out = append(out, BlacklistEntry{Coordinate: c, Expiry: exp})
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiry.Equal(out[j].Expiry) {
			return lessCoordinate(out[i].Coordinate, out[j].Coordinate)
		}
		return out[i].Expiry.Before(out[j].Expiry)
	})
	return out, nil
}

func lessCoordinate(a, b galaxy.Coordinate) bool {
	if a.Galaxy != b.Galaxy {
		return a.Galaxy < b.Galaxy
	}
	if a.System != b.System {
		return a.System < b.System
	}
	return a.Position < b.Position
}
