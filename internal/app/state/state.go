// Package state holds the field client's view of the scouting data: every
// pit record by team and every match record newest first.
//
// One mutex serialises all mutations, whether they come from a sync pull, a
// local save or a QR import. Each mutation is persisted before it becomes
// visible, and readers always receive copies.
package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/okian/scoutsync/internal/domain/merge"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/metrics"
)

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("cache closed")

// CacheStore persists the cache.
type CacheStore interface {
	LoadCache(ctx context.Context) (map[int]model.PitRecord, []model.MatchRecord, error)
	SaveCache(ctx context.Context, pit map[int]model.PitRecord, matches []model.MatchRecord) error
	PutPit(ctx context.Context, rec model.PitRecord) error
	PrependMatch(ctx context.Context, rec model.MatchRecord) error
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	store   CacheStore
	pit     map[int]model.PitRecord
	matches []model.MatchRecord
	closed  bool
}

// Open loads the persisted cache.
func Open(ctx context.Context, store CacheStore) (*Cache, error) {
	pit, matches, err := store.LoadCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	if pit == nil {
		pit = map[int]model.PitRecord{}
	}
	return &Cache{store: store, pit: pit, matches: matches}, nil
}

// Replace swaps the whole cache for a server snapshot.
func (c *Cache) Replace(ctx context.Context, pit map[int]model.PitRecord, matches []model.MatchRecord) error {
	pit = maps.Clone(pit)
	if pit == nil {
		pit = map[int]model.PitRecord{}
	}
	matches = append([]model.MatchRecord{}, matches...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.store.SaveCache(ctx, pit, matches); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	c.pit, c.matches = pit, matches
	return nil
}

// ApplySnapshot takes a server snapshot the way Replace does, except that a
// held pit record strictly newer than the snapshot's copy is kept and pending
// outbox items are laid over the result. The merge runs under the cache lock,
// so a save that lands while the snapshot was being fetched is not lost.
func (c *Cache) ApplySnapshot(ctx context.Context, pit map[int]model.PitRecord, matches []model.MatchRecord, pending []model.SyncItem) error {
	pit = maps.Clone(pit)
	if pit == nil {
		pit = map[int]model.PitRecord{}
	}
	matches = append([]model.MatchRecord{}, matches...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for team, held := range c.pit {
		if snap, ok := pit[team]; ok && merge.PitWins(&held, &snap) {
			pit[team] = held
		}
	}
	for _, it := range pending {
		switch {
		case it.Pit != nil:
			merge.MergePit(pit, *it.Pit)
		case it.Match != nil:
			matches, _ = merge.PrependIfAbsent(matches, *it.Match)
		}
	}
	if err := c.store.SaveCache(ctx, pit, matches); err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	c.pit, c.matches = pit, matches
	return nil
}

// PutPit applies rec under last-writer-wins and reports whether it changed
// the cache.
func (c *Cache) PutPit(ctx context.Context, rec model.PitRecord) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	if held, ok := c.pit[rec.TeamNumber]; ok && !merge.PitWins(&rec, &held) {
		return false, nil
	}
	if err := c.store.PutPit(ctx, rec); err != nil {
		return false, fmt.Errorf("put pit %d: %w", rec.TeamNumber, err)
	}
	merge.MergePit(c.pit, rec)
	return true, nil
}

// PutMatch stores rec ahead of every held match unless its id is held.
func (c *Cache) PutMatch(ctx context.Context, rec model.MatchRecord) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	next, added := merge.PrependIfAbsent(c.matches, rec)
	if !added {
		return false, nil
	}
	if err := c.store.PrependMatch(ctx, rec); err != nil {
		return false, fmt.Errorf("put match %s: %w", rec.ID, err)
	}
	c.matches = next
	return true, nil
}

// Import reconciles decoded records with the held matches.
func (c *Cache) Import(ctx context.Context, incoming []model.MatchRecord) (merge.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return merge.Report{}, ErrClosed
	}
	next, rep := merge.ImportMatches(c.matches, incoming)
	if rep.Imported() > 0 {
		if err := c.store.SaveCache(ctx, c.pit, next); err != nil {
			return merge.Report{}, fmt.Errorf("import: %w", err)
		}
		c.matches = next
	}
	metrics.RecordImport(metrics.OutcomeAdded, rep.Added)
	metrics.RecordImport(metrics.OutcomeReplaced, rep.Replaced)
	metrics.RecordImport(metrics.OutcomeSkipped, rep.Skipped)
	return rep, nil
}

// Reset empties the cache.
func (c *Cache) Reset(ctx context.Context) error {
	return c.Replace(ctx, nil, nil)
}

// Pit returns the record held for team.
func (c *Cache) Pit(team int) (model.PitRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.pit[team]
	return rec, ok
}

// PitAll returns a copy of every pit record keyed by team.
func (c *Cache) PitAll() map[int]model.PitRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.pit)
}

// Matches returns a copy of every match record, newest first.
func (c *Cache) Matches() []model.MatchRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.MatchRecord{}, c.matches...)
}

// MatchesForTeam returns the held match records for team, newest first.
func (c *Cache) MatchesForTeam(team int) []model.MatchRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.MatchRecord{}
	for _, m := range c.matches {
		if m.TeamNumber == team {
			out = append(out, m)
		}
	}
	return out
}

// Close rejects further mutations. The store is owned by the caller.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
