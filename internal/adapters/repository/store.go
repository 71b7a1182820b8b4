// Package repository persists scouting records in SQLite: the server's
// authoritative store and the field client's local cache, outbox and settings.
package repository

import (
	"context"

	"github.com/okian/scoutsync/internal/domain/model"
)

// Store is the server-side record store.
type Store interface {
	// UpsertPit stores rec unless a record for the team with an equal or newer
	// lastUpdated is held. It reports whether rec was applied.
	UpsertPit(ctx context.Context, rec model.PitRecord, device string) (bool, error)
	// InsertMatch stores rec unless its id is held. It reports whether rec
	// was inserted.
	InsertMatch(ctx context.Context, rec model.MatchRecord, device string) (bool, error)
	// BulkSync applies items in one transaction with the same rules as
	// UpsertPit and InsertMatch. It returns the number of items processed.
	BulkSync(ctx context.Context, items []model.SyncItem, device string) (int, error)

	PitAll(ctx context.Context) ([]model.PitRecord, error)
	// Matches returns every match record, newest first.
	Matches(ctx context.Context) ([]model.MatchRecord, error)

	// ReplacePit and ReplaceMatch overwrite unconditionally. They return
	// ErrNotFound when nothing is held under the key.
	ReplacePit(ctx context.Context, rec model.PitRecord, device string) error
	ReplaceMatch(ctx context.Context, rec model.MatchRecord, device string) error
	DeletePit(ctx context.Context, team int) error
	DeleteMatch(ctx context.Context, id string) error
	// ClearAll removes every pit and match record in one transaction.
	ClearAll(ctx context.Context) error

	Setting(ctx context.Context, key string) (string, bool, error)
	// SetSettingIfAbsent stores value unless key is already set and reports
	// whether it was stored.
	SetSettingIfAbsent(ctx context.Context, key, value string) (bool, error)

	Close() error
}
