package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/scoutsync/internal/adapters/mq/queue"
	"github.com/okian/scoutsync/internal/domain/model"
)

const deviceIDKey = "device_id"

// LocalStore is the field client's durable state: the record cache, the
// outbox and device settings, all in one SQLite file.
type LocalStore struct {
	db  *sql.DB
	cfg storeConfig
}

var _ queue.Backend = (*LocalStore)(nil)

// NewLocalStore opens (or creates) the client database at path.
func NewLocalStore(ctx context.Context, path string, opts ...Option) (*LocalStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, localSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %w", ErrOpen, err)
	}
	return &LocalStore{db: db, cfg: cfg}, nil
}

// Close closes the database.
func (s *LocalStore) Close() error { return s.db.Close() }

// LoadCache returns the cached pit records and the cached match records in
// display order.
func (s *LocalStore) LoadCache(ctx context.Context) (map[int]model.PitRecord, []model.MatchRecord, error) {
	pit := map[int]model.PitRecord{}
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM cache_pit`)
	if err != nil {
		return nil, nil, fmt.Errorf("load cached pit: %w", err)
	}
	for rows.Next() {
		var data string
		var rec model.PitRecord
		if err := rows.Scan(&data); err != nil {
			_ = rows.Close()
			return nil, nil, fmt.Errorf("scan cached pit: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			_ = rows.Close()
			return nil, nil, fmt.Errorf("decode cached pit: %w", err)
		}
		pit[rec.TeamNumber] = rec
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load cached pit: %w", err)
	}

	matches := []model.MatchRecord{}
	rows, err = s.db.QueryContext(ctx, `SELECT data FROM cache_match ORDER BY ord`)
	if err != nil {
		return nil, nil, fmt.Errorf("load cached match: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var data string
		var rec model.MatchRecord
		if err := rows.Scan(&data); err != nil {
			return nil, nil, fmt.Errorf("scan cached match: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, nil, fmt.Errorf("decode cached match: %w", err)
		}
		matches = append(matches, rec)
	}
	return pit, matches, rows.Err()
}

// SaveCache replaces the whole cache in one transaction.
func (s *LocalStore) SaveCache(ctx context.Context, pit map[int]model.PitRecord, matches []model.MatchRecord) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_pit`); err != nil {
			return fmt.Errorf("clear cached pit: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_match`); err != nil {
			return fmt.Errorf("clear cached match: %w", err)
		}
		for _, rec := range pit {
			if err := putPit(ctx, tx, rec); err != nil {
				return err
			}
		}
		for i, rec := range matches {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode cached match %s: %w", rec.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO cache_match (id, ord, data) VALUES (?, ?, ?)`, rec.ID, i, string(data)); err != nil {
				return fmt.Errorf("save cached match %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// PutPit stores rec in the cache unconditionally.
func (s *LocalStore) PutPit(ctx context.Context, rec model.PitRecord) error {
	return putPit(ctx, s.db, rec)
}

func putPit(ctx context.Context, ex execer, rec model.PitRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cached pit %d: %w", rec.TeamNumber, err)
	}
	if _, err := ex.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_pit (team_number, data, last_updated) VALUES (?, ?, ?)`,
		rec.TeamNumber, string(data), rec.LastUpdated); err != nil {
		return fmt.Errorf("save cached pit %d: %w", rec.TeamNumber, err)
	}
	return nil
}

// PrependMatch stores rec ahead of every cached match.
func (s *LocalStore) PrependMatch(ctx context.Context, rec model.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cached match %s: %w", rec.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_match (id, ord, data)
		 VALUES (?, (SELECT COALESCE(MIN(ord), 0) - 1 FROM cache_match), ?)`,
		rec.ID, string(data)); err != nil {
		return fmt.Errorf("save cached match %s: %w", rec.ID, err)
	}
	return nil
}

// Append implements queue.Backend.
func (s *LocalStore) Append(ctx context.Context, item model.SyncItem, at time.Time) (int64, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("encode outbox item: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (kind, data, enqueued_at) VALUES (?, ?, ?)`,
		string(item.Kind), string(data), model.Millis(at))
	if err != nil {
		return 0, fmt.Errorf("append outbox item: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append outbox item: %w", err)
	}
	return seq, nil
}

// Load implements queue.Backend.
func (s *LocalStore) Load(ctx context.Context) ([]queue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, data, enqueued_at FROM outbox ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []queue.Entry
	for rows.Next() {
		var (
			e    queue.Entry
			data string
			at   int64
		)
		if err := rows.Scan(&e.Seq, &data, &at); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Item); err != nil {
			return nil, fmt.Errorf("decode outbox item %d: %w", e.Seq, err)
		}
		e.EnqueuedAt = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Truncate implements queue.Backend.
func (s *LocalStore) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM outbox`); err != nil {
		return fmt.Errorf("truncate outbox: %w", err)
	}
	return nil
}

// DeleteThrough implements queue.Backend.
func (s *LocalStore) DeleteThrough(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE seq <= ?`, seq); err != nil {
		return fmt.Errorf("delete outbox through %d: %w", seq, err)
	}
	return nil
}

// Setting returns the value stored under key.
func (s *LocalStore) Setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, true, nil
}

// SetSetting stores value under key.
func (s *LocalStore) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// DeviceID returns this device's id, generating and storing one on first use.
func (s *LocalStore) DeviceID(ctx context.Context) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, deviceIDKey, model.NewID()); err != nil {
		return "", fmt.Errorf("init device id: %w", err)
	}
	id, _, err := s.Setting(ctx, deviceIDKey)
	return id, err
}
