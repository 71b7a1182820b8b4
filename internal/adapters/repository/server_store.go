package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
)

// UnknownDevice is recorded when a write carries no device id.
const UnknownDevice = "unknown"

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg storeConfig

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the server database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, serverSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %w", ErrOpen, err)
	}
	return &SQLiteStore{db: db, cfg: cfg, stopChan: make(chan struct{})}, nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) UpsertPit(ctx context.Context, rec model.PitRecord, device string) (bool, error) {
	return s.upsertPit(ctx, s.db, rec, device)
}

func (s *SQLiteStore) upsertPit(ctx context.Context, ex execer, rec model.PitRecord, device string) (bool, error) {
	rec, data, err := s.preparePit(rec)
	if err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, upsertPitSQL, rec.TeamNumber, data, rec.LastUpdated, deviceOrUnknown(device))
	if err != nil {
		metrics.RecordErrorByComponent("store", "upsert_pit")
		return false, fmt.Errorf("upsert pit %d: %w", rec.TeamNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert pit %d: %w", rec.TeamNumber, err)
	}
	applied := n > 0
	if applied {
		metrics.RecordStoreWrite(string(model.KindPit), metrics.OutcomeApplied)
	} else {
		metrics.RecordStoreWrite(string(model.KindPit), metrics.OutcomeIgnored)
	}
	return applied, nil
}

func (s *SQLiteStore) InsertMatch(ctx context.Context, rec model.MatchRecord, device string) (bool, error) {
	return s.insertMatch(ctx, s.db, rec, device)
}

func (s *SQLiteStore) insertMatch(ctx context.Context, ex execer, rec model.MatchRecord, device string) (bool, error) {
	rec, data, err := s.prepareMatch(rec)
	if err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, insertMatchSQL,
		rec.ID, rec.MatchNumber, rec.TeamNumber, data, rec.Timestamp, deviceOrUnknown(device))
	if err != nil {
		metrics.RecordErrorByComponent("store", "insert_match")
		return false, fmt.Errorf("insert match %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert match %s: %w", rec.ID, err)
	}
	inserted := n > 0
	if inserted {
		metrics.RecordStoreWrite(string(model.KindMatch), metrics.OutcomeInserted)
	} else {
		metrics.RecordStoreWrite(string(model.KindMatch), metrics.OutcomeDuplicate)
	}
	return inserted, nil
}

func (s *SQLiteStore) BulkSync(ctx context.Context, items []model.SyncItem, device string) (int, error) {
	metrics.RecordBulkSyncSize(len(items))
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		for i, it := range items {
			if err := it.Validate(); err != nil {
				return fmt.Errorf("%w: item %d: %w", ErrInvalidRecord, i, err)
			}
			var err error
			if it.Kind == model.KindPit {
				_, err = s.upsertPit(ctx, tx, *it.Pit, device)
			} else {
				_, err = s.insertMatch(ctx, tx, *it.Match, device)
			}
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("store", "bulk_sync")
		return 0, err
	}
	return len(items), nil
}

func (s *SQLiteStore) PitAll(ctx context.Context) ([]model.PitRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM pit_data ORDER BY team_number`)
	if err != nil {
		return nil, fmt.Errorf("query pit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.PitRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan pit: %w", err)
		}
		var rec model.PitRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode pit: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Matches(ctx context.Context) ([]model.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM match_data ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query match: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.MatchRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		var rec model.MatchRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplacePit(ctx context.Context, rec model.PitRecord, device string) error {
	rec, data, err := s.preparePit(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updatePitSQL, data, rec.LastUpdated, deviceOrUnknown(device), rec.TeamNumber)
	if err != nil {
		return fmt.Errorf("replace pit %d: %w", rec.TeamNumber, err)
	}
	return requireRow(res, "pit", rec.TeamNumber)
}

func (s *SQLiteStore) ReplaceMatch(ctx context.Context, rec model.MatchRecord, device string) error {
	rec, data, err := s.prepareMatch(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updateMatchSQL,
		data, rec.MatchNumber, rec.TeamNumber, rec.Timestamp, deviceOrUnknown(device), rec.ID)
	if err != nil {
		return fmt.Errorf("replace match %s: %w", rec.ID, err)
	}
	return requireRow(res, "match", rec.ID)
}

func (s *SQLiteStore) DeletePit(ctx context.Context, team int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pit_data WHERE team_number = ?`, team)
	if err != nil {
		return fmt.Errorf("delete pit %d: %w", team, err)
	}
	return requireRow(res, "pit", team)
}

func (s *SQLiteStore) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM match_data WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete match %s: %w", id, err)
	}
	return requireRow(res, "match", id)
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pit_data`); err != nil {
			return fmt.Errorf("clear pit: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM match_data`); err != nil {
			return fmt.Errorf("clear match: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) SetSettingIfAbsent(ctx context.Context, key, value string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO app_settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return false, fmt.Errorf("write setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write setting %s: %w", key, err)
	}
	return n > 0, nil
}

// Counts returns the number of pit and match records held.
func (s *SQLiteStore) Counts(ctx context.Context) (pit, match int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM pit_data), (SELECT COUNT(*) FROM match_data)`).Scan(&pit, &match)
	if err != nil {
		return 0, 0, fmt.Errorf("count records: %w", err)
	}
	return pit, match, nil
}

// StartMetricsUpdater publishes record counts until ctx ends or the store is
// closed.
func (s *SQLiteStore) StartMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	pit, match, err := s.Counts(ctx)
	if err != nil {
		s.cfg.log.Warn(ctx, "record count failed", logger.Error(err))
		return
	}
	metrics.UpdateStoreRecords(string(model.KindPit), pit)
	metrics.UpdateStoreRecords(string(model.KindMatch), match)
}

// preparePit validates rec, stamps a missing lastUpdated and encodes it.
func (s *SQLiteStore) preparePit(rec model.PitRecord) (model.PitRecord, string, error) {
	if err := rec.Validate(); err != nil {
		return rec, "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if rec.LastUpdated == 0 {
		rec.LastUpdated = model.Millis(s.cfg.now())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return rec, "", fmt.Errorf("encode pit %d: %w", rec.TeamNumber, err)
	}
	return rec, string(data), nil
}

// prepareMatch validates rec, stamps a missing timestamp and encodes it.
func (s *SQLiteStore) prepareMatch(rec model.MatchRecord) (model.MatchRecord, string, error) {
	if err := rec.Validate(); err != nil {
		return rec, "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = model.Millis(s.cfg.now())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return rec, "", fmt.Errorf("encode match %s: %w", rec.ID, err)
	}
	return rec, string(data), nil
}

func requireRow(res sql.Result, kind string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %v: %w", kind, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, kind, key)
	}
	return nil
}

func deviceOrUnknown(device string) string {
	if device == "" {
		return UnknownDevice
	}
	return device
}
