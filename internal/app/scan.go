package service

import (
	"context"

	"github.com/okian/scoutsync/internal/domain/codec"
	"github.com/okian/scoutsync/internal/domain/dedupe"
	"github.com/okian/scoutsync/internal/domain/merge"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
)

// ImportResult describes one scanned payload.
type ImportResult struct {
	// Duplicate is set when the session already imported this exact payload.
	Duplicate bool
	// Decoded is the number of usable records in the payload.
	Decoded int
	merge.Report
}

// ScanSession imports QR payloads read by one camera session.
type ScanSession struct {
	svc  *Service
	seen dedupe.Deduper
}

// NewScanSession starts a session with an empty duplicate filter.
func (s *Service) NewScanSession() *ScanSession {
	return &ScanSession{
		svc:  s,
		seen: dedupe.New(dedupe.WithMaxSize(s.dedupeSize)),
	}
}

// Scan imports raw. A payload seen earlier in the session is ignored. Records
// that change the cache are then published like SaveMatch.
func (ss *ScanSession) Scan(ctx context.Context, raw string) (ImportResult, error) {
	if ss.seen.SeenAndRecord(ctx, raw) {
		metrics.RecordScanDuplicate()
		return ImportResult{Duplicate: true}, nil
	}

	s := ss.svc
	decoded := codec.DecodeAt(raw, s.now)
	res := ImportResult{Decoded: len(decoded)}
	if len(decoded) == 0 {
		return res, nil
	}

	rep, err := s.cache.Import(ctx, decoded)
	if err != nil {
		ss.seen.Unrecord(ctx, raw)
		return res, err
	}
	res.Report = rep

	for _, rec := range rep.Accepted {
		if err := rec.Validate(); err != nil {
			s.logger.Warn(ctx, "imported record not published",
				logger.String("id", rec.ID),
				logger.Int("match", rec.MatchNumber),
				logger.Int("team", rec.TeamNumber),
				logger.Error(err))
			continue
		}
		if err := s.publishMatch(ctx, rec); err != nil {
			s.logger.Error(ctx, "publish imported record", logger.String("id", rec.ID), logger.Error(err))
		}
	}

	s.logger.Info(ctx, "qr payload imported",
		logger.Int("decoded", res.Decoded),
		logger.Int("added", rep.Added),
		logger.Int("replaced", rep.Replaced),
		logger.Int("skipped", rep.Skipped))
	return res, nil
}
