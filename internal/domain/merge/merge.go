// Package merge holds the reconciliation rules shared by the client cache and
// the server store.
//
// Pit records are last-writer-wins on lastUpdated with ties kept by the
// holder. Match records are immutable observations deduplicated by id, except
// on QR import where the (match, team) pair is the identity and a strictly
// newer timestamp replaces the held record.
package merge

import "github.com/okian/scoutsync/internal/domain/model"

// PitWins reports whether incoming should replace held. A nil held always
// loses.
func PitWins(incoming, held *model.PitRecord) bool {
	return held == nil || incoming.LastUpdated > held.LastUpdated
}

// MergePit applies rec to m under last-writer-wins and reports whether m
// changed.
func MergePit(m map[int]model.PitRecord, rec model.PitRecord) bool {
	if held, ok := m[rec.TeamNumber]; ok && !PitWins(&rec, &held) {
		return false
	}
	m[rec.TeamNumber] = rec
	return true
}

// InsertIfAbsent appends rec unless a record with the same id is held.
func InsertIfAbsent(held []model.MatchRecord, rec model.MatchRecord) ([]model.MatchRecord, bool) {
	for i := range held {
		if held[i].ID == rec.ID {
			return held, false
		}
	}
	return append(held, rec), true
}

// PrependIfAbsent is InsertIfAbsent for newest-first lists. held is not
// modified.
func PrependIfAbsent(held []model.MatchRecord, rec model.MatchRecord) ([]model.MatchRecord, bool) {
	for i := range held {
		if held[i].ID == rec.ID {
			return held, false
		}
	}
	out := make([]model.MatchRecord, 0, len(held)+1)
	out = append(out, rec)
	return append(out, held...), true
}

// Report summarises one import.
type Report struct {
	Added    int
	Replaced int
	Skipped  int
	// Accepted lists the records that were added or replaced, in input order.
	Accepted []model.MatchRecord
}

// Imported is the number of records that changed the held set.
func (r Report) Imported() int { return r.Added + r.Replaced }

// ImportMatches reconciles incoming against held by (match, team). A pair not
// held is prepended; a held pair is replaced in place only when the incoming
// timestamp is strictly greater; anything else is skipped. held is not
// modified.
func ImportMatches(held, incoming []model.MatchRecord) ([]model.MatchRecord, Report) {
	out := make([]model.MatchRecord, len(held))
	copy(out, held)

	index := make(map[model.Key]int, len(out))
	for i := range out {
		if _, ok := index[out[i].Key()]; !ok {
			index[out[i].Key()] = i
		}
	}

	var (
		rep   Report
		added []model.MatchRecord
	)
	for _, rec := range incoming {
		k := rec.Key()
		if i, ok := index[k]; ok {
			if i < 0 {
				j := -i - 1
				if rec.Timestamp > added[j].Timestamp {
					added[j] = rec
					rep.Accepted = append(rep.Accepted, rec)
					rep.Replaced++
				} else {
					rep.Skipped++
				}
				continue
			}
			if rec.Timestamp > out[i].Timestamp {
				out[i] = rec
				rep.Accepted = append(rep.Accepted, rec)
				rep.Replaced++
			} else {
				rep.Skipped++
			}
			continue
		}
		added = append(added, rec)
		index[k] = -len(added)
		rep.Accepted = append(rep.Accepted, rec)
		rep.Added++
	}

	if len(added) == 0 {
		return out, rep
	}
	// Newest import first, ahead of what was held.
	merged := make([]model.MatchRecord, 0, len(added)+len(out))
	for i := len(added) - 1; i >= 0; i-- {
		merged = append(merged, added[i])
	}
	return append(merged, out...), rep
}
