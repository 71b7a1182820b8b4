package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags which record a SyncItem carries.
type Kind string

// Item kinds.
const (
	KindPit   Kind = "pit"
	KindMatch Kind = "match"
)

// ErrUnknownKind is returned when decoding an item with an unsupported type tag.
var ErrUnknownKind = errors.New("unknown sync item kind")

// SyncItem is a write waiting to reach the server. Exactly one of Pit or
// Match is set, matching Kind.
type SyncItem struct {
	Kind  Kind
	Pit   *PitRecord
	Match *MatchRecord
}

// PitItem wraps p as a queue item.
func PitItem(p PitRecord) SyncItem { return SyncItem{Kind: KindPit, Pit: &p} }

// MatchItem wraps m as a queue item.
func MatchItem(m MatchRecord) SyncItem { return SyncItem{Kind: KindMatch, Match: &m} }

// Validate applies the record rules of the carried kind.
func (it SyncItem) Validate() error {
	switch it.Kind {
	case KindPit:
		if it.Pit == nil {
			return fmt.Errorf("%w: pit item without data", ErrInvalidRecord)
		}
		return it.Pit.Validate()
	case KindMatch:
		if it.Match == nil {
			return fmt.Errorf("%w: match item without data", ErrInvalidRecord)
		}
		return it.Match.Validate()
	default:
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrUnknownKind)
	}
}

type wireItem struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the item as {"type": ..., "data": ...}.
func (it SyncItem) MarshalJSON() ([]byte, error) {
	var data any
	switch it.Kind {
	case KindPit:
		if it.Pit == nil {
			return nil, fmt.Errorf("pit item without payload")
		}
		data = it.Pit
	case KindMatch:
		if it.Match == nil {
			return nil, fmt.Errorf("match item without payload")
		}
		data = it.Match
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, it.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireItem{Type: it.Kind, Data: raw})
}

// UnmarshalJSON decodes data according to the type tag.
func (it *SyncItem) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Type {
	case KindPit:
		var p PitRecord
		if err := json.Unmarshal(w.Data, &p); err != nil {
			return fmt.Errorf("pit item: %w", err)
		}
		*it = SyncItem{Kind: KindPit, Pit: &p}
	case KindMatch:
		var m MatchRecord
		if err := json.Unmarshal(w.Data, &m); err != nil {
			return fmt.Errorf("match item: %w", err)
		}
		*it = SyncItem{Kind: KindMatch, Match: &m}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
	return nil
}
