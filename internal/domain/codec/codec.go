// Package codec converts match records to and from the compact text payloads
// carried by QR codes.
//
// A single record is "M1\t" followed by 25 tab-separated fields. A bulk
// payload is "B1\n" followed by one 25-field line per record. Decoding never
// fails: unusable input yields fewer records, possibly none.
package codec

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/scoutsync/internal/domain/model"
)

const (
	// SinglePrefix marks a single-record payload.
	SinglePrefix = "M1\t"
	// BulkPrefix marks a multi-record payload.
	BulkPrefix = "B1\n"

	// CommentMaxLen is the number of comment runes kept in a payload.
	CommentMaxLen = 50

	fieldCount    = 25
	fieldSep      = "\t"
	lineSep       = "\n"
	collectionSep = "|"
)

// EncodeMatch returns the single-record payload for m.
func EncodeMatch(m model.MatchRecord) string {
	return SinglePrefix + encodeFields(&m)
}

// EncodeBulk returns one payload carrying every record in ms.
func EncodeBulk(ms []model.MatchRecord) string {
	var b strings.Builder
	b.WriteString(BulkPrefix)
	for i := range ms {
		if i > 0 {
			b.WriteString(lineSep)
		}
		b.WriteString(encodeFields(&ms[i]))
	}
	return b.String()
}

func encodeFields(m *model.MatchRecord) string {
	f := make([]string, 0, fieldCount)
	f = append(f,
		strconv.Itoa(m.MatchNumber),
		strconv.Itoa(m.TeamNumber),
		string(encodeEnum(positionCode, m.StartingPosition, defaultPositionCode)),
		flag(m.NoShow),
		string(encodeEnum(roleCode, m.AutoRole, defaultRoleCode)),
		string(encodeEnum(accuracyCode, m.AutoAccuracy, defaultAccuracyCode)),
		flag(m.AutoLeave),
		strconv.Itoa(m.AutoClimbLevel),
		string(encodeEnum(roleCode, m.TeleopRole, defaultRoleCode)),
		string(encodeEnum(accuracyCode, m.TeleopAccuracy, defaultAccuracyCode)),
		encodeCollection(m.TeleopCollection),
		strconv.Itoa(m.ClimbLevel),
		flag(m.Died),
		strconv.Itoa(m.MinorFouls),
		strconv.Itoa(m.MajorFouls),
		strconv.Itoa(m.OffensiveSkill),
		strconv.Itoa(m.DefensiveSkill),
		strconv.Itoa(m.TransitionQuickness),
		string(encodeEnum(zoneCode, m.PrimaryZone, defaultZoneCode)),
		flag(m.Energized),
		flag(m.Supercharged),
		flag(m.Traversal),
		flag(m.WonMatch),
		SanitizeComment(m.Comments),
		strconv.FormatInt(m.Timestamp, 10),
	)
	return strings.Join(f, fieldSep)
}

// SanitizeComment replaces delimiter characters with spaces and truncates the
// result to CommentMaxLen runes.
func SanitizeComment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) <= CommentMaxLen {
		return s
	}
	return string([]rune(s)[:CommentMaxLen])
}

func encodeCollection(items []string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.Map(func(r rune) rune {
			switch r {
			case '|', '\t', '\n', '\r':
				return -1
			}
			return r
		}, it)
		if it != "" {
			out = append(out, it)
		}
	}
	return strings.Join(out, collectionSep)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Decode parses a single or bulk payload. Records receive fresh ids. Lines
// with too few fields are dropped and an unknown prefix yields no records.
func Decode(raw string) []model.MatchRecord {
	return DecodeAt(raw, time.Now)
}

// DecodeOne returns the first record in raw.
func DecodeOne(raw string) (model.MatchRecord, bool) {
	out := Decode(raw)
	if len(out) == 0 {
		return model.MatchRecord{}, false
	}
	return out[0], true
}

// DecodeAt is Decode with the clock used for missing timestamps.
func DecodeAt(raw string, now model.Clock) (out []model.MatchRecord) {
	defer func() {
		if recover() != nil {
			out = []model.MatchRecord{}
		}
	}()

	out = []model.MatchRecord{}
	switch {
	case strings.HasPrefix(raw, SinglePrefix):
		if m, ok := decodeFields(strings.Split(raw[len(SinglePrefix):], fieldSep), now); ok {
			out = append(out, m)
		}
	case strings.HasPrefix(raw, BulkPrefix):
		for _, line := range strings.Split(raw[len(BulkPrefix):], lineSep) {
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}
			if m, ok := decodeFields(strings.Split(line, fieldSep), now); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func decodeFields(p []string, now model.Clock) (model.MatchRecord, bool) {
	if len(p) < fieldCount {
		return model.MatchRecord{}, false
	}
	ts := atoi64(p[24])
	if ts == 0 {
		ts = model.Millis(now())
	}
	return model.MatchRecord{
		ID:                  model.NewID(),
		MatchNumber:         atoi(p[0]),
		TeamNumber:          atoi(p[1]),
		StartingPosition:    decodeEnum(codePosition, p[2], defaultPositionCode),
		NoShow:              p[3] == "1",
		AutoRole:            decodeEnum(codeRole, p[4], defaultRoleCode),
		AutoAccuracy:        decodeEnum(codeAccuracy, p[5], defaultAccuracyCode),
		AutoLeave:           p[6] == "1",
		AutoClimbLevel:      atoi(p[7]),
		TeleopRole:          decodeEnum(codeRole, p[8], defaultRoleCode),
		TeleopAccuracy:      decodeEnum(codeAccuracy, p[9], defaultAccuracyCode),
		TeleopCollection:    decodeCollection(p[10]),
		ClimbLevel:          atoi(p[11]),
		Died:                p[12] == "1",
		MinorFouls:          atoi(p[13]),
		MajorFouls:          atoi(p[14]),
		OffensiveSkill:      atoi(p[15]),
		DefensiveSkill:      atoi(p[16]),
		TransitionQuickness: atoi(p[17]),
		PrimaryZone:         decodeEnum(codeZone, p[18], defaultZoneCode),
		Energized:           p[19] == "1",
		Supercharged:        p[20] == "1",
		Traversal:           p[21] == "1",
		WonMatch:            p[22] == "1",
		Comments:            SanitizeComment(p[23]),
		Timestamp:           ts,
	}, true
}

func decodeCollection(s string) []string {
	out := []string{}
	for _, it := range strings.Split(s, collectionSep) {
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
