package codec

import (
	"fmt"

	"github.com/okian/scoutsync/internal/domain/model"
)

// Defaults used when a value has no code, or a code has no value.
const (
	defaultPositionCode = 'M'
	defaultRoleCode     = 'S'
	defaultAccuracyCode = 'N'
	defaultZoneCode     = 'N'
)

var (
	roleCode = map[model.MatchRole]byte{
		model.RoleShooter: 'S',
		model.RoleFeeder:  'F',
		model.RoleDefense: 'D',
	}
	accuracyCode = map[model.Accuracy]byte{
		model.AccuracyBelow50:   'L',
		model.Accuracy50To80:    'M',
		model.AccuracyAbove80:   'H',
		model.AccuracyNotScored: 'N',
	}
	positionCode = map[model.StartingPosition]byte{
		model.PositionOutpost: 'O',
		model.PositionMiddle:  'M',
		model.PositionDepot:   'D',
	}
	zoneCode = map[model.Zone]byte{
		model.ZoneShootingAlliance:  'S',
		model.ZoneNeutral:           'N',
		model.ZoneDefensiveAlliance: 'D',
	}

	codeRole     = invert(roleCode)
	codeAccuracy = invert(accuracyCode)
	codePosition = invert(positionCode)
	codeZone     = invert(zoneCode)
)

func init() {
	if err := checkTables(); err != nil {
		panic(err)
	}
}

// checkTables verifies every enum value has exactly one code and that the
// code maps back to the same value.
func checkTables() error {
	if err := checkTable("role", model.AllRoles(), roleCode, codeRole); err != nil {
		return err
	}
	if err := checkTable("accuracy", model.AllAccuracies(), accuracyCode, codeAccuracy); err != nil {
		return err
	}
	if err := checkTable("position", model.AllPositions(), positionCode, codePosition); err != nil {
		return err
	}
	return checkTable("zone", model.AllZones(), zoneCode, codeZone)
}

func checkTable[T comparable](name string, all []T, enc map[T]byte, dec map[byte]T) error {
	if len(enc) != len(all) || len(dec) != len(all) {
		return fmt.Errorf("codec: %s table has %d codes for %d values", name, len(dec), len(all))
	}
	for _, v := range all {
		c, ok := enc[v]
		if !ok {
			return fmt.Errorf("codec: %s %v has no code", name, v)
		}
		if back := dec[c]; back != v {
			return fmt.Errorf("codec: %s code %q decodes to %v, want %v", name, c, back, v)
		}
	}
	return nil
}

func invert[T comparable](m map[T]byte) map[byte]T {
	out := make(map[byte]T, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func encodeEnum[T comparable](m map[T]byte, v T, def byte) byte {
	if c, ok := m[v]; ok {
		return c
	}
	return def
}

func decodeEnum[T comparable](m map[byte]T, s string, def byte) T {
	if len(s) == 1 {
		if v, ok := m[s[0]]; ok {
			return v
		}
	}
	return m[def]
}
