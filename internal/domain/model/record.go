// Package model holds the pit and match records scouts capture, and the
// queue item that carries them to the server.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRecord is returned by Validate for a record the server would refuse.
var ErrInvalidRecord = errors.New("invalid record")

// Clock returns the current wall-clock time. Tests inject fixed clocks.
type Clock func() time.Time

// Millis converts t to milliseconds since the Unix epoch.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// NowMillis returns the current time in milliseconds since the Unix epoch.
func NowMillis() int64 { return Millis(time.Now()) }

// NewID returns a random 128-bit identifier.
func NewID() string { return uuid.NewString() }

// Dimensions of the robot frame, as entered by the scout.
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Drivetrain describes the drive base.
type Drivetrain struct {
	Type        string `json:"type"`
	Motors      string `json:"motors"`
	SwerveRatio string `json:"swerveRatio"`
}

// Pickups lists where the robot can collect game pieces.
type Pickups struct {
	Ground  bool `json:"ground"`
	Outpost bool `json:"outpost"`
	Depot   bool `json:"depot"`
}

// Obstacles lists field obstacles the robot can traverse.
type Obstacles struct {
	CrossBump   bool `json:"crossBump"`
	CrossTrench bool `json:"crossTrench"`
}

// Scoring describes shooting capability.
type Scoring struct {
	ShootOnMove      bool     `json:"shootOnMove"`
	CanFeed          bool     `json:"canFeed"`
	MinDistance      string   `json:"minDistance"`
	MaxDistance      string   `json:"maxDistance"`
	ComfortableZones []string `json:"comfortableZones"`
	ScoringRate      string   `json:"scoringRate"`
	AutoAlign        bool     `json:"autoAlign"`
	ChangeTrajectory bool     `json:"changeTrajectory"`
}

// Climb describes endgame climbing.
type Climb struct {
	MaxLevel     string `json:"maxLevel"`
	CanAutoClimb bool   `json:"canAutoClimb"`
	ClimbTime    string `json:"climbTime"`
}

// PitRecord is the technical profile of one robot, keyed by team number.
// The record with the greatest LastUpdated is authoritative.
type PitRecord struct {
	TeamNumber       int        `json:"teamNumber"`
	Dimensions       Dimensions `json:"dimensions"`
	Weight           string     `json:"weight"`
	Archetype        string     `json:"archetype"`
	ShooterCountType string     `json:"shooterCountType"`
	ArchetypeOther   string     `json:"archetypeOther"`
	NumBatteries     string     `json:"numBatteries"`
	Drivetrain       Drivetrain `json:"drivetrain"`
	DriverExperience string     `json:"driverExperience"`
	Pickups          Pickups    `json:"pickups"`
	CanCorralDrop    bool       `json:"canCorralDrop"`
	GamePieceCap     string     `json:"gamePieceCapacity"`
	MaxPreload       string     `json:"maxPreload"`
	Obstacles        Obstacles  `json:"obstacles"`
	Scoring          Scoring    `json:"scoring"`
	Extensions       bool       `json:"extensions"`
	AutoDescription  string     `json:"autoDescription"`
	Climb            Climb      `json:"climb"`
	SelfAssessedRole string     `json:"selfAssessedRole"`
	Comments         string     `json:"comments"`
	LastUpdated      int64      `json:"lastUpdated"`
}

// NewPitRecord returns an empty profile for team with form defaults.
func NewPitRecord(team int) PitRecord {
	return PitRecord{
		TeamNumber:       team,
		ShooterCountType: NotApplicable,
		SelfAssessedRole: NotApplicable,
		Climb:            Climb{MaxLevel: "None"},
		Scoring:          Scoring{ComfortableZones: []string{}},
	}
}

// Touch stamps the record with the save time.
func (p *PitRecord) Touch(now time.Time) { p.LastUpdated = Millis(now) }

// Validate reports whether p carries its key.
func (p *PitRecord) Validate() error {
	if p.TeamNumber <= 0 {
		return fmt.Errorf("%w: missing teamNumber", ErrInvalidRecord)
	}
	return nil
}

// MatchRecord is one scout's observation of one robot in one match.
// ID is random; re-scouting the same match/team pair yields a new record.
type MatchRecord struct {
	ID                  string           `json:"id"`
	MatchNumber         int              `json:"matchNumber"`
	TeamNumber          int              `json:"teamNumber"`
	StartingPosition    StartingPosition `json:"startingPosition"`
	NoShow              bool             `json:"noShow"`
	AutoRole            MatchRole        `json:"autoRole"`
	AutoAccuracy        Accuracy         `json:"autoAccuracy"`
	AutoLeave           bool             `json:"autoLeave"`
	AutoClimbLevel      int              `json:"autoClimbLevel"`
	TeleopRole          MatchRole        `json:"teleopRole"`
	TeleopAccuracy      Accuracy         `json:"teleopAccuracy"`
	TeleopCollection    []string         `json:"teleopCollection"`
	ClimbLevel          int              `json:"climbLevel"`
	Died                bool             `json:"died"`
	MinorFouls          int              `json:"minorFouls"`
	MajorFouls          int              `json:"majorFouls"`
	OffensiveSkill      int              `json:"offensiveSkill"`
	DefensiveSkill      int              `json:"defensiveSkill"`
	TransitionQuickness int              `json:"transitionQuickness"`
	PrimaryZone         Zone             `json:"primaryZone"`
	Energized           bool             `json:"energized"`
	Supercharged        bool             `json:"supercharged"`
	Traversal           bool             `json:"traversal"`
	WonMatch            bool             `json:"wonMatch"`
	Comments            string           `json:"comments"`
	Timestamp           int64            `json:"timestamp"`
}

// NewMatchRecord returns a fresh observation with a new ID, stamped at now,
// carrying the form's default selections.
func NewMatchRecord(match, team int, now time.Time) MatchRecord {
	return MatchRecord{
		ID:                  NewID(),
		MatchNumber:         match,
		TeamNumber:          team,
		StartingPosition:    PositionMiddle,
		AutoRole:            RoleShooter,
		AutoAccuracy:        AccuracyNotScored,
		TeleopRole:          RoleShooter,
		TeleopAccuracy:      AccuracyNotScored,
		TeleopCollection:    []string{},
		OffensiveSkill:      3,
		DefensiveSkill:      3,
		TransitionQuickness: 3,
		PrimaryZone:         ZoneNeutral,
		Timestamp:           Millis(now),
	}
}

// Key is the logical identity used when reconciling imported records.
type Key struct {
	MatchNumber int
	TeamNumber  int
}

// Key returns the (match, team) pair of m.
func (m *MatchRecord) Key() Key { return Key{MatchNumber: m.MatchNumber, TeamNumber: m.TeamNumber} }

// Validate reports whether m carries its id and its (match, team) pair.
func (m *MatchRecord) Validate() error {
	if m.ID == "" || m.MatchNumber <= 0 || m.TeamNumber <= 0 {
		return fmt.Errorf("%w: missing id, matchNumber or teamNumber", ErrInvalidRecord)
	}
	return nil
}
