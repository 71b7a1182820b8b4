package model

// MatchRole is the role a robot played during a match phase.
type MatchRole string

// Match roles.
const (
	RoleShooter MatchRole = "Shooter"
	RoleFeeder  MatchRole = "Feeder"
	RoleDefense MatchRole = "Defense"
)

// AllRoles lists every MatchRole.
func AllRoles() []MatchRole { return []MatchRole{RoleShooter, RoleFeeder, RoleDefense} }

// Valid reports whether r is a known role.
func (r MatchRole) Valid() bool { return contains(AllRoles(), r) }

// Accuracy is a bucketed shot accuracy.
type Accuracy string

// Accuracy buckets.
const (
	AccuracyBelow50   Accuracy = "<50%"
	Accuracy50To80    Accuracy = "50-80%"
	AccuracyAbove80   Accuracy = ">80%"
	AccuracyNotScored Accuracy = "N/A"
)

// AllAccuracies lists every Accuracy.
func AllAccuracies() []Accuracy {
	return []Accuracy{AccuracyBelow50, Accuracy50To80, AccuracyAbove80, AccuracyNotScored}
}

// Valid reports whether a is a known accuracy bucket.
func (a Accuracy) Valid() bool { return contains(AllAccuracies(), a) }

// StartingPosition is where the robot was placed before auto.
type StartingPosition string

// Starting positions.
const (
	PositionOutpost StartingPosition = "Outpost"
	PositionMiddle  StartingPosition = "Middle"
	PositionDepot   StartingPosition = "Depot"
)

// AllPositions lists every StartingPosition.
func AllPositions() []StartingPosition {
	return []StartingPosition{PositionOutpost, PositionMiddle, PositionDepot}
}

// Valid reports whether p is a known starting position.
func (p StartingPosition) Valid() bool { return contains(AllPositions(), p) }

// Zone is the field zone a robot spent most of teleop in.
type Zone string

// Zones.
const (
	ZoneShootingAlliance  Zone = "Shooting Alliance"
	ZoneNeutral           Zone = "Neutral"
	ZoneDefensiveAlliance Zone = "Defensive Alliance"
)

// AllZones lists every Zone.
func AllZones() []Zone { return []Zone{ZoneShootingAlliance, ZoneNeutral, ZoneDefensiveAlliance} }

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool { return contains(AllZones(), z) }

// Pit profile selections. These are free strings on the wire; the lists only
// drive form choices and CSV exports.
const (
	ShooterSingle = "Single"
	ShooterMulti  = "Multi"
	NotApplicable = "N/A"
)

var (
	DrivetrainTypes   = []string{"Swerve", "Tank", "Mecanum", "Other"}
	MotorTypes        = []string{"Kraken", "Falcon", "NEO", "CIM", "Other"}
	Archetypes        = []string{"Turret", "Stationary", "Other"}
	ClimbCapabilities = []string{"Auto L1", "L1", "L2", "L3"}
	ClimbLevels       = []string{"None", "L1", "L2", "L3"}
)

func contains[T comparable](all []T, v T) bool {
	for _, x := range all {
		if x == v {
			return true
		}
	}
	return false
}
