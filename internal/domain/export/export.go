// Package export writes pit and match records as CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/scoutsync/internal/domain/model"
)

var pitHeader = []string{
	"Team#", "L", "W", "H", "Weight", "RoleAssessed", "Archetype", "ShooterConfig", "Batteries",
	"DriveType", "Motors", "Ratio", "Exp", "Ground", "Outpost", "Depot", "Corral", "Capacity",
	"Preload", "Bump", "Trench", "ShootOnMove", "Feed", "Rate", "Trajectory", "Extensions",
	"AutoAlign", "ClimbLvl", "AutoClimb", "ClimbTime", "Notes", "LastUpdated",
}

var matchHeader = []string{
	"Match#", "Team#", "NoShow", "StartPos", "AutoRole", "AutoAcc", "AutoLeave", "AutoClimb",
	"TeleRole", "TeleAcc", "TeleCollection", "EndClimb", "Died", "MinorFouls", "MajorFouls",
	"OffenseSkill", "DefenseSkill", "TransitionSpeed", "PrimaryZone", "Energized", "Supercharged",
	"Traversal", "WonMatch", "Comments", "Timestamp",
}

// WritePit writes one row per team ordered by team number.
func WritePit(w io.Writer, recs []model.PitRecord) error {
	sorted := make([]model.PitRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TeamNumber < sorted[j].TeamNumber })

	rows := make([][]string, 0, len(sorted))
	for i := range sorted {
		rows = append(rows, pitRow(&sorted[i]))
	}
	return write(w, pitHeader, rows)
}

// WriteMatches writes one row per observation ordered by match then team.
func WriteMatches(w io.Writer, recs []model.MatchRecord) error {
	sorted := make([]model.MatchRecord, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MatchNumber != sorted[j].MatchNumber {
			return sorted[i].MatchNumber < sorted[j].MatchNumber
		}
		return sorted[i].TeamNumber < sorted[j].TeamNumber
	})

	rows := make([][]string, 0, len(sorted))
	for i := range sorted {
		rows = append(rows, matchRow(&sorted[i]))
	}
	return write(w, matchHeader, rows)
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func pitRow(d *model.PitRecord) []string {
	return []string{
		strconv.Itoa(d.TeamNumber),
		d.Dimensions.Length, d.Dimensions.Width, d.Dimensions.Height,
		d.Weight, d.SelfAssessedRole, d.Archetype, d.ShooterCountType, d.NumBatteries,
		d.Drivetrain.Type, d.Drivetrain.Motors, d.Drivetrain.SwerveRatio, d.DriverExperience,
		yes(d.Pickups.Ground), yes(d.Pickups.Outpost), yes(d.Pickups.Depot), yes(d.CanCorralDrop),
		d.GamePieceCap, d.MaxPreload,
		yes(d.Obstacles.CrossBump), yes(d.Obstacles.CrossTrench),
		yes(d.Scoring.ShootOnMove), yes(d.Scoring.CanFeed), d.Scoring.ScoringRate,
		yes(d.Scoring.ChangeTrajectory), yes(d.Extensions), yes(d.Scoring.AutoAlign),
		d.Climb.MaxLevel, yes(d.Climb.CanAutoClimb), d.Climb.ClimbTime,
		d.Comments,
		strconv.FormatInt(d.LastUpdated, 10),
	}
}

func matchRow(d *model.MatchRecord) []string {
	return []string{
		strconv.Itoa(d.MatchNumber), strconv.Itoa(d.TeamNumber), yes(d.NoShow),
		string(d.StartingPosition), string(d.AutoRole), string(d.AutoAccuracy), yes(d.AutoLeave),
		strconv.Itoa(d.AutoClimbLevel), string(d.TeleopRole), string(d.TeleopAccuracy),
		strings.Join(d.TeleopCollection, "|"), strconv.Itoa(d.ClimbLevel), yes(d.Died),
		strconv.Itoa(d.MinorFouls), strconv.Itoa(d.MajorFouls),
		strconv.Itoa(d.OffensiveSkill), strconv.Itoa(d.DefensiveSkill), strconv.Itoa(d.TransitionQuickness),
		string(d.PrimaryZone), yes(d.Energized), yes(d.Supercharged), yes(d.Traversal), yes(d.WonMatch),
		d.Comments,
		strconv.FormatInt(d.Timestamp, 10),
	}
}

func yes(b bool) string { return strconv.FormatBool(b) }
