package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatchRecord(t *testing.T) {
	convey.Convey("Given a fixed clock", t, func() {
		now := time.UnixMilli(1_700_000_000_000)

		convey.Convey("When creating a new match record", func() {
			m := model.NewMatchRecord(12, 379, now)

			convey.Convey("Then it should carry a fresh id, the key and form defaults", func() {
				convey.So(m.ID, convey.ShouldNotBeEmpty)
				convey.So(m.Key(), convey.ShouldResemble, model.Key{MatchNumber: 12, TeamNumber: 379})
				convey.So(m.Timestamp, convey.ShouldEqual, int64(1_700_000_000_000))
				convey.So(m.StartingPosition, convey.ShouldEqual, model.PositionMiddle)
				convey.So(m.AutoAccuracy, convey.ShouldEqual, model.AccuracyNotScored)
				convey.So(m.TransitionQuickness, convey.ShouldEqual, 3)
			})

			convey.Convey("Then two records for the same pair should have distinct ids", func() {
				other := model.NewMatchRecord(12, 379, now)
				convey.So(other.ID, convey.ShouldNotEqual, m.ID)
			})
		})
	})
}

func TestPitRecord(t *testing.T) {
	convey.Convey("Given a new pit record", t, func() {
		p := model.NewPitRecord(547)

		convey.So(p.TeamNumber, convey.ShouldEqual, 547)
		convey.So(p.LastUpdated, convey.ShouldEqual, int64(0))
		convey.So(p.Climb.MaxLevel, convey.ShouldEqual, "None")

		convey.Convey("When touching it", func() {
			p.Touch(time.UnixMilli(200))

			convey.Convey("Then lastUpdated should be the save time", func() {
				convey.So(p.LastUpdated, convey.ShouldEqual, int64(200))
			})
		})

		convey.Convey("When marshalling to JSON", func() {
			p.Climb.MaxLevel = "L3"
			raw, err := json.Marshal(p)

			convey.Convey("Then the wire names should be used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldContainSubstring, `"teamNumber":547`)
				convey.So(string(raw), convey.ShouldContainSubstring, `"lastUpdated":0`)
				convey.So(string(raw), convey.ShouldContainSubstring, `"maxLevel":"L3"`)
			})
		})
	})
}

func TestSyncItem(t *testing.T) {
	convey.Convey("Given sync items", t, func() {
		convey.Convey("When decoding a match item", func() {
			var it model.SyncItem
			err := json.Unmarshal([]byte(`{"type":"match","data":{"id":"a","matchNumber":3,"teamNumber":379,"timestamp":5}}`), &it)

			convey.Convey("Then the match payload should be populated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(it.Kind, convey.ShouldEqual, model.KindMatch)
				convey.So(it.Pit, convey.ShouldBeNil)
				convey.So(it.Match.ID, convey.ShouldEqual, "a")
				convey.So(it.Match.Timestamp, convey.ShouldEqual, int64(5))
			})
		})

		convey.Convey("When encoding a pit item", func() {
			p := model.NewPitRecord(379)
			p.LastUpdated = 10
			raw, err := json.Marshal(model.PitItem(p))

			convey.Convey("Then it should be tagged with its kind", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldStartWith, `{"type":"pit","data":{"teamNumber":379`)
			})
		})

		convey.Convey("When decoding an unknown type", func() {
			var it model.SyncItem
			err := json.Unmarshal([]byte(`{"type":"robot","data":{}}`), &it)

			convey.Convey("Then it should fail with ErrUnknownKind", func() {
				convey.So(errors.Is(err, model.ErrUnknownKind), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When encoding an item without payload", func() {
			_, err := json.Marshal(model.SyncItem{Kind: model.KindMatch})

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestEnums(t *testing.T) {
	convey.Convey("Given the enumerations", t, func() {
		convey.So(model.RoleFeeder.Valid(), convey.ShouldBeTrue)
		convey.So(model.MatchRole("Goalie").Valid(), convey.ShouldBeFalse)
		convey.So(model.Accuracy50To80.Valid(), convey.ShouldBeTrue)
		convey.So(model.Accuracy("90%").Valid(), convey.ShouldBeFalse)
		convey.So(model.PositionDepot.Valid(), convey.ShouldBeTrue)
		convey.So(model.ZoneDefensiveAlliance.Valid(), convey.ShouldBeTrue)
		convey.So(model.Zone("").Valid(), convey.ShouldBeFalse)
	})
}

func TestTeams(t *testing.T) {
	convey.Convey("Given the event roster", t, func() {
		teams := model.Teams()

		convey.Convey("Then it should be sorted with one entry per team", func() {
			seen := map[int]bool{}
			for i, tm := range teams {
				convey.So(seen[tm.Number], convey.ShouldBeFalse)
				seen[tm.Number] = true
				if i > 0 {
					convey.So(teams[i-1].Number, convey.ShouldBeLessThan, tm.Number)
				}
			}
			convey.So(teams[0].Number, convey.ShouldEqual, 379)
		})

		convey.Convey("Then lookup should find known teams only", func() {
			tm, ok := model.LookupTeam(547)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(tm.Name, convey.ShouldEqual, "Falcon Engineering And Robotics")

			_, ok = model.LookupTeam(1)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given records a server would store or refuse", t, func() {
		good := model.NewMatchRecord(12, 379, time.UnixMilli(1))

		convey.Convey("When a match record lacks its match number, team or id", func() {
			noMatch := good
			noMatch.MatchNumber = 0
			noTeam := good
			noTeam.TeamNumber = -1
			noID := good
			noID.ID = ""

			convey.Convey("Then each should fail with ErrInvalidRecord", func() {
				convey.So(good.Validate(), convey.ShouldBeNil)
				convey.So(errors.Is(noMatch.Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(errors.Is(noTeam.Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(errors.Is(noID.Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When items wrap those records", func() {
			bad := good
			bad.MatchNumber = 0
			pit := model.NewPitRecord(0)

			convey.Convey("Then the item rules should follow the record rules", func() {
				convey.So(model.MatchItem(good).Validate(), convey.ShouldBeNil)
				convey.So(model.PitItem(model.NewPitRecord(547)).Validate(), convey.ShouldBeNil)
				convey.So(errors.Is(model.MatchItem(bad).Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(errors.Is(model.PitItem(pit).Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(errors.Is(model.SyncItem{Kind: model.KindMatch}.Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(errors.Is(model.SyncItem{Kind: "bogus"}.Validate(), model.ErrUnknownKind), convey.ShouldBeTrue)
			})
		})
	})
}
