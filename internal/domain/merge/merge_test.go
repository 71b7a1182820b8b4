package merge_test

import (
	"testing"

	"github.com/okian/scoutsync/internal/domain/merge"
	"github.com/okian/scoutsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func pit(team int, climb string, at int64) model.PitRecord {
	p := model.NewPitRecord(team)
	p.Climb.MaxLevel = climb
	p.LastUpdated = at
	return p
}

func match(id string, matchNo, team int, ts int64) model.MatchRecord {
	return model.MatchRecord{ID: id, MatchNumber: matchNo, TeamNumber: team, Timestamp: ts}
}

func TestPitLastWriterWins(t *testing.T) {
	Convey("Given two edits of team 547", t, func() {
		older := pit(547, "L2", 100)
		newer := pit(547, "L3", 200)

		Convey("When applied in either order", func() {
			a := map[int]model.PitRecord{}
			merge.MergePit(a, older)
			merge.MergePit(a, newer)

			b := map[int]model.PitRecord{}
			merge.MergePit(b, newer)
			changed := merge.MergePit(b, older)

			Convey("Then both should converge on the newer record", func() {
				So(a[547].Climb.MaxLevel, ShouldEqual, "L3")
				So(b[547].Climb.MaxLevel, ShouldEqual, "L3")
				So(changed, ShouldBeFalse)
			})
		})

		Convey("When the same record is applied twice", func() {
			m := map[int]model.PitRecord{}
			first := merge.MergePit(m, older)
			second := merge.MergePit(m, older)

			Convey("Then the second application should be a no-op", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(m, ShouldHaveLength, 1)
			})
		})

		Convey("When timestamps tie", func() {
			m := map[int]model.PitRecord{547: older}
			tie := pit(547, "L1", 100)

			Convey("Then the held record should be kept", func() {
				So(merge.PitWins(&tie, &older), ShouldBeFalse)
				So(merge.MergePit(m, tie), ShouldBeFalse)
				So(m[547].Climb.MaxLevel, ShouldEqual, "L2")
			})
		})

		Convey("When nothing is held", func() {
			So(merge.PitWins(&older, nil), ShouldBeTrue)
		})
	})
}

func TestInsertIfAbsent(t *testing.T) {
	Convey("Given a held match set", t, func() {
		held := []model.MatchRecord{match("a", 1, 379, 10)}

		Convey("When inserting a record with a held id", func() {
			out, ok := merge.InsertIfAbsent(held, match("a", 9, 9, 99))

			Convey("Then nothing should change", func() {
				So(ok, ShouldBeFalse)
				So(out, ShouldHaveLength, 1)
				So(out[0].MatchNumber, ShouldEqual, 1)
			})
		})

		Convey("When inserting a new id for the same match and team", func() {
			out, ok := merge.InsertIfAbsent(held, match("b", 1, 379, 5))

			Convey("Then both observations should be kept", func() {
				So(ok, ShouldBeTrue)
				So(out, ShouldHaveLength, 2)
			})
		})
	})
}

func TestPrependIfAbsent(t *testing.T) {
	Convey("Given a newest-first match set", t, func() {
		held := []model.MatchRecord{match("b", 2, 379, 20), match("a", 1, 379, 10)}

		Convey("When prepending a new id", func() {
			out, ok := merge.PrependIfAbsent(held, match("c", 3, 379, 30))

			Convey("Then it should lead and held should be untouched", func() {
				So(ok, ShouldBeTrue)
				So(out, ShouldHaveLength, 3)
				So(out[0].ID, ShouldEqual, "c")
				So(held[0].ID, ShouldEqual, "b")
			})
		})

		Convey("When prepending a held id", func() {
			out, ok := merge.PrependIfAbsent(held, match("a", 1, 379, 10))

			Convey("Then nothing should change", func() {
				So(ok, ShouldBeFalse)
				So(out, ShouldHaveLength, 2)
			})
		})
	})
}

func TestImportMatches(t *testing.T) {
	Convey("Given a held match set", t, func() {
		held := []model.MatchRecord{
			match("h1", 1, 379, 100),
			match("h2", 2, 547, 100),
		}

		Convey("When importing new, newer and stale records", func() {
			incoming := []model.MatchRecord{
				match("n1", 3, 1038, 50),
				match("n2", 1, 379, 200),
				match("n3", 2, 547, 100),
				match("n4", 4, 379, 60),
			}
			out, rep := merge.ImportMatches(held, incoming)

			Convey("Then the report should count each outcome", func() {
				So(rep.Added, ShouldEqual, 2)
				So(rep.Replaced, ShouldEqual, 1)
				So(rep.Skipped, ShouldEqual, 1)
				So(rep.Imported(), ShouldEqual, 3)
				So(rep.Accepted, ShouldHaveLength, 3)
				So(rep.Accepted[1].ID, ShouldEqual, "n2")
			})

			Convey("Then new pairs should be prepended newest-import first", func() {
				So(out, ShouldHaveLength, 4)
				So(out[0].ID, ShouldEqual, "n4")
				So(out[1].ID, ShouldEqual, "n1")
				So(out[2].ID, ShouldEqual, "n2")
				So(out[3].ID, ShouldEqual, "h2")
			})

			Convey("Then the held slice should be untouched", func() {
				So(held[0].ID, ShouldEqual, "h1")
			})
		})

		Convey("When the same pair appears twice in one import", func() {
			out, rep := merge.ImportMatches(nil, []model.MatchRecord{
				match("x", 7, 379, 10),
				match("y", 7, 379, 20),
				match("z", 7, 379, 15),
			})

			Convey("Then only the newest should be held", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].ID, ShouldEqual, "y")
				So(rep.Added, ShouldEqual, 1)
				So(rep.Replaced, ShouldEqual, 1)
				So(rep.Skipped, ShouldEqual, 1)
			})
		})

		Convey("When importing nothing", func() {
			out, rep := merge.ImportMatches(held, nil)

			Convey("Then the held set should be returned as is", func() {
				So(out, ShouldResemble, held)
				So(rep.Imported(), ShouldEqual, 0)
			})
		})
	})
}
