package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/app/state"
	"github.com/okian/scoutsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var errDisk = errors.New("disk full")

type failingStore struct{ *repository.LocalStore }

func (failingStore) SaveCache(context.Context, map[int]model.PitRecord, []model.MatchRecord) error {
	return errDisk
}
func (failingStore) PutPit(context.Context, model.PitRecord) error         { return errDisk }
func (failingStore) PrependMatch(context.Context, model.MatchRecord) error { return errDisk }

func localStore(t *testing.T) *repository.LocalStore {
	t.Helper()
	s, err := repository.NewLocalStore(context.Background(), repository.MemoryPath)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func pit(team int, level string, at int64) model.PitRecord {
	p := model.NewPitRecord(team)
	p.Climb.MaxLevel = level
	p.LastUpdated = at
	return p
}

func match(id string, num, team int, at int64) model.MatchRecord {
	m := model.NewMatchRecord(num, team, time.UnixMilli(at))
	m.ID = id
	return m
}

func TestCachePit(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		ctx := context.Background()
		store := localStore(t)
		c, err := state.Open(ctx, store)
		So(err, ShouldBeNil)

		Convey("When pit versions for team 547 arrive in either order", func() {
			changed1, err := c.PutPit(ctx, pit(547, "L3", 200))
			So(err, ShouldBeNil)
			changed2, err := c.PutPit(ctx, pit(547, "L2", 100))
			So(err, ShouldBeNil)

			Convey("Then the newer one should be held", func() {
				So(changed1, ShouldBeTrue)
				So(changed2, ShouldBeFalse)
				rec, ok := c.Pit(547)
				So(ok, ShouldBeTrue)
				So(rec.Climb.MaxLevel, ShouldEqual, "L3")
			})

			Convey("Then the held record should be persisted", func() {
				p, _, err := store.LoadCache(ctx)
				So(err, ShouldBeNil)
				So(p[547].Climb.MaxLevel, ShouldEqual, "L3")
			})
		})

		Convey("When the same pit record is applied twice", func() {
			_, _ = c.PutPit(ctx, pit(379, "L1", 100))
			changed, err := c.PutPit(ctx, pit(379, "L1", 100))

			Convey("Then the second apply should change nothing", func() {
				So(err, ShouldBeNil)
				So(changed, ShouldBeFalse)
				So(c.PitAll(), ShouldHaveLength, 1)
			})
		})

		Convey("When a reader mutates its copy", func() {
			_, _ = c.PutPit(ctx, pit(379, "L1", 100))
			all := c.PitAll()
			delete(all, 379)

			Convey("Then the cache should be unaffected", func() {
				_, ok := c.Pit(379)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestCacheMatches(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		ctx := context.Background()
		store := localStore(t)
		c, err := state.Open(ctx, store)
		So(err, ShouldBeNil)

		Convey("When matches are put", func() {
			_, _ = c.PutMatch(ctx, match("a", 1, 379, 100))
			_, _ = c.PutMatch(ctx, match("b", 2, 547, 200))
			dup, err := c.PutMatch(ctx, match("a", 1, 379, 100))

			Convey("Then they should be held newest first without duplicates", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				ms := c.Matches()
				So(ms, ShouldHaveLength, 2)
				So(ms[0].ID, ShouldEqual, "b")
				So(c.MatchesForTeam(379), ShouldHaveLength, 1)
				So(c.MatchesForTeam(1038), ShouldBeEmpty)
			})

			Convey("Then reopening should restore the same order", func() {
				c2, err := state.Open(ctx, store)
				So(err, ShouldBeNil)
				ms := c2.Matches()
				So(ms, ShouldHaveLength, 2)
				So(ms[0].ID, ShouldEqual, "b")
				So(ms[1].ID, ShouldEqual, "a")
			})
		})

		Convey("When records are imported", func() {
			_, _ = c.PutMatch(ctx, match("h1", 1, 379, 100))
			rep, err := c.Import(ctx, []model.MatchRecord{
				match("i1", 1, 379, 200),
				match("i2", 2, 379, 50),
				match("i3", 1, 379, 10),
			})

			Convey("Then the report and held set should reflect the rules", func() {
				So(err, ShouldBeNil)
				So(rep.Replaced, ShouldEqual, 1)
				So(rep.Added, ShouldEqual, 1)
				So(rep.Skipped, ShouldEqual, 1)
				ms := c.Matches()
				So(ms, ShouldHaveLength, 2)
				So(ms[0].ID, ShouldEqual, "i2")
				So(ms[1].ID, ShouldEqual, "i1")
			})
		})

		Convey("When a snapshot is applied over held records and pending items", func() {
			_, _ = c.PutPit(ctx, pit(379, "L3", 300))
			_, _ = c.PutPit(ctx, pit(547, "L1", 100))
			_, _ = c.PutPit(ctx, pit(254, "L1", 100))
			snap := map[int]model.PitRecord{
				379:  pit(379, "L2", 200),
				547:  pit(547, "L2", 200),
				1678: pit(1678, "L1", 50),
			}
			pending := []model.SyncItem{
				model.PitItem(pit(1678, "L3", 60)),
				model.MatchItem(match("q", 9, 1678, 60)),
			}
			So(c.ApplySnapshot(ctx, snap, []model.MatchRecord{match("s", 1, 379, 1)}, pending), ShouldBeNil)

			Convey("Then newer held records and pending items should survive the snapshot", func() {
				all := c.PitAll()
				So(all, ShouldHaveLength, 3)
				So(all[379].Climb.MaxLevel, ShouldEqual, "L3")
				So(all[547].Climb.MaxLevel, ShouldEqual, "L2")
				So(all[1678].Climb.MaxLevel, ShouldEqual, "L3")
				So(all, ShouldNotContainKey, 254)
				ms := c.Matches()
				So(ms, ShouldHaveLength, 2)
				So(ms[0].ID, ShouldEqual, "q")
				p, _, _ := store.LoadCache(ctx)
				So(p[379].Climb.MaxLevel, ShouldEqual, "L3")
			})
		})

		Convey("When the cache is replaced and then reset", func() {
			So(c.Replace(ctx, map[int]model.PitRecord{379: pit(379, "L2", 1)}, []model.MatchRecord{match("s", 1, 379, 1)}), ShouldBeNil)
			So(c.PitAll(), ShouldHaveLength, 1)
			So(c.Reset(ctx), ShouldBeNil)

			Convey("Then it should be empty in memory and on disk", func() {
				So(c.PitAll(), ShouldBeEmpty)
				So(c.Matches(), ShouldBeEmpty)
				p, m, _ := store.LoadCache(ctx)
				So(p, ShouldBeEmpty)
				So(m, ShouldBeEmpty)
			})
		})
	})
}

func TestCacheFailures(t *testing.T) {
	Convey("Given a cache whose store cannot write", t, func() {
		ctx := context.Background()
		c, err := state.Open(ctx, failingStore{localStore(t)})
		So(err, ShouldBeNil)

		Convey("When mutations are attempted", func() {
			_, errPit := c.PutPit(ctx, pit(379, "L1", 1))
			_, errMatch := c.PutMatch(ctx, match("a", 1, 379, 1))
			_, errImport := c.Import(ctx, []model.MatchRecord{match("b", 2, 379, 1)})
			errReplace := c.Replace(ctx, map[int]model.PitRecord{1: pit(1, "L1", 1)}, nil)
			errApply := c.ApplySnapshot(ctx, map[int]model.PitRecord{1: pit(1, "L1", 1)}, nil, nil)

			Convey("Then each should fail and leave memory untouched", func() {
				So(errors.Is(errPit, errDisk), ShouldBeTrue)
				So(errors.Is(errMatch, errDisk), ShouldBeTrue)
				So(errors.Is(errImport, errDisk), ShouldBeTrue)
				So(errors.Is(errReplace, errDisk), ShouldBeTrue)
				So(errors.Is(errApply, errDisk), ShouldBeTrue)
				So(c.PitAll(), ShouldBeEmpty)
				So(c.Matches(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a closed cache", t, func() {
		ctx := context.Background()
		c, err := state.Open(ctx, localStore(t))
		So(err, ShouldBeNil)
		So(c.Close(), ShouldBeNil)

		Convey("Then mutations should return ErrClosed", func() {
			_, err := c.PutPit(ctx, pit(379, "L1", 1))
			So(errors.Is(err, state.ErrClosed), ShouldBeTrue)
			So(errors.Is(c.Reset(ctx), state.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestCacheConcurrency(t *testing.T) {
	Convey("Given a cache shared by several writers", t, func() {
		ctx := context.Background()
		c, err := state.Open(ctx, localStore(t))
		So(err, ShouldBeNil)

		Convey("When they write concurrently", func() {
			var wg sync.WaitGroup
			for i := 1; i <= 8; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					_, _ = c.PutPit(ctx, pit(n, "L1", int64(n)))
					_, _ = c.PutMatch(ctx, match(model.NewID(), n, n, int64(n)))
					_, _ = c.Import(ctx, []model.MatchRecord{match(model.NewID(), 100+n, n, int64(n))})
				}(i)
			}
			wg.Wait()

			Convey("Then every write should be present", func() {
				So(c.PitAll(), ShouldHaveLength, 8)
				So(c.Matches(), ShouldHaveLength, 16)
			})
		})
	})
}
