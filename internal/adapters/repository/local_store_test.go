package repository_test

import (
	"context"
	"testing"

	"github.com/okian/scoutsync/internal/adapters/mq/queue"
	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStoreCache(t *testing.T) {
	Convey("Given a local store", t, func() {
		ctx := context.Background()
		s, err := repository.NewLocalStore(ctx, repository.MemoryPath)
		So(err, ShouldBeNil)
		defer s.Close()

		Convey("When the cache is empty", func() {
			p, m, err := s.LoadCache(ctx)

			Convey("Then LoadCache should return empty collections", func() {
				So(err, ShouldBeNil)
				So(p, ShouldBeEmpty)
				So(m, ShouldBeEmpty)
			})
		})

		Convey("When a full cache is saved", func() {
			pits := map[int]model.PitRecord{379: pit(379, 2, 100), 547: pit(547, 3, 200)}
			ms := []model.MatchRecord{match("b", 2, 379, 200), match("a", 1, 379, 100)}
			So(s.SaveCache(ctx, pits, ms), ShouldBeNil)

			Convey("Then it should load back in order", func() {
				p, m, err := s.LoadCache(ctx)
				So(err, ShouldBeNil)
				So(p, ShouldHaveLength, 2)
				So(p[547].Climb.MaxLevel, ShouldEqual, "L3")
				So(m, ShouldHaveLength, 2)
				So(m[0].ID, ShouldEqual, "b")
				So(m[1].ID, ShouldEqual, "a")
			})

			Convey("And a match is prepended", func() {
				So(s.PrependMatch(ctx, match("c", 3, 547, 300)), ShouldBeNil)

				Convey("Then it should load first", func() {
					_, m, _ := s.LoadCache(ctx)
					So(m, ShouldHaveLength, 3)
					So(m[0].ID, ShouldEqual, "c")
				})
			})

			Convey("And a smaller cache replaces it", func() {
				So(s.SaveCache(ctx, map[int]model.PitRecord{}, []model.MatchRecord{match("z", 9, 1, 1)}), ShouldBeNil)

				Convey("Then nothing from the old cache should remain", func() {
					p, m, _ := s.LoadCache(ctx)
					So(p, ShouldBeEmpty)
					So(m, ShouldHaveLength, 1)
					So(m[0].ID, ShouldEqual, "z")
				})
			})

			Convey("And a pit record is put", func() {
				So(s.PutPit(ctx, pit(379, 1, 50)), ShouldBeNil)

				Convey("Then it should overwrite unconditionally", func() {
					p, _, _ := s.LoadCache(ctx)
					So(p[379].Climb.MaxLevel, ShouldEqual, "L1")
				})
			})
		})
	})
}

func TestLocalStoreOutbox(t *testing.T) {
	Convey("Given an outbox backed by a local store file", t, func() {
		ctx := context.Background()
		path := t.TempDir() + "/client.db"
		s, err := repository.NewLocalStore(ctx, path)
		So(err, ShouldBeNil)
		q, err := queue.NewOutbox(ctx, s)
		So(err, ShouldBeNil)

		So(q.Enqueue(ctx, model.PitItem(pit(379, 2, 100))), ShouldBeNil)
		So(q.Enqueue(ctx, model.MatchItem(match("m1", 1, 379, 100))), ShouldBeNil)
		So(q.Enqueue(ctx, model.MatchItem(match("m2", 2, 379, 200))), ShouldBeNil)

		Convey("When the process restarts", func() {
			So(q.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
			s2, err := repository.NewLocalStore(ctx, path)
			So(err, ShouldBeNil)
			defer s2.Close()
			q2, err := queue.NewOutbox(ctx, s2)
			So(err, ShouldBeNil)

			Convey("Then every pending item should survive in order", func() {
				entries := q2.PeekAll(ctx)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Item.Kind, ShouldEqual, model.KindPit)
				So(entries[0].Item.Pit.TeamNumber, ShouldEqual, 379)
				So(entries[1].Item.Match.ID, ShouldEqual, "m1")
				So(entries[2].Item.Match.ID, ShouldEqual, "m2")
				So(entries[0].Seq, ShouldBeLessThan, entries[1].Seq)
			})
		})

		Convey("When entries are removed through a snapshot", func() {
			snap := q.PeekAll(ctx)
			So(q.Enqueue(ctx, model.MatchItem(match("m3", 3, 547, 300))), ShouldBeNil)
			So(q.RemoveThrough(ctx, queue.LastSeq(snap)), ShouldBeNil)

			Convey("Then only the later entry should remain on disk", func() {
				entries, err := s.Load(ctx)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Item.Match.ID, ShouldEqual, "m3")
				_ = s.Close()
			})
		})

		Convey("When the outbox is cleared", func() {
			So(q.Clear(ctx), ShouldBeNil)

			Convey("Then the table should be empty", func() {
				entries, err := s.Load(ctx)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
				_ = s.Close()
			})
		})
	})
}

func TestLocalStoreDeviceID(t *testing.T) {
	Convey("Given a local store file", t, func() {
		ctx := context.Background()
		path := t.TempDir() + "/client.db"
		s, err := repository.NewLocalStore(ctx, path)
		So(err, ShouldBeNil)

		Convey("When the device id is read twice across a restart", func() {
			first, err := s.DeviceID(ctx)
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			s2, err := repository.NewLocalStore(ctx, path)
			So(err, ShouldBeNil)
			defer s2.Close()
			second, err := s2.DeviceID(ctx)
			So(err, ShouldBeNil)

			Convey("Then it should be stable and non-empty", func() {
				So(first, ShouldNotBeEmpty)
				So(second, ShouldEqual, first)
			})
		})

		Convey("When a setting is written", func() {
			So(s.SetSetting(ctx, "server_url", "http://a"), ShouldBeNil)
			So(s.SetSetting(ctx, "server_url", "http://b"), ShouldBeNil)

			Convey("Then the latest value should be read back", func() {
				v, ok, err := s.Setting(ctx, "server_url")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "http://b")
				_ = s.Close()
			})
		})
	})
}
