package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/scoutsync/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	Convey("Given a new deduper", t, func() {
		ctx := context.Background()
		d := dedupe.New()

		So(d.Size(), ShouldEqual, 0)

		Convey("When a payload is seen for the first time", func() {
			seen := d.SeenAndRecord(ctx, "M1\t12\t379")

			Convey("Then it should be reported new and recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And it is seen again", func() {
				again := d.SeenAndRecord(ctx, "M1\t12\t379")

				Convey("Then it should be reported as a duplicate", func() {
					So(again, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And it is unrecorded", func() {
				d.Unrecord(ctx, "M1\t12\t379")

				Convey("Then the next scan should be treated as new", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(ctx, "M1\t12\t379"), ShouldBeFalse)
				})
			})
		})

		Convey("When unrecording an unknown payload", func() {
			d.SeenAndRecord(ctx, "a")
			d.Unrecord(ctx, "b")

			Convey("Then nothing should change", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When payloads differ only slightly", func() {
			So(d.SeenAndRecord(ctx, "B1\nx"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "B1\nx\n"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestBoundedDeduper(t *testing.T) {
	Convey("Given a deduper bounded to three payloads", t, func() {
		ctx := context.Background()
		d := dedupe.New(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("p%d", i))
		}

		Convey("When a fourth payload arrives", func() {
			d.SeenAndRecord(ctx, "p4")

			Convey("Then the oldest should be forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "p4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "p3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "p1"), ShouldBeFalse)
			})
		})

		Convey("When a middle payload is unrecorded first", func() {
			d.Unrecord(ctx, "p2")
			d.SeenAndRecord(ctx, "p4")

			Convey("Then nothing should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "p1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.New(dedupe.WithMaxSize(0))

		Convey("When many payloads are recorded", func() {
			for i := 0; i < 20000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("p%d", i))
			}

			Convey("Then none should be evicted", func() {
				So(d.Size(), ShouldEqual, 20000)
				So(d.SeenAndRecord(ctx, "p0"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentScans(t *testing.T) {
	Convey("Given several scanners sharing one deduper", t, func() {
		ctx := context.Background()
		d := dedupe.New()
		payload := "B1\n" + strings.Repeat("1\t379\t", 12)

		Convey("When they all report the same payload", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, payload) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should win", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
