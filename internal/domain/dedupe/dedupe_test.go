package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/duello/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When a new judgment id arrives", func() {
			seen := d.SeenAndRecord(ctx, "judgment-1")

			Convey("Then it is recorded as unseen", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same id again reports seen", func() {
				So(d.SeenAndRecord(ctx, "judgment-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded after a failed enqueue", func() {
			d.SeenAndRecord(ctx, "judgment-2")
			d.Unrecord(ctx, "judgment-2")

			Convey("Then it can be retried as new", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "judgment-2"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing happens", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When more ids arrive than the bound allows", func() {
			for i := 0; i < 5; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("j-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest ids are forgotten first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "j-0"), ShouldBeFalse) // evicted, so new again
				So(d.SeenAndRecord(ctx, "j-4"), ShouldBeTrue)  // still tracked
			})
		})
	})

	Convey("Given concurrent submitters", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When many goroutines race on the same ids", func() {
			const workers = 16
			const ids = 100
			firsts := make([]int, workers)
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < ids; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("j-%d", i)) {
							firsts[w]++
						}
					}
				}(w)
			}
			wg.Wait()

			Convey("Then each id is recorded exactly once", func() {
				total := 0
				for _, n := range firsts {
					total += n
				}
				So(total, ShouldEqual, ids)
				So(d.Size(), ShouldEqual, ids)
			})
		})
	})
}
