package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	repository "github.com/okian/duello/internal/adapters/repository"
	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func newItem(id, name string, r float64) model.Item {
	return model.Item{
		ID:        id,
		Name:      name,
		State:     rating.State{Rating: r, Deviation: rating.DefaultDeviation, Volatility: rating.DefaultVolatility},
		CreatedAt: time.Now(),
	}
}

func TestTreapStoreCRUD(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer store.Close()

		Convey("When an item is added", func() {
			err := store.Add(ctx, newItem("a", "alpha", 1500))

			Convey("Then it can be fetched back", func() {
				So(err, ShouldBeNil)
				item, getErr := store.Get(ctx, "a")
				So(getErr, ShouldBeNil)
				So(item.Name, ShouldEqual, "alpha")
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And adding the same id again fails", func() {
				So(errors.Is(store.Add(ctx, newItem("a", "copy", 1500)), repository.ErrDuplicateID), ShouldBeTrue)
			})

			Convey("And removing it empties the pool", func() {
				So(store.Remove(ctx, "a"), ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 0)
				_, getErr := store.Get(ctx, "a")
				So(errors.Is(getErr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an unknown item is removed", func() {
			err := store.Remove(ctx, "ghost")

			Convey("Then the error is not-found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the pool is replaced wholesale", func() {
			items := []model.Item{
				newItem("x", "ex", 1600),
				newItem("y", "why", 1400),
			}
			err := store.Replace(ctx, items)

			Convey("Then only the imported items remain", func() {
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 2)
				top, sErr := store.Standings(ctx, 10)
				So(sErr, ShouldBeNil)
				So(top[0].ItemID, ShouldEqual, "x")
			})
		})

		Convey("When an import carries a broken state", func() {
			bad := newItem("z", "zed", 1500)
			bad.State.Deviation = 0
			err := store.Replace(ctx, []model.Item{bad})

			Convey("Then the import is rejected", func() {
				So(errors.Is(err, rating.ErrInvalidState), ShouldBeTrue)
			})
		})
	})
}

func TestTreapStoreStandings(t *testing.T) {
	Convey("Given a pool with distinct ratings", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer store.Close()

		So(store.Add(ctx, newItem("mid", "mid", 1500)), ShouldBeNil)
		So(store.Add(ctx, newItem("top", "top", 1800)), ShouldBeNil)
		So(store.Add(ctx, newItem("low", "low", 1200)), ShouldBeNil)

		Convey("When the standings are read", func() {
			entries, err := store.Standings(ctx, 10)

			Convey("Then they are ordered by rating descending with ranks assigned", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].ItemID, ShouldEqual, "top")
				So(entries[1].ItemID, ShouldEqual, "mid")
				So(entries[2].ItemID, ShouldEqual, "low")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When a limit smaller than the pool is used", func() {
			entries, err := store.Standings(ctx, 2)

			Convey("Then only that many rows return", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := store.Standings(ctx, 0)

			Convey("Then the error is invalid-limit", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When a single rank is queried", func() {
			entry, err := store.RankOf(ctx, "mid")

			Convey("Then its position matches the standings", func() {
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.Rating, ShouldEqual, 1500)
			})
		})

		Convey("When ties exist", func() {
			So(store.Add(ctx, newItem("mid2", "mid2", 1500)), ShouldBeNil)
			entries, err := store.Standings(ctx, 10)

			Convey("Then tied items order by id for determinism", func() {
				So(err, ShouldBeNil)
				So(entries[1].ItemID, ShouldEqual, "mid")
				So(entries[2].ItemID, ShouldEqual, "mid2")
			})
		})
	})
}

func TestTreapStoreApplyJudgment(t *testing.T) {
	Convey("Given two fresh items", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer store.Close()

		So(store.Add(ctx, newItem("a", "alpha", 1500)), ShouldBeNil)
		So(store.Add(ctx, newItem("b", "beta", 1500)), ShouldBeNil)

		Convey("When A beats B", func() {
			err := store.ApplyJudgment(ctx, "a", "b", rating.Win)

			Convey("Then both states move off the default symmetrically", func() {
				So(err, ShouldBeNil)
				a, _ := store.Get(ctx, "a")
				b, _ := store.Get(ctx, "b")
				So(a.State.Rating, ShouldBeGreaterThan, rating.DefaultRating)
				So(b.State.Rating, ShouldBeLessThan, rating.DefaultRating)
				So(a.State.Rating-rating.DefaultRating, ShouldAlmostEqual, rating.DefaultRating-b.State.Rating, 1e-9)
			})

			Convey("And both match counts advance", func() {
				a, _ := store.Get(ctx, "a")
				b, _ := store.Get(ctx, "b")
				So(a.MatchCount, ShouldEqual, 1)
				So(b.MatchCount, ShouldEqual, 1)
			})

			Convey("And the standings reorder accordingly", func() {
				entries, sErr := store.Standings(ctx, 2)
				So(sErr, ShouldBeNil)
				So(entries[0].ItemID, ShouldEqual, "a")
				So(entries[1].ItemID, ShouldEqual, "b")
			})
		})

		Convey("When a judgment names a missing item", func() {
			err := store.ApplyJudgment(ctx, "a", "ghost", rating.Win)

			Convey("Then nothing changes", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				a, _ := store.Get(ctx, "a")
				So(a.State.Rating, ShouldEqual, rating.DefaultRating)
				So(a.MatchCount, ShouldEqual, 0)
			})
		})

		Convey("When a judgment names the same item twice", func() {
			err := store.ApplyJudgment(ctx, "a", "a", rating.Draw)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrSelfPair), ShouldBeTrue)
			})
		})

		Convey("When the score is invalid", func() {
			err := store.ApplyJudgment(ctx, "a", "b", rating.Score(0.7))

			Convey("Then the engine error surfaces", func() {
				So(errors.Is(err, rating.ErrInvalidScore), ShouldBeTrue)
			})
		})
	})
}

func TestTreapStoreManyItems(t *testing.T) {
	Convey("Given a larger pool", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer store.Close()

		for i := 0; i < 200; i++ {
			item := newItem(fmt.Sprintf("item-%03d", i), fmt.Sprintf("name-%03d", i), 1000+float64(i)*5)
			So(store.Add(ctx, item), ShouldBeNil)
		}

		Convey("When the top ten is requested", func() {
			entries, err := store.Standings(ctx, 10)

			Convey("Then the highest ratings come back in order", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 10)
				So(entries[0].ItemID, ShouldEqual, "item-199")
				for i := 1; i < len(entries); i++ {
					So(entries[i].Rating, ShouldBeLessThan, entries[i-1].Rating)
				}
			})
		})

		Convey("When every rank is queried", func() {
			Convey("Then ranks are a permutation of 1..n", func() {
				seen := make(map[int]bool, 200)
				for i := 0; i < 200; i++ {
					entry, err := store.RankOf(ctx, fmt.Sprintf("item-%03d", i))
					So(err, ShouldBeNil)
					So(seen[entry.Rank], ShouldBeFalse)
					seen[entry.Rank] = true
				}
				So(len(seen), ShouldEqual, 200)
			})
		})
	})
}
