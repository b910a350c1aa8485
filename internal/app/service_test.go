package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/duello/internal/app"
	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithMatchSeed(7),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_AddItem(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When adding an item", func() {
			item, err := svc.AddItem(ctx, "logo-draft-1")

			Convey("Then it gets an id and a fresh rating state", func() {
				So(err, ShouldBeNil)
				So(item.ID, ShouldNotBeEmpty)
				So(item.Name, ShouldEqual, "logo-draft-1")
				So(item.State.Rating, ShouldEqual, 1500)
				So(item.State.Deviation, ShouldEqual, 350)
				So(item.MatchCount, ShouldEqual, 0)
			})

			Convey("And it can be fetched and removed again", func() {
				So(err, ShouldBeNil)
				got, getErr := svc.GetItem(ctx, item.ID)
				So(getErr, ShouldBeNil)
				So(got.Name, ShouldEqual, "logo-draft-1")

				So(svc.RemoveItem(ctx, item.ID), ShouldBeNil)
				_, getErr = svc.GetItem(ctx, item.ID)
				So(getErr, ShouldNotBeNil)
			})
		})

		Convey("When adding an item without a name", func() {
			_, err := svc.AddItem(ctx, "")

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrEmptyName), ShouldBeTrue)
			})
		})
	})
}

func TestService_NextMatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithMatchSeed(11))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the pool has fewer than two items", func() {
			_, err := svc.NextMatch(ctx)

			Convey("Then no match is available", func() {
				So(errors.Is(err, service.ErrNotEnoughItems), ShouldBeTrue)
			})
		})

		Convey("When the pool has two items", func() {
			a, err := svc.AddItem(ctx, "a")
			So(err, ShouldBeNil)
			b, err := svc.AddItem(ctx, "b")
			So(err, ShouldBeNil)

			match, err := svc.NextMatch(ctx)

			Convey("Then the pair covers both items", func() {
				So(err, ShouldBeNil)
				So(match.ItemA, ShouldNotEqual, match.ItemB)
				So(match.ItemA, ShouldBeIn, a.ID, b.ID)
				So(match.ItemB, ShouldBeIn, a.ID, b.ID)
			})
		})
	})
}

func TestService_SubmitJudgment(t *testing.T) {
	Convey("Given a started service with two items", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		a, err := svc.AddItem(ctx, "a")
		So(err, ShouldBeNil)
		b, err := svc.AddItem(ctx, "b")
		So(err, ShouldBeNil)

		Convey("When submitting a valid judgment", func() {
			dup, err := svc.SubmitJudgment(ctx, model.Judgment{
				JudgmentID: "j-1",
				ItemA:      a.ID,
				ItemB:      b.ID,
				Score:      1,
			})

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})

			Convey("And resubmitting the same id is reported as duplicate", func() {
				So(err, ShouldBeNil)
				dup, err := svc.SubmitJudgment(ctx, model.Judgment{
					JudgmentID: "j-1",
					ItemA:      a.ID,
					ItemB:      b.ID,
					Score:      1,
				})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When submitting malformed judgments", func() {
			cases := []model.Judgment{
				{JudgmentID: "", ItemA: a.ID, ItemB: b.ID, Score: 1},
				{JudgmentID: "j-x", ItemA: "", ItemB: b.ID, Score: 1},
				{JudgmentID: "j-x", ItemA: a.ID, ItemB: a.ID, Score: 1},
				{JudgmentID: "j-x", ItemA: a.ID, ItemB: b.ID, Score: 0.3},
			}

			Convey("Then each is rejected as invalid", func() {
				for _, j := range cases {
					_, err := svc.SubmitJudgment(ctx, j)
					So(errors.Is(err, service.ErrInvalidJudgment), ShouldBeTrue)
				}
			})
		})
	})
}

func TestService_ExportImport(t *testing.T) {
	Convey("Given a started service with items", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.AddItem(ctx, "a")
		So(err, ShouldBeNil)
		_, err = svc.AddItem(ctx, "b")
		So(err, ShouldBeNil)

		Convey("When exporting and re-importing the pool", func() {
			snapshot := svc.Export(ctx)
			So(len(snapshot), ShouldEqual, 2)

			err := svc.Import(ctx, snapshot)

			Convey("Then the pool round-trips", func() {
				So(err, ShouldBeNil)
				So(len(svc.Export(ctx)), ShouldEqual, 2)
			})
		})

		Convey("When importing a snapshot with a broken rating state", func() {
			snapshot := svc.Export(ctx)
			snapshot[0].State.Deviation = -1

			err := svc.Import(ctx, snapshot)

			Convey("Then the import is rejected and the pool is unchanged", func() {
				So(err, ShouldNotBeNil)
				So(len(svc.Export(ctx)), ShouldEqual, 2)
			})
		})
	})
}
