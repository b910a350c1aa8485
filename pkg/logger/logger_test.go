package logger_test

import (
	"context"
	"testing"

	"github.com/okian/duello/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When the global logger is fetched", func() {
			l := logger.Get()

			Convey("Then it logs at every level without panicking", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", logger.String("k", "v"))
					l.Info(ctx, "info message", logger.Int("count", 3))
					l.Warn(ctx, "warn message", logger.Float64("ratio", 0.5))
					l.Error(ctx, "error message", logger.Any("payload", []int{1, 2}))
				}, ShouldNotPanic)
			})

			Convey("And a named child logger still works", func() {
				So(func() {
					logger.Named("child").Info(context.Background(), "hello")
				}, ShouldNotPanic)
			})
		})

		Convey("When the level is set from a string", func() {
			Convey("Then known levels parse", func() {
				for _, lvl := range []string{"debug", "info", "WARN", "warning", "error", ""} {
					So(logger.SetLevelString(lvl), ShouldBeNil)
				}
			})

			Convey("And unknown levels are rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})

		Convey("When Sync is called", func() {
			So(logger.Sync(), ShouldBeNil)
		})
	})
}
