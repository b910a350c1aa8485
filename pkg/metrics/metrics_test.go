package metrics_test

import (
	"testing"

	"github.com/okian/duello/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a manager with a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))

		Convey("Then it registers its instruments", func() {
			So(manager, ShouldNotBeNil)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			// Counters start unreported until first Inc; gauges and
			// histograms appear immediately.
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a manager with custom options", t, func() {
		registry := prometheus.NewRegistry()
		manager := metrics.NewManager(
			metrics.WithPrometheusRegistry(registry),
			metrics.WithNamespace("custom"),
			metrics.WithSubsystem("pairs"),
			metrics.WithHistogramBuckets([]float64{1, 10, 100}),
		)

		Convey("Then it is created without panicking", func() {
			So(manager, ShouldNotBeNil)
		})
	})
}

func TestPackageLevelHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording every metric once", func() {
			So(func() {
				metrics.RecordJudgmentProcessed()
				metrics.RecordJudgmentDuplicate()
				metrics.RecordJudgmentDropped()
				metrics.RecordRatingUpdate()
				metrics.RecordRatingLatency(1.5)
				metrics.RecordRatingError()
				metrics.RecordMatchRequest()
				metrics.RecordMatchUnavailable()
				metrics.UpdateQueueSize(10)
				metrics.UpdateQueueCapacity(100)
				metrics.UpdateTotalItems(5)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueEnqueueError()
				metrics.RecordQueueProcessingLatency(0.2)
				metrics.UpdateWorkerActiveCount(4)
				metrics.UpdateWorkerCount(4)
				metrics.RecordWorkerProcessingLatency(2.0)
				metrics.RecordWorkerError()
				metrics.UpdateRepositoryItemsTotal(5)
				metrics.RecordRepositoryUpdateLatency(0.4)
				metrics.RecordRepositoryQueryLatency(0.1)
				metrics.RecordHTTPRequest("standings", "GET", "200")
				metrics.RecordHTTPRequestDuration("standings", "GET", "200", 3.2)
				metrics.RecordErrorByComponent("queue", "capacity_exceeded")
				metrics.RecordErrorByType("rating_error", "high")
				metrics.RecordErrorByEndpoint("judgments", "POST", "client_error")
				metrics.RecordErrorLatency("http", "client_error", 1.0)
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(42)
				metrics.RecordSystemGCPauseTime(0.05)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the served registry", func() {
			families, err := metrics.GetRegistry().Gather()

			Convey("Then the core judgment metrics are present", func() {
				So(err, ShouldBeNil)

				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["duello_ranking_judgments_processed_total"], ShouldBeTrue)
				So(names["duello_ranking_rating_updates_total"], ShouldBeTrue)
				So(names["duello_ranking_match_requests_total"], ShouldBeTrue)
				So(names["duello_ranking_queue_size"], ShouldBeTrue)
			})
		})
	})
}
