package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("meet"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors live on that registry", func() {
				So(m.namespace, ShouldEqual, "test")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				m.resultsDeleted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_meet_results_deleted_total"], ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "meet")
				So(m.subsystem, ShouldEqual, "points")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When results are recorded", func() {
			before := testutil.ToFloat64(globalManager.resultsSubmitted.WithLabelValues("relay"))
			RecordResultSubmitted("relay")
			RecordResultRejected("duplicate")
			RecordResultDeleted()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.resultsSubmitted.WithLabelValues("relay")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.resultsRejected.WithLabelValues("duplicate")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When a failed recompute is recorded", func() {
			before := testutil.ToFloat64(globalManager.recomputeFailures.WithLabelValues("submit"))
			RecordRecompute("submit", 2.5, true)
			RecordRecompute("submit", 1.0, false)

			Convey("Then only one failure is counted", func() {
				So(testutil.ToFloat64(globalManager.recomputeFailures.WithLabelValues("submit")), ShouldEqual, before+1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateCatalogTotals(12, 5, 40)
			UpdateQueueSize(3)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(2)
			UpdateWorkerActiveCount(1)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.athletesTotal), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.resultsTotal), ShouldEqual, 40)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.workerActive), ShouldEqual, 1)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordRankingWrites(4)
				RecordAggregationSkip("unknown_event")
				RecordQueueEnqueue()
				RecordQueueDequeue(1.5)
				RecordQueueCoalesced()
				RecordQueueRejected()
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordWorkerRepaired()
				RecordWorkerRequeued()
				RecordHTTPRequest("/results", "POST", "201")
				RecordHTTPRequestDuration("/results", "POST", "201", 4)
				RecordErrorByComponent("repair", "recompute")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("/results", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers without error", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
