package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerOptions(t *testing.T) {
	Convey("Given a metrics manager built on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("suite"),
			WithHistogramBuckets([]float64{1, 5, 10}),
			WithRefreshInterval(5*time.Second),
			WithMetricsEnabled(true),
			WithCustomLabels(map[string]string{"env": "test"}),
		)

		Convey("Then the options should be applied", func() {
			So(m, ShouldNotBeNil)
			So(m.namespace, ShouldEqual, "test")
			So(m.subsystem, ShouldEqual, "suite")
			So(m.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
			So(m.refreshInterval, ShouldEqual, 5*time.Second)
			So(m.enabled, ShouldBeTrue)
			So(m.customLabels["env"], ShouldEqual, "test")
		})

		Convey("Then all metrics should be registered without panicking", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeNil)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording domain metrics", func() {
			So(func() {
				RecordSessionStarted()
				RecordSessionCompleted()
				RecordSessionCancelled()
				UpdateActiveSessions(3)
				RecordAnswerSubmitted()
				RecordChunkProcessed("audio")
				RecordChunkDropped("unknown_session")
				RecordAnalysisLatency(12.5)
				RecordFeedbackEmitted()
				RecordFeedbackThrottled()
				UpdateOpenConnections(1)
				RecordEvaluatorLatency(80)
				RecordEvaluatorError()
				RecordEvaluatorFallback()
				UpdateQueueSize(7)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("sessions", "POST", "201")
				RecordHTTPRequestDuration("sessions", "POST", "201", 2.0)
				RecordErrorByComponent("gateway", "decode_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
