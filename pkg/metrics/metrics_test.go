package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then its collectors should be registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.outboxEnqueued.Inc()
				n, err := testutil.GatherAndCount(registry, "scout_sync_outbox_enqueued_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithCustomLabels(map[string]string{"event": "2026mil"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every series should carry the constant labels", func() {
				manager.syncConnected.Set(1)
				So(hasLabel(registry, "scout_sync_connected", "event", "2026mil"), ShouldBeTrue)
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithCustomLabels(nil), WithPrometheusRegistry(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "scout")
				So(manager.customLabels, ShouldBeEmpty)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording outbox activity", func() {
			before := testutil.ToFloat64(globalManager.outboxEnqueued)
			RecordOutboxEnqueue()
			RecordOutboxEnqueue()
			UpdateOutboxSize(2)
			RecordOutboxDrained(2)
			UpdateOutboxSize(0)

			Convey("Then the counters and gauge should reflect it", func() {
				So(testutil.ToFloat64(globalManager.outboxEnqueued)-before, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.outboxSize), ShouldEqual, 0)
			})
		})

		Convey("When recording sync cycles", func() {
			RecordSyncCycle(OutcomeOffline, 3*time.Millisecond)
			UpdateConnected(false)
			offline := testutil.ToFloat64(globalManager.syncConnected)
			UpdateConnected(true)
			UpdateLastSuccess(time.Unix(1_700_000_000, 0))

			Convey("Then connectivity and last success should be set", func() {
				So(offline, ShouldEqual, 0)
				So(testutil.ToFloat64(globalManager.syncConnected), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.syncLastSuccess), ShouldEqual, 1_700_000_000)
				So(testutil.ToFloat64(globalManager.syncCycles.WithLabelValues(OutcomeOffline)), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording store writes and imports", func() {
			pitApplied := globalManager.storeWrites.WithLabelValues("pit", OutcomeApplied)
			before := testutil.ToFloat64(pitApplied)
			RecordStoreWrite("pit", OutcomeApplied)
			skipped := testutil.ToFloat64(globalManager.importRecords.WithLabelValues(OutcomeSkipped))
			RecordImport(OutcomeSkipped, 0)
			RecordImport(OutcomeSkipped, 3)

			Convey("Then only non-empty imports should count", func() {
				So(testutil.ToFloat64(pitApplied)-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.importRecords.WithLabelValues(OutcomeSkipped))-skipped, ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordHTTPRequest("/api/health", "GET", "200")
					RecordHTTPRequestDuration("/api/health", "GET", "200", 1.5)
					UpdateStoreRecords("match", 12)
					RecordBulkSyncSize(4)
					RecordScanDuplicate()
					RecordErrorByComponent("outbox", "append_failed")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(8)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the custom registry should be exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a process configured with constant labels", t, func() {
		Configure(WithCustomLabels(map[string]string{"event": "2026mil"}))
		defer Configure()

		Convey("When a recorder fires", func() {
			RecordOutboxEnqueue()

			Convey("Then the served registry should expose the labelled series", func() {
				So(hasLabel(GetRegistry(), "scout_sync_outbox_enqueued_total", "event", "2026mil"), ShouldBeTrue)
			})
		})
	})
}

func hasLabel(g prometheus.Gatherer, metric, name, value string) bool {
	mfs, err := g.Gather()
	if err != nil {
		return false
	}
	for _, mf := range mfs {
		if mf.GetName() != metric {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == name && lp.GetValue() == value {
					return true
				}
			}
		}
	}
	return false
}
