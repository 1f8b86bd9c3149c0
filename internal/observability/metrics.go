package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness_service",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	statsRecomputedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness_service",
		Subsystem: "persistence",
		Name:      "last_stats_recomputed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent user_stats recompute.",
	})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, statsRecomputedGauge)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordStatsRecomputed updates the recompute watermark gauge.
func RecordStatsRecomputed(ts time.Time) {
	if ts.IsZero() {
		return
	}
	statsRecomputedGauge.Set(float64(ts.Unix()))
}
