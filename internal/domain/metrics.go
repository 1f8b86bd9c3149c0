package domain

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_service",
		Subsystem: "fanout",
		Name:      "events_dispatched_total",
		Help:      "Number of events successfully handled, labeled by subscriber and event type.",
	}, []string{"subscriber", "event_type"})

	subscriberErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_service",
		Subsystem: "fanout",
		Name:      "subscriber_errors_total",
		Help:      "Number of swallowed subscriber failures, labeled by subscriber and event type.",
	}, []string{"subscriber", "event_type"})

	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_service",
		Subsystem: "ingestion",
		Name:      "submissions_rejected_total",
		Help:      "Number of submissions refused by the plausibility validator, labeled by offending field.",
	}, []string{"field"})
)

func init() {
	prometheus.MustRegister(dispatchedCounter, subscriberErrorCounter, rejectedCounter)
}

func recordDispatched(subscriber, eventType string) {
	dispatchedCounter.WithLabelValues(subscriber, eventType).Inc()
}

func recordSubscriberError(subscriber, eventType string) {
	subscriberErrorCounter.WithLabelValues(subscriber, eventType).Inc()
}

func recordRejected(field string) {
	if field == "" {
		field = "type"
	}
	rejectedCounter.WithLabelValues(field).Inc()
}
