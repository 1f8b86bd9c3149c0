package domain

import (
	"context"
	"log"
	"time"
)

// ActivityAccepted is emitted once the canonical activity row has committed.
// The same payload is written to the outbox for cross-service delivery.
type ActivityAccepted struct {
	ActivityID           string    `json:"activity_id"`
	UserID               string    `json:"user_id"`
	ActivityType         string    `json:"activity_type"`
	Date                 string    `json:"date"`
	Steps                int       `json:"steps"`
	DurationMin          int       `json:"duration_min"`
	Calories             int       `json:"calories"`
	EntryMethod          string    `json:"entry_method"`
	VerificationRequired bool      `json:"verification_required"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// ActivityRejected is emitted when validation refuses a submission. No
// activity row exists for a rejected event.
type ActivityRejected struct {
	UserID       string    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Steps        int       `json:"steps"`
	DurationMin  int       `json:"duration_min"`
	Calories     int       `json:"calories"`
	Field        string    `json:"field,omitempty"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Subscriber receives ingestion events. Implementations own one derived view
// each and must tolerate redelivery.
type Subscriber interface {
	Name() string
	OnActivityAccepted(ctx context.Context, evt ActivityAccepted) error
	OnActivityRejected(ctx context.Context, evt ActivityRejected) error
}

// FanoutOption configures optional behaviour for the Fanout.
type FanoutOption func(*Fanout)

// WithFanoutLogger overrides the logger used to report subscriber failures.
func WithFanoutLogger(logger *log.Logger) FanoutOption {
	return func(f *Fanout) {
		f.logger = logger
	}
}

// Fanout dispatches events to every subscriber, best-effort. A failing
// subscriber is logged and counted but never blocks the others or the caller;
// each derived view self-heals on the next recompute or replay.
type Fanout struct {
	subscribers []Subscriber
	logger      *log.Logger
}

// NewFanout constructs a Fanout over the provided subscribers.
func NewFanout(subscribers []Subscriber, opts ...FanoutOption) *Fanout {
	f := &Fanout{
		subscribers: subscribers,
		logger:      log.New(log.Writer(), "[fanout] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DispatchAccepted fans an accepted event out to all subscribers.
func (f *Fanout) DispatchAccepted(ctx context.Context, evt ActivityAccepted) {
	for _, sub := range f.subscribers {
		if err := sub.OnActivityAccepted(ctx, evt); err != nil {
			f.logger.Printf("subscriber %s failed on activity.accepted (user=%s): %v", sub.Name(), evt.UserID, err)
			recordSubscriberError(sub.Name(), "activity.accepted")
			continue
		}
		recordDispatched(sub.Name(), "activity.accepted")
	}
}

// DispatchRejected fans a rejected event out to all subscribers.
func (f *Fanout) DispatchRejected(ctx context.Context, evt ActivityRejected) {
	for _, sub := range f.subscribers {
		if err := sub.OnActivityRejected(ctx, evt); err != nil {
			f.logger.Printf("subscriber %s failed on activity.rejected (user=%s): %v", sub.Name(), evt.UserID, err)
			recordSubscriberError(sub.Name(), "activity.rejected")
			continue
		}
		recordDispatched(sub.Name(), "activity.rejected")
	}
}
