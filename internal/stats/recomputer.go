// Package stats derives per-user rolling statistics from the activity log.
package stats

import (
	"context"
	"fmt"
	"time"

	"example.com/wellness/internal/domain"
)

// Repository captures the reads and overwrites the recomputer performs.
type Repository interface {
	ListOnDate(ctx context.Context, userID string, date time.Time) ([]domain.Activity, error)
	ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Activity, error)
	UpsertStats(ctx context.Context, stats domain.UserStats) error
	UpsertDailySplit(ctx context.Context, userID string, pending, verified int, updated time.Time) error
}

// Recomputer rebuilds user_stats rows from the canonical log. Every write is
// a full overwrite derived from source rows, never an increment, so running it
// twice on unchanged data produces the same row and concurrent or replayed
// invocations converge.
type Recomputer struct {
	repo Repository
	now  func() time.Time
}

// Option configures optional Recomputer behaviour.
type Option func(*Recomputer)

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(r *Recomputer) {
		r.now = now
	}
}

// NewRecomputer constructs a Recomputer.
func NewRecomputer(repo Repository, opts ...Option) *Recomputer {
	r := &Recomputer{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecomputeToday rebuilds the pending/verified split for the current day.
// today_steps is stored as the sum of both partitions.
func (r *Recomputer) RecomputeToday(ctx context.Context, userID string) error {
	now := r.now()
	day := domain.DayOf(now)

	activities, err := r.repo.ListOnDate(ctx, userID, day)
	if err != nil {
		return fmt.Errorf("list activities for %s: %w", day.Format("2006-01-02"), err)
	}

	pending, verified := domain.SplitSteps(activities, day)
	return r.repo.UpsertDailySplit(ctx, userID, pending, verified, now)
}

// RecomputeAll rebuilds the whole stats row from the full log: the daily
// split, weekly totals, streaks, and calorie/heart-rate rollups.
func (r *Recomputer) RecomputeAll(ctx context.Context, userID string) error {
	now := r.now()
	day := domain.DayOf(now)

	activities, err := r.repo.ListSince(ctx, userID, time.Time{})
	if err != nil {
		return fmt.Errorf("list activity log: %w", err)
	}

	pending, verified := domain.SplitSteps(activities, day)

	calories, heartRateSum, heartRateCount := 0, 0, 0
	for _, a := range activities {
		if a.VerificationStatus == domain.VerificationRejected {
			continue
		}
		calories += a.Calories
		if a.HeartRateAvg != nil {
			heartRateSum += *a.HeartRateAvg
			heartRateCount++
		}
	}
	heartRate := 0
	if heartRateCount > 0 {
		heartRate = heartRateSum / heartRateCount
	}

	return r.repo.UpsertStats(ctx, domain.UserStats{
		UserID:        userID,
		TodaySteps:    pending + verified,
		PendingSteps:  pending,
		VerifiedSteps: verified,
		WeeklySteps:   domain.WeeklySteps(activities, day),
		CurrentStreak: domain.CurrentStreak(activities, day),
		LongestStreak: domain.LongestStreak(activities),
		Calories:      calories,
		HeartRate:     heartRate,
		LastUpdated:   now,
	})
}

// Name identifies the subscriber in fan-out logs and metrics.
func (r *Recomputer) Name() string { return "stats" }

// OnActivityAccepted recomputes aggregates for the submitting user. Deferred
// verification entries only refresh the daily split; the full path rebuilds
// everything.
func (r *Recomputer) OnActivityAccepted(ctx context.Context, evt domain.ActivityAccepted) error {
	if evt.VerificationRequired {
		return r.RecomputeToday(ctx, evt.UserID)
	}
	return r.RecomputeAll(ctx, evt.UserID)
}

// OnActivityRejected is a no-op: rejected submissions never reach the log.
func (r *Recomputer) OnActivityRejected(context.Context, domain.ActivityRejected) error {
	return nil
}
