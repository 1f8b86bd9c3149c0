package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoUser is returned when a write path is invoked without an
	// authenticated user. The call fails closed with no side effects.
	ErrNoUser = errors.New("no authenticated user")
	// ErrInvalidSteps rejects non-positive quick step entries.
	ErrInvalidSteps = errors.New("steps must be greater than zero")
	// ErrUnknownTimeframe is returned for unsupported pattern timeframes.
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// ActivityRepository captures the persistence operations the service needs.
// Create commits the activity row and its outbox events in one transaction.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	RecordRejection(ctx context.Context, evt ActivityRejected) error
	ListSince(ctx context.Context, userID string, since time.Time) ([]Activity, error)
	ListHistory(ctx context.Context, userID string, since time.Time, cursor *Cursor, limit int) ([]Activity, *Cursor, error)
	GetStats(ctx context.Context, userID string) (*UserStats, error)
}

// Service orchestrates ingestion: validate, persist, fan out. Downstream
// failures never roll the canonical write back; the activity log stays the
// source of truth and every derived view is regenerable from it.
type Service struct {
	repo   ActivityRepository
	fanout *Fanout
	limits Limits
	logger *log.Logger
	now    func() time.Time
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithClock overrides the clock, enabling deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithServiceLogger overrides the logger.
func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service. All dependencies are explicit; there is no
// package-level instance.
func NewService(repo ActivityRepository, fanout *Fanout, limits Limits, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		fanout: fanout,
		limits: limits,
		logger: log.New(log.Writer(), "[ingestion] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordActivityInput carries a fully-described submission from the API layer.
type RecordActivityInput struct {
	Type               ActivityType
	Steps              int
	DurationMin        int
	Calories           int
	DistanceKm         *float64
	HeartRateAvg       *int
	Notes              string
	VerificationStatus VerificationStatus // defaults to verified
}

// RecordActivity is the write path for a fully-described activity. It returns
// true once the canonical row has committed; rejected submissions store
// nothing and return the typed rejection as the error.
func (s *Service) RecordActivity(ctx context.Context, userID string, input RecordActivityInput) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrNoUser
	}

	now := s.now()
	status := input.VerificationStatus
	if status == "" {
		status = VerificationVerified
	}

	activity := Activity{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               input.Type,
		Date:               DayOf(now),
		Steps:              input.Steps,
		DurationMin:        input.DurationMin,
		Calories:           input.Calories,
		DistanceKm:         input.DistanceKm,
		HeartRateAvg:       input.HeartRateAvg,
		Notes:              input.Notes,
		EntryMethod:        EntryManual,
		VerificationStatus: status,
		CreatedAt:          now,
	}

	if rej := Validate(s.limits, activity); rej != nil {
		recordRejected(rej.Field)
		evt := ActivityRejected{
			UserID:       userID,
			ActivityType: string(input.Type),
			Steps:        input.Steps,
			DurationMin:  input.DurationMin,
			Calories:     input.Calories,
			Field:        rej.Field,
			Reason:       rej.Reason,
			OccurredAt:   now,
		}
		if err := s.repo.RecordRejection(ctx, evt); err != nil {
			s.logger.Printf("record rejection event failed (user=%s): %v", userID, err)
		}
		s.fanout.DispatchRejected(ctx, evt)
		return false, rej
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return false, fmt.Errorf("persist activity: %w", err)
	}

	s.fanout.DispatchAccepted(ctx, acceptedEvent(activity))
	return true, nil
}

// RecordQuickSteps is the low-friction write path. It bypasses the validator
// entirely and defers trust: the entry persists as pending until a separate
// verification step confirms it, and no achievement or feed effects fire.
func (s *Service) RecordQuickSteps(ctx context.Context, userID string, steps int) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrNoUser
	}
	if steps <= 0 {
		return false, ErrInvalidSteps
	}

	now := s.now()
	activity := Activity{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Type:                 TypeWalking,
		Date:                 DayOf(now),
		Steps:                steps,
		EntryMethod:          EntryQuick,
		VerificationStatus:   VerificationPending,
		VerificationRequired: true,
		CreatedAt:            now,
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return false, fmt.Errorf("persist quick entry: %w", err)
	}

	s.fanout.DispatchAccepted(ctx, acceptedEvent(activity))
	return true, nil
}

func acceptedEvent(a Activity) ActivityAccepted {
	return ActivityAccepted{
		ActivityID:           a.ID,
		UserID:               a.UserID,
		ActivityType:         string(a.Type),
		Date:                 a.Date.Format(dayKeyLayout),
		Steps:                a.Steps,
		DurationMin:          a.DurationMin,
		Calories:             a.Calories,
		EntryMethod:          string(a.EntryMethod),
		VerificationRequired: a.VerificationRequired,
		OccurredAt:           a.CreatedAt,
	}
}

// GetUserStats returns the derived aggregate row, or a zero row when the user
// has not logged anything yet (stats rows are created lazily).
func (s *Service) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &UserStats{UserID: userID}, nil
	}
	return stats, nil
}

// GetActivityHistory pages through the user's recent log, newest first.
func (s *Service) GetActivityHistory(ctx context.Context, userID string, days int, cursor *Cursor, limit int) ([]Activity, *Cursor, error) {
	if days <= 0 {
		days = 30
	}
	since := DayOf(s.now()).AddDate(0, 0, -(days - 1))
	return s.repo.ListHistory(ctx, userID, since, cursor, limit)
}

// GetWeeklySummary rolls the last seven days up into per-day buckets.
func (s *Service) GetWeeklySummary(ctx context.Context, userID string) ([]DailySummary, error) {
	today := DayOf(s.now())
	from := today.AddDate(0, 0, -6)
	activities, err := s.repo.ListSince(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	return DailyBuckets(activities, from, today), nil
}

// PersonalRecords holds a user's all-time bests.
type PersonalRecords struct {
	BestDaySteps      int       `json:"best_day_steps"`
	BestDayDate       time.Time `json:"best_day_date"`
	LongestSessionMin int       `json:"longest_session_min"`
	HighestCalories   int       `json:"highest_calories"`
	LongestStreak     int       `json:"longest_streak"`
}

// GetPersonalRecords derives all-time bests from the full activity log.
func (s *Service) GetPersonalRecords(ctx context.Context, userID string) (*PersonalRecords, error) {
	activities, err := s.repo.ListSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}

	records := &PersonalRecords{LongestStreak: LongestStreak(activities)}
	daySteps := make(map[string]int)
	for _, a := range activities {
		if !counted(a) {
			continue
		}
		key := DayOf(a.Date).Format(dayKeyLayout)
		daySteps[key] += a.Steps
		if daySteps[key] > records.BestDaySteps {
			records.BestDaySteps = daySteps[key]
			records.BestDayDate = DayOf(a.Date)
		}
		if a.DurationMin > records.LongestSessionMin {
			records.LongestSessionMin = a.DurationMin
		}
		if a.Calories > records.HighestCalories {
			records.HighestCalories = a.Calories
		}
	}
	return records, nil
}

// WorkoutInsights summarises training habits over the recent log.
type WorkoutInsights struct {
	TotalActivities  int          `json:"total_activities"`
	ActiveDays       int          `json:"active_days"`
	AvgDurationMin   float64      `json:"avg_duration_min"`
	AvgCalories      float64      `json:"avg_calories"`
	MostFrequentType ActivityType `json:"most_frequent_type,omitempty"`
}

// GetWorkoutInsights computes habit statistics over the last 30 days.
func (s *Service) GetWorkoutInsights(ctx context.Context, userID string) (*WorkoutInsights, error) {
	since := DayOf(s.now()).AddDate(0, 0, -29)
	activities, err := s.repo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	insights := &WorkoutInsights{ActiveDays: len(activeDays(activities))}
	typeCounts := make(map[ActivityType]int)
	totalDuration, totalCalories := 0, 0
	for _, a := range activities {
		if !counted(a) {
			continue
		}
		insights.TotalActivities++
		totalDuration += a.DurationMin
		totalCalories += a.Calories
		typeCounts[a.Type]++
	}
	if insights.TotalActivities > 0 {
		insights.AvgDurationMin = float64(totalDuration) / float64(insights.TotalActivities)
		insights.AvgCalories = float64(totalCalories) / float64(insights.TotalActivities)
	}
	best := 0
	for t, n := range typeCounts {
		if n > best || (n == best && t < insights.MostFrequentType) {
			best = n
			insights.MostFrequentType = t
		}
	}
	return insights, nil
}

// GetActivityPatterns buckets the log per day over the requested timeframe
// ("week" or "month") for chart consumers.
func (s *Service) GetActivityPatterns(ctx context.Context, userID, timeframe string) ([]DailySummary, error) {
	var span int
	switch timeframe {
	case "week":
		span = 7
	case "month":
		span = 30
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, timeframe)
	}

	today := DayOf(s.now())
	from := today.AddDate(0, 0, -(span - 1))
	activities, err := s.repo.ListSince(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	return DailyBuckets(activities, from, today), nil
}
