// Package domain defines the activity ingestion pipeline: the canonical
// activity model, the plausibility validator, and the orchestrating service.
package domain

import "time"

// ActivityType is the closed set of activity kinds the pipeline accepts.
type ActivityType string

const (
	TypeWalking           ActivityType = "walking"
	TypeRunning           ActivityType = "running"
	TypeCycling           ActivityType = "cycling"
	TypeYoga              ActivityType = "yoga"
	TypeStructuredWorkout ActivityType = "structured-workout"
)

// EntryMethod records how an activity reached the pipeline.
type EntryMethod string

const (
	EntryManual EntryMethod = "manual"
	EntryQuick  EntryMethod = "quick_entry"
	EntrySync   EntryMethod = "sync"
)

// VerificationStatus tracks secondary confirmation of an entry.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Activity is the canonical workout record. Rows are append-only; only
// verification_status ever transitions after the initial write.
type Activity struct {
	ID                   string
	UserID               string
	Type                 ActivityType
	Date                 time.Time // calendar day, midnight in the service location
	Steps                int
	DurationMin          int
	Calories             int
	DistanceKm           *float64
	HeartRateAvg         *int
	Notes                string
	EntryMethod          EntryMethod
	VerificationStatus   VerificationStatus
	VerificationRequired bool
	CreatedAt            time.Time
}

// UserStats is the per-user rolling aggregate row. Every field is derived
// from the activity log and must survive being recomputed from scratch.
type UserStats struct {
	UserID        string
	TodaySteps    int
	PendingSteps  int
	VerifiedSteps int
	WeeklySteps   int
	CurrentStreak int
	LongestStreak int
	Calories      int
	HeartRate     int
	LastUpdated   time.Time
}

// UserAchievement records an earned badge. Unique per (user, achievement);
// earned_at never changes once written.
type UserAchievement struct {
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// SocialPost is the denormalised feed projection of an activity or badge.
type SocialPost struct {
	ID          string
	UserID      string
	ActivityID  string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Notification is an operator-facing alert row.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	CreatedAt time.Time
}

// Cursor models the pagination token for activity history.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}
