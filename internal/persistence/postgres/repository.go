// Package postgres provides pgx-backed persistence for the ingestion pipeline.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/observability"
)

const activityColumns = `activity_id, user_id, activity_type, activity_date, steps, duration_min, calories,
        distance_km, heart_rate_avg, notes, entry_method, verification_status, verification_required, created_at`

// Repository persists activities, derived views, and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create appends the canonical activity row and records its accepted event in
// the outbox within a single transaction. The event never exists without the
// row, and vice versa.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertActivity = `INSERT INTO activities (` + activityColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err = tx.Exec(ctx, insertActivity,
		activity.ID,
		activity.UserID,
		string(activity.Type),
		activity.Date,
		activity.Steps,
		activity.DurationMin,
		activity.Calories,
		activity.DistanceKm,
		activity.HeartRateAvg,
		nullIfEmpty(activity.Notes),
		string(activity.EntryMethod),
		string(activity.VerificationStatus),
		activity.VerificationRequired,
		activity.CreatedAt,
	)
	if err != nil {
		return err
	}

	evt := domain.ActivityAccepted{
		ActivityID:           activity.ID,
		UserID:               activity.UserID,
		ActivityType:         string(activity.Type),
		Date:                 activity.Date.Format("2006-01-02"),
		Steps:                activity.Steps,
		DurationMin:          activity.DurationMin,
		Calories:             activity.Calories,
		EntryMethod:          string(activity.EntryMethod),
		VerificationRequired: activity.VerificationRequired,
		OccurredAt:           activity.CreatedAt,
	}
	if err = insertOutbox(ctx, tx, "activity.accepted", activity.UserID, activity.ID, evt); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(activity.CreatedAt)
	return nil
}

// RecordRejection stores the rejected event in the outbox. Rejections leave
// no activity row behind, so each event gets a fresh aggregate id to keep
// dedupe keys unique across repeated rejections from the same user.
func (r *Repository) RecordRejection(ctx context.Context, evt domain.ActivityRejected) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = insertOutbox(ctx, tx, "activity.rejected", evt.UserID, uuid.NewString(), evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, userID, aggregateID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		"activity",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
		fmt.Sprintf("%s:%s", aggregateID, eventType),
	)
	return err
}

// ListOnDate returns the user's rows for one calendar day.
func (r *Repository) ListOnDate(ctx context.Context, userID string, date time.Time) ([]domain.Activity, error) {
	const query = `SELECT ` + activityColumns + ` FROM activities
        WHERE user_id=$1 AND activity_date=$2
        ORDER BY created_at`
	return r.queryActivities(ctx, query, userID, date)
}

// ListSince returns all of the user's rows on or after the given day. A zero
// time returns the full log.
func (r *Repository) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Activity, error) {
	if since.IsZero() {
		const query = `SELECT ` + activityColumns + ` FROM activities
            WHERE user_id=$1 ORDER BY activity_date, created_at`
		return r.queryActivities(ctx, query, userID)
	}
	const query = `SELECT ` + activityColumns + ` FROM activities
        WHERE user_id=$1 AND activity_date>=$2
        ORDER BY activity_date, created_at`
	return r.queryActivities(ctx, query, userID, since)
}

// ListHistory pages through the user's recent rows, newest first.
func (r *Repository) ListHistory(ctx context.Context, userID string, since time.Time, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	args := []interface{}{userID, since, limit}
	query := `SELECT ` + activityColumns + ` FROM activities
        WHERE user_id=$1 AND activity_date>=$2`
	if cursor != nil {
		query += ` AND (created_at, activity_id) < ($4, $5)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += ` ORDER BY created_at DESC, activity_id DESC LIMIT $3`

	results, err := r.queryActivities(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

func (r *Repository) queryActivities(ctx context.Context, query string, args ...interface{}) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var notes *string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Date, &a.Steps, &a.DurationMin, &a.Calories,
			&a.DistanceKm, &a.HeartRateAvg, &notes, &a.EntryMethod, &a.VerificationStatus,
			&a.VerificationRequired, &a.CreatedAt); err != nil {
			return nil, err
		}
		if notes != nil {
			a.Notes = *notes
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// GetStats fetches the derived stats row, nil when the user has none yet.
func (r *Repository) GetStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	const query = `SELECT user_id, today_steps, pending_steps, verified_steps, weekly_steps,
            current_streak, longest_streak, calories_burned, heart_rate, last_updated
        FROM user_stats WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, userID)
	var s domain.UserStats
	if err := row.Scan(&s.UserID, &s.TodaySteps, &s.PendingSteps, &s.VerifiedSteps, &s.WeeklySteps,
		&s.CurrentStreak, &s.LongestStreak, &s.Calories, &s.HeartRate, &s.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpsertStats overwrites the whole stats row with recomputed values.
func (r *Repository) UpsertStats(ctx context.Context, stats domain.UserStats) error {
	const stmt = `INSERT INTO user_stats (user_id, today_steps, pending_steps, verified_steps, weekly_steps,
            current_streak, longest_streak, calories_burned, heart_rate, last_updated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (user_id) DO UPDATE SET
            today_steps=EXCLUDED.today_steps,
            pending_steps=EXCLUDED.pending_steps,
            verified_steps=EXCLUDED.verified_steps,
            weekly_steps=EXCLUDED.weekly_steps,
            current_streak=EXCLUDED.current_streak,
            longest_streak=EXCLUDED.longest_streak,
            calories_burned=EXCLUDED.calories_burned,
            heart_rate=EXCLUDED.heart_rate,
            last_updated=EXCLUDED.last_updated`

	_, err := r.pool.Exec(ctx, stmt,
		stats.UserID, stats.TodaySteps, stats.PendingSteps, stats.VerifiedSteps, stats.WeeklySteps,
		stats.CurrentStreak, stats.LongestStreak, stats.Calories, stats.HeartRate, stats.LastUpdated)
	if err != nil {
		return err
	}
	observability.RecordStatsRecomputed(stats.LastUpdated)
	return nil
}

// UpsertDailySplit overwrites only the pending/verified partition for the
// current day. The values come from a fresh read of the log, never from the
// previous row, so concurrent writers converge.
func (r *Repository) UpsertDailySplit(ctx context.Context, userID string, pending, verified int, updated time.Time) error {
	const stmt = `INSERT INTO user_stats (user_id, today_steps, pending_steps, verified_steps, last_updated)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id) DO UPDATE SET
            today_steps=EXCLUDED.today_steps,
            pending_steps=EXCLUDED.pending_steps,
            verified_steps=EXCLUDED.verified_steps,
            last_updated=EXCLUDED.last_updated`

	_, err := r.pool.Exec(ctx, stmt, userID, pending+verified, pending, verified, updated)
	if err != nil {
		return err
	}
	observability.RecordStatsRecomputed(updated)
	return nil
}

// Award inserts an earned achievement. The unique (user_id, achievement_id)
// constraint absorbs replays: the return value reports whether this call
// created the row, and earned_at never changes once written.
func (r *Repository) Award(ctx context.Context, a domain.UserAchievement) (bool, error) {
	const stmt = `INSERT INTO user_achievements (user_id, achievement_id, earned_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, achievement_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, stmt, a.UserID, a.AchievementID, a.EarnedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertPost writes one social feed row.
func (r *Repository) InsertPost(ctx context.Context, post domain.SocialPost) error {
	const stmt = `INSERT INTO social_activities (post_id, user_id, activity_id, title, description, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := r.pool.Exec(ctx, stmt,
		post.ID, post.UserID, nullIfEmpty(post.ActivityID), post.Title, post.Description, post.CreatedAt)
	return err
}

// ListAdminUserIDs returns every user holding the admin role.
func (r *Repository) ListAdminUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_roles WHERE role='admin'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		admins = append(admins, id)
	}
	return admins, rows.Err()
}

// InsertNotification writes one operator alert row.
func (r *Repository) InsertNotification(ctx context.Context, n domain.Notification) error {
	const stmt = `INSERT INTO notifications (notification_id, user_id, title, body, created_at)
        VALUES ($1,$2,$3,$4,$5)`

	_, err := r.pool.Exec(ctx, stmt, n.ID, n.UserID, n.Title, n.Body, n.CreatedAt)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"activity.accepted": {
		Topic:         "wellness_activity_accepted",
		SchemaSubject: "wellness_activity_accepted-value",
	},
	"activity.rejected": {
		Topic:         "wellness_activity_rejected",
		SchemaSubject: "wellness_activity_rejected-value",
	},
}
