//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/wellness/internal/domain"
)

func TestRepositoryActivityLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	day := domain.DayOf(now)

	activity := domain.Activity{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               domain.TypeWalking,
		Date:               day,
		Steps:              8745,
		DurationMin:        45,
		Calories:           310,
		EntryMethod:        domain.EntryManual,
		VerificationStatus: domain.VerificationVerified,
		CreatedAt:          now,
	}
	require.NoError(t, repo.Create(ctx, activity))

	listed, err := repo.ListOnDate(ctx, userID, day)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, activity.ID, listed[0].ID)
	require.Equal(t, 8745, listed[0].Steps)

	// The accepted event must have landed in the outbox in the same
	// transaction.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='activity.accepted'`,
		activity.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func TestRepositoryHistoryPagination(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)
	day := domain.DayOf(base)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, domain.Activity{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Type:               domain.TypeWalking,
			Date:               day,
			Steps:              1000 + i,
			EntryMethod:        domain.EntryManual,
			VerificationStatus: domain.VerificationVerified,
			CreatedAt:          base.Add(time.Duration(i) * time.Second),
		}))
	}

	first, cursor, err := repo.ListHistory(ctx, userID, day.AddDate(0, 0, -7), nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, cursor)
	require.Equal(t, 1002, first[0].Steps)
	require.Equal(t, 1001, first[1].Steps)

	rest, next, err := repo.ListHistory(ctx, userID, day.AddDate(0, 0, -7), cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, 1000, rest[0].Steps)
	require.Nil(t, next)
}

func TestRepositoryStatsUpsert(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()

	stats, err := repo.GetStats(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, stats)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := domain.UserStats{
		UserID:        userID,
		TodaySteps:    9000,
		PendingSteps:  4000,
		VerifiedSteps: 5000,
		WeeklySteps:   21000,
		CurrentStreak: 3,
		LongestStreak: 9,
		Calories:      1200,
		HeartRate:     115,
		LastUpdated:   now,
	}
	require.NoError(t, repo.UpsertStats(ctx, row))

	stored, err := repo.GetStats(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, row.TodaySteps, stored.TodaySteps)
	require.Equal(t, row.LongestStreak, stored.LongestStreak)

	// The daily split overwrite only touches its own columns.
	require.NoError(t, repo.UpsertDailySplit(ctx, userID, 100, 200, now.Add(time.Minute)))
	stored, err = repo.GetStats(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 300, stored.TodaySteps)
	require.Equal(t, 100, stored.PendingSteps)
	require.Equal(t, 200, stored.VerifiedSteps)
	require.Equal(t, 21000, stored.WeeklySteps)
}

func TestRepositoryAwardIsMonotonic(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	first := time.Now().UTC().Truncate(time.Microsecond)

	inserted, err := repo.Award(ctx, domain.UserAchievement{
		UserID:        userID,
		AchievementID: "step_champion",
		EarnedAt:      first,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.Award(ctx, domain.UserAchievement{
		UserID:        userID,
		AchievementID: "step_champion",
		EarnedAt:      first.Add(time.Hour),
	})
	require.NoError(t, err)
	require.False(t, inserted)

	var earnedAt time.Time
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id=$1`, userID).Scan(&count))
	require.Equal(t, 1, count)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT earned_at FROM user_achievements WHERE user_id=$1 AND achievement_id='step_champion'`,
		userID).Scan(&earnedAt))
	require.True(t, earnedAt.Equal(first))
}

func TestRepositoryRejectionEvents(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	now := time.Now().UTC()

	evt := domain.ActivityRejected{
		UserID:       userID,
		ActivityType: "walking",
		Steps:        20000,
		Reason:       "suspiciously round step count: 20000",
		OccurredAt:   now,
	}
	require.NoError(t, repo.RecordRejection(ctx, evt))
	require.NoError(t, repo.RecordRejection(ctx, evt))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND event_type='activity.rejected'`,
		userID).Scan(&count))
	require.Equal(t, 2, count)

	var activityCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id=$1`, userID).Scan(&activityCount))
	require.Equal(t, 0, activityCount)
}

func TestRepositoryAdminDirectory(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	repo := NewRepository(pool)

	admins, err := repo.ListAdminUserIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, admins)

	adminID := uuid.NewString()
	_, err = pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, 'admin'), ($2, 'member')`,
		adminID, uuid.NewString())
	require.NoError(t, err)

	admins, err = repo.ListAdminUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{adminID}, admins)

	require.NoError(t, repo.InsertNotification(ctx, domain.Notification{
		ID:        uuid.NewString(),
		UserID:    adminID,
		Title:     "Suspicious activity submission",
		Body:      "details",
		CreatedAt: time.Now().UTC(),
	}))
}

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("wellness"),
		postgrescontainer.WithUsername("wellness"),
		postgrescontainer.WithPassword("wellness"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	path := resolvePath(t, "../../../db/postgres/migrations/0001_init.up.sql")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
