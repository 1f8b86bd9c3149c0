// Package anomaly alerts operators about rejected submissions.
package anomaly

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"example.com/wellness/internal/domain"
)

// Directory resolves which users hold the admin role.
type Directory interface {
	ListAdminUserIDs(ctx context.Context) ([]string, error)
}

// Writer persists notification rows.
type Writer interface {
	InsertNotification(ctx context.Context, n domain.Notification) error
}

// Reporter fans a rejection out as one notification per admin. Delivery is
// best-effort: a failed insert for one admin does not stop the others, and
// zero admins makes the whole report a no-op.
type Reporter struct {
	directory Directory
	writer    Writer
	logger    *log.Logger
}

// Option configures optional Reporter behaviour.
type Option func(*Reporter)

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter constructs a Reporter.
func NewReporter(directory Directory, writer Writer, opts ...Option) *Reporter {
	r := &Reporter{
		directory: directory,
		writer:    writer,
		logger:    log.New(log.Writer(), "[anomaly] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name identifies the subscriber in fan-out logs and metrics.
func (r *Reporter) Name() string { return "anomaly" }

// OnActivityAccepted is a no-op.
func (r *Reporter) OnActivityAccepted(context.Context, domain.ActivityAccepted) error {
	return nil
}

// OnActivityRejected notifies every admin about the refused submission.
func (r *Reporter) OnActivityRejected(ctx context.Context, evt domain.ActivityRejected) error {
	admins, err := r.directory.ListAdminUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}

	body := fmt.Sprintf("A %s submission by user %s was rejected: %s (steps=%d, duration=%d, calories=%d)",
		evt.ActivityType, evt.UserID, evt.Reason, evt.Steps, evt.DurationMin, evt.Calories)

	for _, admin := range admins {
		n := domain.Notification{
			ID:        uuid.NewString(),
			UserID:    admin,
			Title:     "Suspicious activity submission",
			Body:      body,
			CreatedAt: evt.OccurredAt,
		}
		if err := r.writer.InsertNotification(ctx, n); err != nil {
			// Partial delivery is an accepted failure mode.
			r.logger.Printf("notification to admin %s failed: %v", admin, err)
		}
	}
	return nil
}
