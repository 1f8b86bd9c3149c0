// Package feed turns accepted activities into social posts.
package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"example.com/wellness/internal/domain"
)

// Writer persists social posts.
type Writer interface {
	InsertPost(ctx context.Context, post domain.SocialPost) error
}

var templates = map[domain.ActivityType]string{
	domain.TypeWalking:           "🚶 Walking Session",
	domain.TypeRunning:           "🏃 Running Session",
	domain.TypeCycling:           "🚴 Cycling Session",
	domain.TypeYoga:              "🧘 Yoga Session",
	domain.TypeStructuredWorkout: "💪 Workout Session",
}

// Publisher writes one templated post per accepted activity. The feed is a
// convenience view: a failed insert surfaces only through fan-out logging and
// never blocks ingestion.
type Publisher struct {
	writer Writer
}

// NewPublisher constructs a Publisher.
func NewPublisher(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Name identifies the subscriber in fan-out logs and metrics.
func (p *Publisher) Name() string { return "feed" }

// OnActivityAccepted publishes the post. Entries awaiting verification stay
// off the feed until confirmed.
func (p *Publisher) OnActivityAccepted(ctx context.Context, evt domain.ActivityAccepted) error {
	if evt.VerificationRequired {
		return nil
	}

	title, ok := templates[domain.ActivityType(evt.ActivityType)]
	if !ok {
		title = "🏅 Activity Session"
	}

	return p.writer.InsertPost(ctx, domain.SocialPost{
		ID:          uuid.NewString(),
		UserID:      evt.UserID,
		ActivityID:  evt.ActivityID,
		Title:       title,
		Description: describe(evt),
		CreatedAt:   evt.OccurredAt,
	})
}

// OnActivityRejected is a no-op.
func (p *Publisher) OnActivityRejected(context.Context, domain.ActivityRejected) error {
	return nil
}

func describe(evt domain.ActivityAccepted) string {
	switch {
	case evt.Steps > 0 && evt.DurationMin > 0:
		return fmt.Sprintf("Completed %d minutes with %d steps", evt.DurationMin, evt.Steps)
	case evt.Steps > 0:
		return fmt.Sprintf("Logged %d steps", evt.Steps)
	case evt.DurationMin > 0 && evt.Calories > 0:
		return fmt.Sprintf("Completed %d minutes, burning %d calories", evt.DurationMin, evt.Calories)
	case evt.DurationMin > 0:
		return fmt.Sprintf("Completed %d minutes", evt.DurationMin)
	default:
		return "Completed a session"
	}
}
