// Package achievements evaluates threshold rules against accepted activities.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"example.com/wellness/internal/domain"
)

// Rule is one stateless achievement threshold.
type Rule struct {
	ID    string
	Title string
	Met   func(evt domain.ActivityAccepted) bool
}

// Catalog is the production rule set. Rules may re-fire on later activities;
// the store's unique (user, achievement) constraint keeps earning monotonic.
var Catalog = []Rule{
	{ID: "step_champion", Title: "Step Champion", Met: func(e domain.ActivityAccepted) bool { return e.Steps >= 10000 }},
	{ID: "marathon_walker", Title: "Marathon Walker", Met: func(e domain.ActivityAccepted) bool { return e.Steps >= 20000 }},
	{ID: "endurance_hero", Title: "Endurance Hero", Met: func(e domain.ActivityAccepted) bool { return e.DurationMin >= 60 }},
	{ID: "calorie_crusher", Title: "Calorie Crusher", Met: func(e domain.ActivityAccepted) bool { return e.Calories >= 500 }},
}

// Store persists earned achievements. Award reports whether a new row was
// inserted; replays of an already-earned achievement insert nothing and leave
// earned_at untouched.
type Store interface {
	Award(ctx context.Context, achievement domain.UserAchievement) (bool, error)
}

// PostWriter publishes feed posts for newly earned badges. Best-effort.
type PostWriter interface {
	InsertPost(ctx context.Context, post domain.SocialPost) error
}

// Evaluator applies the rule catalog to accepted activities.
type Evaluator struct {
	store  Store
	posts  PostWriter
	rules  []Rule
	logger *log.Logger
}

// Option configures optional Evaluator behaviour.
type Option func(*Evaluator)

// WithRules swaps the rule catalog, for tests.
func WithRules(rules []Rule) Option {
	return func(e *Evaluator) {
		e.rules = rules
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator constructs an Evaluator. posts may be nil to skip feed
// announcements.
func NewEvaluator(store Store, posts PostWriter, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:  store,
		posts:  posts,
		rules:  Catalog,
		logger: log.New(log.Writer(), "[achievements] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the subscriber in fan-out logs and metrics.
func (e *Evaluator) Name() string { return "achievements" }

// OnActivityAccepted awards every newly satisfied rule. Entries awaiting
// verification earn nothing until confirmed.
func (e *Evaluator) OnActivityAccepted(ctx context.Context, evt domain.ActivityAccepted) error {
	if evt.VerificationRequired {
		return nil
	}

	var errs []error
	for _, rule := range e.rules {
		if !rule.Met(evt) {
			continue
		}

		inserted, err := e.store.Award(ctx, domain.UserAchievement{
			UserID:        evt.UserID,
			AchievementID: rule.ID,
			EarnedAt:      evt.OccurredAt,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("award %s: %w", rule.ID, err))
			continue
		}
		if !inserted || e.posts == nil {
			continue
		}

		post := domain.SocialPost{
			ID:          uuid.NewString(),
			UserID:      evt.UserID,
			ActivityID:  evt.ActivityID,
			Title:       fmt.Sprintf("🏆 Achievement Unlocked: %s", rule.Title),
			Description: fmt.Sprintf("Earned the %s badge", rule.Title),
			CreatedAt:   evt.OccurredAt,
		}
		if err := e.posts.InsertPost(ctx, post); err != nil {
			// The badge itself is durable; the announcement is a convenience.
			e.logger.Printf("achievement post failed (user=%s, rule=%s): %v", evt.UserID, rule.ID, err)
		}
	}
	return errors.Join(errs...)
}

// OnActivityRejected is a no-op.
func (e *Evaluator) OnActivityRejected(context.Context, domain.ActivityRejected) error {
	return nil
}
