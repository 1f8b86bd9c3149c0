package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/stats"
)

// EventLogHandler appends every consumed event to the audit log table.
type EventLogHandler struct {
	pool *pgxpool.Pool
}

// NewEventLogHandler constructs a handler backed by the provided pool.
func NewEventLogHandler(pool *pgxpool.Pool) *EventLogHandler {
	return &EventLogHandler{pool: pool}
}

// Handle stores the event payload in the activity_event_log table.
func (h *EventLogHandler) Handle(ctx context.Context, msg Message) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO activity_event_log (event_type, user_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		msg.EventType,
		msg.UserID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}

// RecomputeHandler re-derives user stats whenever an accepted event is
// replayed. Recomputation is idempotent, so redelivery and double application
// alongside the in-process fan-out are both harmless; this is the pipeline's
// self-healing path.
type RecomputeHandler struct {
	recomputer *stats.Recomputer
}

// NewRecomputeHandler constructs a RecomputeHandler.
func NewRecomputeHandler(recomputer *stats.Recomputer) *RecomputeHandler {
	return &RecomputeHandler{recomputer: recomputer}
}

// Handle recomputes aggregates for the user named by an accepted event.
// Rejected events carry no log rows and are ignored.
func (h *RecomputeHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "activity.accepted" {
		return nil
	}

	var evt domain.ActivityAccepted
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode accepted payload: %w", err)
	}
	if evt.UserID == "" {
		return errors.New("accepted event missing user_id")
	}

	if evt.VerificationRequired {
		return h.recomputer.RecomputeToday(ctx, evt.UserID)
	}
	return h.recomputer.RecomputeAll(ctx, evt.UserID)
}

// Multi fans one message out to several handlers, joining their errors. A
// failure in any handler skips the commit, so all handlers must tolerate
// redelivery.
type Multi []Handler

// Handle dispatches the message to every handler.
func (m Multi) Handle(ctx context.Context, msg Message) error {
	var errs []error
	for _, h := range m {
		if err := h.Handle(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
