package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// EventAssignmentPublished fires when a teacher publishes an assignment.
	EventAssignmentPublished = "assignment.published"
	// EventSubmissionGraded fires when a submission receives a grade.
	EventSubmissionGraded = "submission.graded"
	// EventDPPCreated fires when a daily practice problem becomes visible.
	EventDPPCreated = "dpp.created"
)

// Event is the payload published to the message bus for classroom activity.
type Event struct {
	Type        string    `json:"type"`
	ClassroomID uint      `json:"classroom_id"`
	EntityID    uint      `json:"entity_id"`
	ActorID     uint      `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher fans classroom events out to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewEventPublisher builds a NATS-backed publisher. A nil connection yields a
// no-op publisher so callers never need to guard.
func NewEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = "classboard.events"
	}
	return &natsEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends the event; failures are logged, never surfaced, since events
// are advisory.
func (p *natsEventPublisher) Publish(_ context.Context, event Event) {
	if p.conn == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(p.subject+"."+event.Type, payload); err != nil {
		p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish event")
	}
}
