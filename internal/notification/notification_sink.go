package notification

import (
	"context"
	"time"

	"go-empconnect/internal/events"
	"go-empconnect/internal/messaging/kafka"
	"go-empconnect/internal/shared/contextutil"

	"github.com/google/uuid"
)

// Sink delivers workflow notifications. Callers log failures and move on.
type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// OutboxSink queues notifications in the transactional outbox; the worker
// publishes them to Kafka and the consumer stores them.
type OutboxSink struct {
	outbox kafka.OutboxRepository
	now    func() time.Time
}

func NewOutboxSink(outbox kafka.OutboxRepository) *OutboxSink {
	return &OutboxSink{outbox: outbox, now: time.Now}
}

func (s *OutboxSink) Notify(ctx context.Context, msg Message) error {
	rid := contextutil.GetRequestID(ctx)
	eventID := uuid.NewString()

	payload := events.LeaveNotificationEvent{
		EventID:     eventID,
		EventType:   events.LeaveNotificationEventType,
		RequestID:   rid,
		ActorID:     contextutil.GetEmployeeID(ctx),
		RecipientID: msg.RecipientID.String(),
		Title:       msg.Title,
		Message:     msg.Body,
		Kind:        msg.Kind,
		OccurredAt:  s.now().UTC(),
	}
	if msg.LeaveRequestID != uuid.Nil {
		payload.LeaveRequestID = msg.LeaveRequestID.String()
	}

	event, err := kafka.NewOutboxEvent(
		eventID,
		rid,
		"leave_request",
		payload.LeaveRequestID,
		events.LeaveNotificationEventType,
		events.LeaveNotificationTopic,
		payload,
	)
	if err != nil {
		return err
	}
	return s.outbox.Create(ctx, event)
}

type NopSink struct{}

func (NopSink) Notify(context.Context, Message) error { return nil }
