package consumer

import (
	"context"
	"encoding/json"

	"go-empconnect/internal/events"
	"go-empconnect/internal/notification"
	"go-empconnect/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func ConsumeLeaveNotifications(
	ctx context.Context,
	reader MessageReader,
	notifications notification.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_notification")
	log.Info("leave notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave notification consumer stopped")
				return
			}
			log.Error("fetch leave notification message failed", zap.Error(err))
			continue
		}

		if !handleMessage(ctx, notifications, msg, log) {
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave notification message failed", zap.Error(err))
		}
	}
}

// handleMessage reports whether msg should be committed. Undecodable and
// duplicate messages are committed; storage failures are left for redelivery.
func handleMessage(ctx context.Context, notifications notification.Service, msg kafkago.Message, log *zap.Logger) bool {
	var event events.LeaveNotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode leave_notification event failed", zap.Error(err))
		return true
	}

	if event.RequestID == "" {
		event.RequestID = headerValue(msg, "request_id")
	}
	ctx = contextutil.WithRequestID(ctx, event.RequestID)

	stored, err := notifications.Ingest(ctx, event)
	if err != nil {
		log.Error("store leave notification failed",
			zap.String("event_id", event.EventID),
			zap.String("recipient_id", event.RecipientID),
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
		return false
	}
	if !stored {
		log.Warn("leave notification already stored, skipping", zap.String("event_id", event.EventID))
		return true
	}

	log.Info("leave notification stored",
		zap.String("event_id", event.EventID),
		zap.String("recipient_id", event.RecipientID),
		zap.String("kind", event.Kind),
	)
	return true
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
