package events

import "time"

const (
	LeaveNotificationTopic     = "empconnect.leave.notification.v1"
	LeaveNotificationEventType = "leave_notification"
)

// LeaveNotificationEvent asks the consumer to store an in-app notification.
// EventID doubles as the notification id so redelivery is harmless.
type LeaveNotificationEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	RecipientID    string    `json:"recipient_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Kind           string    `json:"kind"`
	LeaveRequestID string    `json:"leave_request_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
