package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindLeaveSubmitted   = "leave_submitted"
	KindLeaveForwarded   = "leave_forwarded"
	KindLeaveApproved    = "leave_approved"
	KindLeaveDisapproved = "leave_disapproved"
	KindLeaveCancelled   = "leave_cancelled"
	KindLeaveUpdated     = "leave_updated"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_recipient"`
	Title       string     `gorm:"type:varchar(200);not null"`
	Message     string     `gorm:"type:text;not null"`
	Kind        string     `gorm:"type:varchar(50);not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	IsRead      bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

// Message is what the leave workflow hands to a Sink.
type Message struct {
	RecipientID    uuid.UUID
	Title          string
	Body           string
	Kind           string
	LeaveRequestID uuid.UUID
}
