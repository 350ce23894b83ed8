package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRouting     Status = "routing"
	StatusApproved    Status = "approved"
	StatusDisapproved Status = "disapproved"
	StatusCancelled   Status = "cancelled"
)

// ActionKind separates real routing steps from the requestor's own edit notes.
type ActionKind string

const (
	KindStep     ActionKind = "step"
	KindEditNote ActionKind = "edit_note"
)

type Action string

const (
	ActionSubmitted   Action = "submitted"
	ActionForwarded   Action = "forwarded"
	ActionApproved    Action = "approved"
	ActionDisapproved Action = "disapproved"
	ActionCancelled   Action = "cancelled"
	ActionUpdated     Action = "updated"
)

type LeaveRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ControlNumber string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_requests_control_number"`
	EmployeeID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID   uuid.UUID  `gorm:"type:uuid;not null"`
	LeaveReasonID *uuid.UUID `gorm:"type:uuid"`

	DateFrom      time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	DateTo        time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	DaysRequested int             `gorm:"type:int;not null;default:0"`
	HrsRequested  decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Reason        string          `gorm:"type:text"`

	CurrentApproverID *uuid.UUID `gorm:"type:uuid;index:idx_leave_requests_current_approver"`
	Status            Status     `gorm:"type:varchar(20);not null;default:'routing'"`
	// Disapproved stays set once any approver disapproves; later approvals
	// in the chain cannot clear it.
	Disapproved     bool `gorm:"not null;default:false"`
	BalanceDeducted bool `gorm:"not null;default:false"`
	Version         int  `gorm:"not null;default:1"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	CancelledAt *time.Time
}

type LeaveApprovalAction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	LeaveRequestID uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_approval_actions_request_seq"`
	ApproverID     uuid.UUID  `gorm:"type:uuid;not null"`
	Sequence       int        `gorm:"not null;index:idx_leave_approval_actions_request_seq"`
	Kind           ActionKind `gorm:"type:varchar(20);not null;default:'step'"`
	Action         Action     `gorm:"type:varchar(20);not null"`
	Status         Status     `gorm:"type:varchar(20);not null"`
	Comments       string     `gorm:"type:text"`
	ActedAt        *time.Time
	CreatedAt      time.Time
}

// IsOpen reports whether the step still waits for its approver.
func (a LeaveApprovalAction) IsOpen() bool {
	return a.Kind == KindStep && a.Status == StatusRouting && a.ActedAt == nil
}

// openStep returns the step the current approver must resolve.
func openStep(actions []LeaveApprovalAction) *LeaveApprovalAction {
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].IsOpen() {
			return &actions[i]
		}
	}
	return nil
}

// maxSequence ignores edit notes, which share the sequence of the step they
// were written under.
func maxSequence(actions []LeaveApprovalAction) int {
	highest := 0
	for _, a := range actions {
		if a.Kind == KindStep && a.Sequence > highest {
			highest = a.Sequence
		}
	}
	return highest
}

func approverIDs(actions []LeaveApprovalAction) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(actions))
	for _, a := range actions {
		if a.Kind == KindStep {
			ids = append(ids, a.ApproverID)
		}
	}
	return ids
}
