package leave

import "github.com/shopspring/decimal"

type SubmitLeaveRequest struct {
	LeaveTypeID   string           `json:"leave_type_id" binding:"required,uuid"`
	LeaveReasonID *string          `json:"leave_reason_id" binding:"omitempty,uuid"`
	DateFrom      string           `json:"date_from" binding:"required"`
	DateTo        string           `json:"date_to" binding:"required"`
	HrsRequested  *decimal.Decimal `json:"hrs_requested"`
	Reason        string           `json:"reason" binding:"max=1000"`
}

// EditLeaveRequest replaces the editable fields of a routing request. The
// leave type is fixed at submission.
type EditLeaveRequest struct {
	LeaveReasonID *string          `json:"leave_reason_id" binding:"omitempty,uuid"`
	DateFrom      string           `json:"date_from" binding:"required"`
	DateTo        string           `json:"date_to" binding:"required"`
	HrsRequested  *decimal.Decimal `json:"hrs_requested"`
	Reason        string           `json:"reason" binding:"max=1000"`
}

type DecisionRequest struct {
	Comments string `json:"comments" binding:"max=1000"`
}

type LeaveResponse struct {
	ID                string          `json:"id"`
	ControlNumber     string          `json:"control_number"`
	EmployeeID        string          `json:"employee_id"`
	LeaveTypeID       string          `json:"leave_type_id"`
	LeaveReasonID     *string         `json:"leave_reason_id,omitempty"`
	DateFrom          string          `json:"date_from"`
	DateTo            string          `json:"date_to"`
	DaysRequested     int             `json:"days_requested"`
	HrsRequested      decimal.Decimal `json:"hrs_requested"`
	Reason            string          `json:"reason"`
	Status            Status          `json:"status"`
	CurrentApproverID *string         `json:"current_approver_id,omitempty"`
	BalanceDeducted   bool            `json:"balance_deducted"`
	Version           int             `json:"version"`
	ApprovedAt        *string         `json:"approved_at,omitempty"`
	CancelledAt       *string         `json:"cancelled_at,omitempty"`
	// Warnings carries balance problems recorded during a final approval.
	Warnings []string `json:"warnings,omitempty"`
}

type ApprovalActionResponse struct {
	ID         string     `json:"id"`
	ApproverID string     `json:"approver_id"`
	Sequence   int        `json:"sequence"`
	Kind       ActionKind `json:"kind"`
	Action     Action     `json:"action"`
	Status     Status     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	ActedAt    *string    `json:"acted_at,omitempty"`
}
