package balance

import "github.com/shopspring/decimal"

type CreateBalanceRequest struct {
	EmployeeID  string          `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID string          `json:"leave_type_id" binding:"required,uuid"`
	Entitled    decimal.Decimal `json:"entitled"`
	Used        decimal.Decimal `json:"used"`
	ValidFrom   string          `json:"valid_from" binding:"required"`
	ValidTo     string          `json:"valid_to" binding:"required"`
}

// AdjustBalanceRequest overwrites whichever amounts are present.
type AdjustBalanceRequest struct {
	Entitled *decimal.Decimal `json:"entitled"`
	Used     *decimal.Decimal `json:"used"`
}

type BalanceResponse struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	LeaveTypeID    string          `json:"leave_type_id"`
	Entitled       decimal.Decimal `json:"entitled"`
	Used           decimal.Decimal `json:"used"`
	Remaining      decimal.Decimal `json:"remaining"`
	ValidFrom      string          `json:"valid_from"`
	ValidTo        string          `json:"valid_to"`
	ValidityStatus ValidityStatus  `json:"validity_status"`
}
