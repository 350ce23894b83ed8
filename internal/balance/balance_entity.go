package balance

import (
	"time"

	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ValidityStatus string

const (
	ValidityActive        ValidityStatus = "active"
	ValidityForConversion ValidityStatus = "for_conversion"
	ValidityExpired       ValidityStatus = "expired"
	ValidityUpcoming      ValidityStatus = "upcoming"
)

type LeaveBalance struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_balances_owner"`
	LeaveTypeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_balances_owner"`
	Entitled    decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Used        decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Remaining   decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	ValidFrom   time.Time       `gorm:"type:date;not null"`
	ValidTo     time.Time       `gorm:"type:date;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Recompute keeps remaining = entitled - used. Remaining may go negative
// when a deduction exceeds the entitlement.
func (b *LeaveBalance) Recompute() {
	b.Remaining = b.Entitled.Sub(b.Used)
}

func (b *LeaveBalance) BeforeSave(tx *gorm.DB) error {
	b.Recompute()
	return nil
}

func (b LeaveBalance) Covers(d time.Time) bool {
	d = dateutil.DateOnly(d)
	return !d.Before(dateutil.DateOnly(b.ValidFrom)) && !d.After(dateutil.DateOnly(b.ValidTo))
}

func (b LeaveBalance) Overlaps(from, to time.Time) bool {
	return dateutil.Overlaps(
		dateutil.DateOnly(b.ValidFrom), dateutil.DateOnly(b.ValidTo),
		dateutil.DateOnly(from), dateutil.DateOnly(to),
	)
}

func (b LeaveBalance) ValidityStatus(now time.Time) ValidityStatus {
	today := dateutil.DateOnly(now)
	switch {
	case today.Before(dateutil.DateOnly(b.ValidFrom)):
		return ValidityUpcoming
	case !today.After(dateutil.DateOnly(b.ValidTo)):
		return ValidityActive
	case b.Remaining.IsPositive():
		return ValidityForConversion
	default:
		return ValidityExpired
	}
}

type AllocationKind string

const (
	AllocationDeduction   AllocationKind = "deduction"
	AllocationRestoration AllocationKind = "restoration"
)

// Allocation is one append-only ledger row: the days a leave request booked
// against one balance period. Restorations are written as negative rows
// and nothing is ever updated or deleted.
type Allocation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveRequestID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BalanceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           AllocationKind  `gorm:"type:varchar(20);not null"`
	DateFrom       time.Time       `gorm:"type:date;not null"`
	DateTo         time.Time       `gorm:"type:date;not null"`
	Days           decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	CreatedAt      time.Time
}

func (Allocation) TableName() string {
	return "leave_balance_allocations"
}
