package balance

import (
	"context"
	"time"

	balanceerrors "go-empconnect/internal/balance/errors"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Usage is the part of a leave request the ledger books against.
type Usage struct {
	LeaveRequestID uuid.UUID
	EmployeeID     uuid.UUID
	LeaveTypeID    uuid.UUID
	DateFrom       time.Time
	DateTo         time.Time
}

type Ledger struct {
	calc calendar.Calculator
}

func NewLedger(calc calendar.Calculator) *Ledger {
	if calc.HoursPerDay <= 0 {
		calc = calendar.NewCalculator(calendar.DefaultHoursPerDay)
	}
	return &Ledger{calc: calc}
}

// GetActiveBalance returns the first period, by valid_from, whose window
// contains asOf. It returns nil when no period does.
func (l *Ledger) GetActiveBalance(ctx context.Context, store Store, employeeID, leaveTypeID uuid.UUID, asOf time.Time) (*LeaveBalance, error) {
	balances, err := store.ListByEmployeeAndType(ctx, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	for i := range balances {
		if balances[i].Covers(asOf) {
			return &balances[i], nil
		}
	}
	return nil, nil
}

// TotalRemaining sums remaining over every period overlapping [from, to].
func (l *Ledger) TotalRemaining(ctx context.Context, store Store, employeeID, leaveTypeID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	balances, err := store.ListByEmployeeAndType(ctx, employeeID, leaveTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range balances {
		if b.Overlaps(from, to) {
			total = total.Add(b.Remaining)
		}
	}
	return total, nil
}

// Deduct books the working days of u against the periods covering them
// and appends one deduction row per period touched. Days outside every
// period are skipped.
func (l *Ledger) Deduct(ctx context.Context, store Store, u Usage, snap calendar.Snapshot) ([]Allocation, error) {
	balances, err := store.ListByEmployeeAndType(ctx, u.EmployeeID, u.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, balanceerrors.ErrNoBalance
	}

	var allocations []Allocation
	start, end := dateutil.DateOnly(u.DateFrom), dateutil.DateOnly(u.DateTo)
	for d := start; !d.After(end); {
		b := firstCovering(balances, d)
		if b == nil {
			d = d.AddDate(0, 0, 1)
			continue
		}

		subEnd := dateutil.MinDate(end, dateutil.DateOnly(b.ValidTo))
		days := l.days(d, subEnd, snap)
		if days.IsPositive() {
			b.Used = b.Used.Add(days)
			b.Recompute()
			if err := store.Save(ctx, b); err != nil {
				return nil, err
			}
			a := Allocation{
				ID:             uuid.New(),
				LeaveRequestID: u.LeaveRequestID,
				BalanceID:      b.ID,
				Kind:           AllocationDeduction,
				DateFrom:       d,
				DateTo:         subEnd,
				Days:           days,
			}
			if err := store.AppendAllocation(ctx, &a); err != nil {
				return nil, err
			}
			allocations = append(allocations, a)
		}
		d = subEnd.AddDate(0, 0, 1)
	}
	return allocations, nil
}

// Restore replays the request's allocation rows and gives back, per period,
// whatever is still booked. The calendar and balance windows at restore time
// play no part. Used never drops below zero; anything beyond it is dropped.
// Each give-back is appended as a negative restoration row, so a second
// call restores nothing.
func (l *Ledger) Restore(ctx context.Context, store Store, u Usage) ([]Allocation, error) {
	rows, err := store.ListAllocations(ctx, u.LeaveRequestID)
	if err != nil {
		return nil, err
	}

	type booked struct {
		days     decimal.Decimal
		from, to time.Time
	}
	var order []uuid.UUID
	net := map[uuid.UUID]*booked{}
	for _, a := range rows {
		bk, ok := net[a.BalanceID]
		if !ok {
			bk = &booked{days: decimal.Zero, from: a.DateFrom, to: a.DateTo}
			net[a.BalanceID] = bk
			order = append(order, a.BalanceID)
		}
		bk.days = bk.days.Add(a.Days)
		if a.DateFrom.Before(bk.from) {
			bk.from = a.DateFrom
		}
		if a.DateTo.After(bk.to) {
			bk.to = a.DateTo
		}
	}

	var restored []Allocation
	for _, id := range order {
		bk := net[id]
		if !bk.days.IsPositive() {
			continue
		}
		b, err := store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if bk.days.GreaterThan(b.Used) {
			b.Used = decimal.Zero
		} else {
			b.Used = b.Used.Sub(bk.days)
		}
		b.Recompute()
		if err := store.Save(ctx, b); err != nil {
			return nil, err
		}
		a := Allocation{
			ID:             uuid.New(),
			LeaveRequestID: u.LeaveRequestID,
			BalanceID:      id,
			Kind:           AllocationRestoration,
			DateFrom:       bk.from,
			DateTo:         bk.to,
			Days:           bk.days.Neg(),
		}
		if err := store.AppendAllocation(ctx, &a); err != nil {
			return nil, err
		}
		restored = append(restored, a)
	}
	return restored, nil
}

func (l *Ledger) days(from, to time.Time, snap calendar.Snapshot) decimal.Decimal {
	hours := l.calc.CountWorkingHours(from, to, snap)
	return decimal.NewFromInt(int64(hours)).Div(decimal.NewFromInt(int64(l.calc.HoursPerDay)))
}

func firstCovering(balances []LeaveBalance, d time.Time) *LeaveBalance {
	for i := range balances {
		if balances[i].Covers(d) {
			return &balances[i]
		}
	}
	return nil
}
