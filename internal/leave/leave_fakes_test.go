package leave_test

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go-empconnect/internal/balance"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/employee"
	employeeerrors "go-empconnect/internal/employee/errors"
	"go-empconnect/internal/leave"
	"go-empconnect/internal/leavetype"
	leavetypeerrors "go-empconnect/internal/leavetype/errors"
	"go-empconnect/internal/notification"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memLeaveRepository keeps requests and actions in memory and enforces the
// version check the way the SQL update does.
type memLeaveRepository struct {
	requests map[uuid.UUID]leave.LeaveRequest
	actions  []leave.LeaveApprovalAction

	loseRace  bool
	createErr error

	locks  []uuid.UUID
	onLock func()
}

func newMemLeaveRepository() *memLeaveRepository {
	return &memLeaveRepository{requests: map[uuid.UUID]leave.LeaveRequest{}}
}

func (r *memLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return r }

func (r *memLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.requests[l.ID] = *l
	return nil
}

func (r *memLeaveRepository) FindByID(ctx context.Context, id uuid.UUID) (*leave.LeaveRequest, error) {
	l, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *memLeaveRepository) UpdateVersioned(ctx context.Context, l *leave.LeaveRequest) (bool, error) {
	stored, ok := r.requests[l.ID]
	if !ok || r.loseRace || stored.Version != l.Version {
		return false, nil
	}
	l.Version++
	r.requests[l.ID] = *l
	return true, nil
}

func (r *memLeaveRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range r.requests {
		if l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateFrom.After(out[j].DateFrom) })
	return out, nil
}

func (r *memLeaveRepository) ListPendingFor(ctx context.Context, approverID uuid.UUID) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range r.requests {
		if l.Status == leave.StatusRouting && l.CurrentApproverID != nil && *l.CurrentApproverID == approverID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLeaveRepository) HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, l := range r.requests {
		if l.EmployeeID != employeeID || l.Status == leave.StatusCancelled {
			continue
		}
		if excludeID != nil && l.ID == *excludeID {
			continue
		}
		if dateutil.Overlaps(l.DateFrom, l.DateTo, from, to) {
			return true, nil
		}
	}
	return false, nil
}

// LockEmployee records the lock; onLock stands in for a writer that
// committed just before the lock was granted.
func (r *memLeaveRepository) LockEmployee(ctx context.Context, employeeID uuid.UUID) error {
	r.locks = append(r.locks, employeeID)
	if r.onLock != nil {
		r.onLock()
		r.onLock = nil
	}
	return nil
}

func (r *memLeaveRepository) CreateAction(ctx context.Context, a *leave.LeaveApprovalAction) error {
	r.actions = append(r.actions, *a)
	return nil
}

func (r *memLeaveRepository) UpdateAction(ctx context.Context, a *leave.LeaveApprovalAction) error {
	for i := range r.actions {
		if r.actions[i].ID == a.ID {
			r.actions[i] = *a
		}
	}
	return nil
}

func (r *memLeaveRepository) ListActions(ctx context.Context, requestID uuid.UUID) ([]leave.LeaveApprovalAction, error) {
	var out []leave.LeaveApprovalAction
	for _, a := range r.actions {
		if a.LeaveRequestID == requestID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *memLeaveRepository) DeleteActions(ctx context.Context, requestID uuid.UUID) error {
	kept := r.actions[:0]
	for _, a := range r.actions {
		if a.LeaveRequestID != requestID {
			kept = append(kept, a)
		}
	}
	r.actions = kept
	return nil
}

func (r *memLeaveRepository) stepsOf(requestID uuid.UUID) []leave.LeaveApprovalAction {
	all, _ := r.ListActions(context.Background(), requestID)
	var steps []leave.LeaveApprovalAction
	for _, a := range all {
		if a.Kind == leave.KindStep {
			steps = append(steps, a)
		}
	}
	return steps
}

type memBalanceRepository struct {
	rows        map[uuid.UUID]*balance.LeaveBalance
	allocations []balance.Allocation
	saveErr     error
}

func newMemBalanceRepository(rows ...balance.LeaveBalance) *memBalanceRepository {
	r := &memBalanceRepository{rows: map[uuid.UUID]*balance.LeaveBalance{}}
	for i := range rows {
		b := rows[i]
		b.Recompute()
		r.rows[b.ID] = &b
	}
	return r
}

func (r *memBalanceRepository) WithTx(tx *sql.Tx) balance.Repository { return r }

func (r *memBalanceRepository) ListByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID uuid.UUID) ([]balance.LeaveBalance, error) {
	var out []balance.LeaveBalance
	for _, b := range r.rows {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}

func (r *memBalanceRepository) Save(ctx context.Context, b *balance.LeaveBalance) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *b
	r.rows[b.ID] = &cp
	return nil
}

func (r *memBalanceRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]balance.LeaveBalance, error) {
	var out []balance.LeaveBalance
	for _, b := range r.rows {
		if b.EmployeeID == employeeID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBalanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*balance.LeaveBalance, error) {
	b, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBalanceRepository) Create(ctx context.Context, b *balance.LeaveBalance) error {
	cp := *b
	r.rows[b.ID] = &cp
	return nil
}

func (r *memBalanceRepository) AppendAllocation(ctx context.Context, a *balance.Allocation) error {
	r.allocations = append(r.allocations, *a)
	return nil
}

func (r *memBalanceRepository) ListAllocations(ctx context.Context, leaveRequestID uuid.UUID) ([]balance.Allocation, error) {
	var out []balance.Allocation
	for _, a := range r.allocations {
		if a.LeaveRequestID == leaveRequestID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memBalanceRepository) UpdateLocked(ctx context.Context, id uuid.UUID, mutate func(*balance.LeaveBalance) error) (*balance.LeaveBalance, error) {
	b, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	cp.Recompute()
	r.rows[id] = &cp
	return &cp, nil
}

// fakeDirectory keeps insertion order so role lookups are deterministic.
type fakeDirectory struct {
	order []uuid.UUID
	refs  map[uuid.UUID]employee.Ref
}

func newFakeDirectory(refs ...employee.Ref) *fakeDirectory {
	d := &fakeDirectory{refs: map[uuid.UUID]employee.Ref{}}
	for _, r := range refs {
		d.order = append(d.order, r.ID)
		d.refs[r.ID] = r
	}
	return d
}

func (d *fakeDirectory) Get(ctx context.Context, id uuid.UUID) (employee.Ref, error) {
	r, ok := d.refs[id]
	if !ok {
		return employee.Ref{}, employeeerrors.ErrEmployeeNotFound
	}
	return r, nil
}

func (d *fakeDirectory) DirectApproverOf(ctx context.Context, emp employee.Ref) (*employee.Ref, error) {
	if emp.ApproverID == nil {
		return nil, nil
	}
	r, ok := d.refs[*emp.ApproverID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (d *fakeDirectory) EmployeesWithRole(ctx context.Context, role employee.Role) ([]employee.Ref, error) {
	var out []employee.Ref
	for _, id := range d.order {
		if d.refs[id].HasRole(role) {
			out = append(out, d.refs[id])
		}
	}
	return out, nil
}

type fakeLeaveTypes struct {
	types map[uuid.UUID]leavetype.LeaveType
}

func (f *fakeLeaveTypes) Resolve(ctx context.Context, id uuid.UUID, reasonID *uuid.UUID) (*leavetype.LeaveType, error) {
	lt, ok := f.types[id]
	if !ok {
		return nil, leavetypeerrors.ErrLeaveTypeNotFound
	}
	if !lt.IsActive {
		return nil, leavetypeerrors.ErrLeaveTypeInactive
	}
	return &lt, nil
}

func (f *fakeLeaveTypes) Lookup(ctx context.Context, id uuid.UUID) (*leavetype.LeaveType, error) {
	lt, ok := f.types[id]
	if !ok {
		return nil, leavetypeerrors.ErrLeaveTypeNotFound
	}
	return &lt, nil
}

type fakeCalendar struct {
	holidays   []time.Time
	exceptions []time.Time
}

func (f *fakeCalendar) Snapshot(ctx context.Context, start, end time.Time) (calendar.Snapshot, error) {
	return calendar.NewSnapshot(f.holidays, f.exceptions), nil
}

type fakeCounter struct {
	value int64
}

func (f *fakeCounter) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	f.value++
	return f.value, nil
}

type recordingSink struct {
	messages []notification.Message
}

func (s *recordingSink) Notify(ctx context.Context, msg notification.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}
