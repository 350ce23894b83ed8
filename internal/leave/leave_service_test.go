package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-empconnect/internal/approval"
	approvalerrors "go-empconnect/internal/approval/errors"
	"go-empconnect/internal/balance"
	balanceerrors "go-empconnect/internal/balance/errors"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/employee"
	"go-empconnect/internal/leave"
	leaveerrors "go-empconnect/internal/leave/errors"
	"go-empconnect/internal/leavetype"
	"go-empconnect/internal/notification"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(n int) *int { return &n }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	svc      leave.Service
	repo     *memLeaveRepository
	balances *memBalanceRepository
	dir      *fakeDirectory
	cal      *fakeCalendar
	sink     *recordingSink

	requestor  employee.Ref // routed supervisor -> manager -> hr admin
	direct     employee.Ref // routed straight to hr admin
	contractor employee.Ref
	trainee    employee.Ref
	supervisor employee.Ref
	manager    employee.Ref
	hrAdmin    employee.Ref
	iadAdmin   employee.Ref
	stranger   employee.Ref

	vacation uuid.UUID
	unpaid   uuid.UUID
	balance  uuid.UUID
}

func setupLeaveServiceTest(t *testing.T) *fixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, sqlMock: sqlMock}

	f.hrAdmin = employee.Ref{ID: uuid.New(), FullName: "HR Admin", PositionLevel: lvl(4), EmploymentType: employee.EmploymentRegular, Roles: employee.NewRoleSet(employee.RoleHRAdmin)}
	f.iadAdmin = employee.Ref{ID: uuid.New(), FullName: "IAD Admin", PositionLevel: lvl(2), EmploymentType: employee.EmploymentRegular, Roles: employee.NewRoleSet(employee.RoleIADAdmin)}
	f.manager = employee.Ref{ID: uuid.New(), FullName: "Manager", PositionLevel: lvl(3), EmploymentType: employee.EmploymentRegular}
	f.supervisor = employee.Ref{ID: uuid.New(), FullName: "Supervisor", PositionLevel: lvl(2), EmploymentType: employee.EmploymentRegular, ApproverID: &f.manager.ID}
	f.requestor = employee.Ref{ID: uuid.New(), FullName: "Operator", PositionLevel: lvl(1), EmploymentType: employee.EmploymentRegular, ApproverID: &f.supervisor.ID}
	f.direct = employee.Ref{ID: uuid.New(), FullName: "Clerk", PositionLevel: lvl(1), EmploymentType: employee.EmploymentRegular, ApproverID: &f.hrAdmin.ID}
	f.contractor = employee.Ref{ID: uuid.New(), FullName: "Contractor", PositionLevel: lvl(1), EmploymentType: employee.EmploymentContractual, ApproverID: &f.hrAdmin.ID}
	f.trainee = employee.Ref{ID: uuid.New(), FullName: "Trainee", PositionLevel: lvl(1), EmploymentType: employee.EmploymentOJT, ApproverID: &f.hrAdmin.ID}
	f.stranger = employee.Ref{ID: uuid.New(), FullName: "Stranger", PositionLevel: lvl(1), EmploymentType: employee.EmploymentRegular}

	f.dir = newFakeDirectory(f.hrAdmin, f.iadAdmin, f.manager, f.supervisor, f.requestor, f.direct, f.contractor, f.trainee, f.stranger)

	f.vacation = uuid.New()
	f.unpaid = uuid.New()
	types := &fakeLeaveTypes{types: map[uuid.UUID]leavetype.LeaveType{
		f.vacation: {ID: f.vacation, Name: "Vacation", Code: "VL", IsDeducted: true, IsActive: true},
		f.unpaid:   {ID: f.unpaid, Name: "Unpaid", Code: "LWOP", IsDeducted: false, IsActive: true},
	}}

	f.balance = uuid.New()
	f.balances = newMemBalanceRepository(
		balance.LeaveBalance{ID: f.balance, EmployeeID: f.requestor.ID, LeaveTypeID: f.vacation, Entitled: decimal.NewFromInt(10), ValidFrom: day("2025-01-01"), ValidTo: day("2025-12-31")},
		balance.LeaveBalance{ID: uuid.New(), EmployeeID: f.direct.ID, LeaveTypeID: f.vacation, Entitled: decimal.NewFromInt(10), ValidFrom: day("2025-01-01"), ValidTo: day("2025-12-31")},
	)

	f.repo = newMemLeaveRepository()
	f.cal = &fakeCalendar{}
	f.sink = &recordingSink{}

	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	f.svc = leave.NewService(leave.Deps{
		DB:         db,
		Repo:       f.repo,
		Balances:   f.balances,
		Ledger:     balance.NewLedger(calendar.NewCalculator(8)),
		Router:     approval.NewRouter(f.dir, 1),
		Directory:  f.dir,
		LeaveTypes: types,
		Calendar:   f.cal,
		Counter:    &fakeCounter{},
		Notifier:   f.sink,
		Policy:     leave.Policy{HoursPerDay: 8, CancelGraceDays: 0, ControlNumberStart: 1000},
		Now:        func() time.Time { return now },
	})
	return f
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// expectDeductionTx expects a committed transaction whose balance deduction
// either releases or rolls back its savepoint.
func expectDeductionTx(t *testing.T, mock sqlmock.Sqlmock, deducted bool) {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT balance_deduction")).WillReturnResult(sqlmock.NewResult(0, 0))
	if deducted {
		mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT balance_deduction")).WillReturnResult(sqlmock.NewResult(0, 0))
	} else {
		mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT balance_deduction")).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()
}

func (f *fixture) submit(t *testing.T, who employee.Ref, typeID uuid.UUID, from, to string) leave.LeaveResponse {
	t.Helper()
	expectTx(t, f.sqlMock, true)
	resp, err := f.svc.Submit(context.Background(), who.ID, leave.SubmitLeaveRequest{
		LeaveTypeID: typeID.String(),
		DateFrom:    from,
		DateTo:      to,
		Reason:      "family event",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) approve(t *testing.T, who employee.Ref, id string) leave.LeaveResponse {
	t.Helper()
	resp, err := f.svc.Approve(context.Background(), who.ID, id, leave.DecisionRequest{Comments: "ok"})
	require.NoError(t, err)
	return resp
}

func (f *fixture) balanceRow(id uuid.UUID) balance.LeaveBalance {
	return *f.balances.rows[id]
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("routes to the direct approver", func(t *testing.T) {
		f := setupLeaveServiceTest(t)

		resp := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

		assert.Equal(t, "1000", resp.ControlNumber)
		assert.Equal(t, leave.StatusRouting, resp.Status)
		assert.Equal(t, 5, resp.DaysRequested)
		assert.True(t, resp.HrsRequested.Equal(decimal.NewFromInt(40)))
		require.NotNil(t, resp.CurrentApproverID)
		assert.Equal(t, f.supervisor.ID.String(), *resp.CurrentApproverID)

		steps := f.repo.stepsOf(uuid.MustParse(resp.ID))
		require.Len(t, steps, 1)
		assert.Equal(t, leave.ActionSubmitted, steps[0].Action)
		assert.Equal(t, leave.StatusRouting, steps[0].Status)
		assert.Equal(t, 1, steps[0].Sequence)

		require.Len(t, f.sink.messages, 1)
		assert.Equal(t, f.supervisor.ID, f.sink.messages[0].RecipientID)
		assert.Equal(t, notification.KindLeaveSubmitted, f.sink.messages[0].Kind)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("control numbers increase", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		first := f.submit(t, f.requestor, f.unpaid, "2025-03-10", "2025-03-10")
		second := f.submit(t, f.requestor, f.unpaid, "2025-03-11", "2025-03-11")
		assert.Equal(t, "1000", first.ControlNumber)
		assert.Equal(t, "1001", second.ControlNumber)
	})

	t.Run("saturday counts, unexempted sunday does not", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		resp := f.submit(t, f.requestor, f.unpaid, "2025-03-08", "2025-03-09")
		assert.Equal(t, 1, resp.DaysRequested)
	})

	t.Run("holiday is excluded", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		f.cal.holidays = []time.Time{day("2025-03-12")}
		resp := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
		assert.Equal(t, 4, resp.DaysRequested)
		assert.True(t, resp.HrsRequested.Equal(decimal.NewFromInt(32)))
	})

	t.Run("explicit hours are kept", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		expectTx(t, f.sqlMock, true)
		hrs := decimal.NewFromInt(4)
		resp, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.vacation.String(), DateFrom: "2025-03-10", DateTo: "2025-03-10", HrsRequested: &hrs,
		})
		assert.NoError(t, err)
		assert.True(t, resp.HrsRequested.Equal(hrs))
	})

	t.Run("short notice goes to internal audit", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		resp := f.submit(t, f.requestor, f.unpaid, "2025-03-03", "2025-03-03")
		assert.Equal(t, f.iadAdmin.ID.String(), *resp.CurrentApproverID)
	})

	t.Run("inverted range", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.vacation.String(), DateFrom: "2025-03-14", DateTo: "2025-03-10",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("bad date", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.vacation.String(), DateFrom: "03/10/2025", DateTo: "2025-03-10",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("overlap with an open request", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		f.submit(t, f.requestor, f.unpaid, "2025-03-10", "2025-03-12")

		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.unpaid.String(), DateFrom: "2025-03-12", DateTo: "2025-03-13",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.Len(t, f.repo.requests, 1)
	})

	t.Run("overlap committed while waiting for the employee lock", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		other := leave.LeaveRequest{
			ID: uuid.New(), EmployeeID: f.requestor.ID, LeaveTypeID: f.unpaid,
			DateFrom: day("2025-03-11"), DateTo: day("2025-03-11"), Status: leave.StatusRouting, Version: 1,
		}
		f.repo.onLock = func() { f.repo.requests[other.ID] = other }

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.unpaid.String(), DateFrom: "2025-03-10", DateTo: "2025-03-12",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.Equal(t, []uuid.UUID{f.requestor.ID}, f.repo.locks)
		assert.Len(t, f.repo.requests, 1)
		assert.Empty(t, f.sink.messages)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("insufficient balance for a regular employee", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		row := f.balances.rows[f.balance]
		row.Used = decimal.NewFromInt(7)
		row.Recompute()

		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.vacation.String(), DateFrom: "2025-03-10", DateTo: "2025-03-14",
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.Empty(t, f.repo.requests)
	})

	t.Run("trainee without balance may file", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		resp := f.submit(t, f.trainee, f.vacation, "2025-03-10", "2025-03-14")
		assert.Equal(t, f.hrAdmin.ID.String(), *resp.CurrentApproverID)
	})

	t.Run("no direct approver", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		_, err := f.svc.Submit(ctx, f.stranger.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.unpaid.String(), DateFrom: "2025-03-10", DateTo: "2025-03-10",
		})
		assert.ErrorIs(t, err, approvalerrors.ErrNoDirectApprover)
		assert.Empty(t, f.repo.requests)
	})

	t.Run("persist failure rolls back", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		f.repo.createErr = errors.New("db down")
		expectTx(t, f.sqlMock, false)

		_, err := f.svc.Submit(ctx, f.requestor.ID, leave.SubmitLeaveRequest{
			LeaveTypeID: f.unpaid.String(), DateFrom: "2025-03-10", DateTo: "2025-03-10",
		})
		assert.EqualError(t, err, "db down")
		assert.Empty(t, f.sink.messages)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_ApprovalChain(t *testing.T) {
	f := setupLeaveServiceTest(t)
	submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
	id := uuid.MustParse(submitted.ID)

	expectTx(t, f.sqlMock, true)
	resp := f.approve(t, f.supervisor, submitted.ID)
	assert.Equal(t, leave.StatusRouting, resp.Status)
	assert.Equal(t, f.manager.ID.String(), *resp.CurrentApproverID)

	expectTx(t, f.sqlMock, true)
	resp = f.approve(t, f.manager, submitted.ID)
	assert.Equal(t, f.hrAdmin.ID.String(), *resp.CurrentApproverID)

	expectDeductionTx(t, f.sqlMock, true)
	resp = f.approve(t, f.hrAdmin, submitted.ID)
	assert.Equal(t, leave.StatusApproved, resp.Status)
	assert.Nil(t, resp.CurrentApproverID)
	assert.NotNil(t, resp.ApprovedAt)
	assert.True(t, resp.BalanceDeducted)
	assert.Empty(t, resp.Warnings)

	// two hops after submission
	steps := f.repo.stepsOf(id)
	require.Len(t, steps, 3)
	for i, s := range steps {
		assert.Equal(t, i+1, s.Sequence)
		assert.Equal(t, leave.StatusApproved, s.Status)
		assert.NotNil(t, s.ActedAt)
	}
	assert.Equal(t, leave.ActionSubmitted, steps[0].Action)
	assert.Equal(t, leave.ActionApproved, steps[1].Action)

	b := f.balanceRow(f.balance)
	assert.True(t, b.Used.Equal(decimal.NewFromInt(5)))
	assert.True(t, b.Remaining.Equal(decimal.NewFromInt(5)))

	require.Len(t, f.sink.messages, 4)
	assert.Equal(t, f.manager.ID, f.sink.messages[1].RecipientID)
	assert.Equal(t, f.hrAdmin.ID, f.sink.messages[2].RecipientID)
	assert.Equal(t, f.requestor.ID, f.sink.messages[3].RecipientID)
	assert.Equal(t, notification.KindLeaveApproved, f.sink.messages[3].Kind)

	t.Run("no further decisions once approved", func(t *testing.T) {
		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Approve(context.Background(), f.hrAdmin.ID, submitted.ID, leave.DecisionRequest{})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRouting)
	})

	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestLeaveService_DisapprovalIsSticky(t *testing.T) {
	f := setupLeaveServiceTest(t)
	ctx := context.Background()
	submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
	id := uuid.MustParse(submitted.ID)

	expectTx(t, f.sqlMock, true)
	resp, err := f.svc.Disapprove(ctx, f.supervisor.ID, submitted.ID, leave.DecisionRequest{Comments: "peak season"})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRouting, resp.Status)
	assert.Equal(t, f.manager.ID.String(), *resp.CurrentApproverID)

	expectTx(t, f.sqlMock, true)
	f.approve(t, f.manager, submitted.ID)

	// no savepoint: nothing is deducted for a disapproved request
	expectTx(t, f.sqlMock, true)
	resp = f.approve(t, f.hrAdmin, submitted.ID)
	assert.Equal(t, leave.StatusDisapproved, resp.Status)
	assert.Nil(t, resp.CurrentApproverID)
	assert.False(t, resp.BalanceDeducted)

	steps := f.repo.stepsOf(id)
	require.Len(t, steps, 3)
	assert.Equal(t, leave.ActionDisapproved, steps[0].Action)
	assert.Equal(t, "peak season", steps[0].Comments)
	for _, s := range steps {
		assert.Equal(t, leave.StatusDisapproved, s.Status)
	}
	assert.Equal(t, leave.ActionApproved, steps[2].Action)

	b := f.balanceRow(f.balance)
	assert.True(t, b.Used.IsZero())

	last := f.sink.messages[len(f.sink.messages)-1]
	assert.Equal(t, notification.KindLeaveDisapproved, last.Kind)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestLeaveService_Decide_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("only the current approver", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Approve(ctx, f.manager.ID, submitted.ID, leave.DecisionRequest{})
		assert.ErrorIs(t, err, leaveerrors.ErrNotCurrentApprover)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("lost race is a conflict", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
		f.repo.loseRace = true

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Approve(ctx, f.supervisor.ID, submitted.ID, leave.DecisionRequest{})
		assert.ErrorIs(t, err, leaveerrors.ErrConcurrentModification)

		stored := f.repo.requests[uuid.MustParse(submitted.ID)]
		assert.Equal(t, leave.StatusRouting, stored.Status)
		assert.Equal(t, f.supervisor.ID, *stored.CurrentApproverID)
		assert.Equal(t, 1, stored.Version)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown request", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Approve(ctx, f.supervisor.ID, uuid.NewString(), leave.DecisionRequest{})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		_, err := f.svc.Approve(ctx, f.supervisor.ID, "nope", leave.DecisionRequest{})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestLeaveService_FinalApprovalBalance(t *testing.T) {
	t.Run("three days from ten then cancel restores", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		var row uuid.UUID
		for id, b := range f.balances.rows {
			if b.EmployeeID == f.direct.ID {
				row = id
			}
		}

		submitted := f.submit(t, f.direct, f.vacation, "2025-03-11", "2025-03-13")
		expectDeductionTx(t, f.sqlMock, true)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Len(t, f.repo.stepsOf(uuid.MustParse(submitted.ID)), 1)

		b := f.balanceRow(row)
		assert.True(t, b.Used.Equal(decimal.NewFromInt(3)))
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(7)))

		expectTx(t, f.sqlMock, true)
		cancelled, err := f.svc.Cancel(context.Background(), f.direct.ID, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, cancelled.Status)
		assert.False(t, cancelled.BalanceDeducted)

		b = f.balanceRow(row)
		assert.True(t, b.Used.IsZero())
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(10)))

		steps := f.repo.stepsOf(uuid.MustParse(submitted.ID))
		require.Len(t, steps, 2)
		assert.Equal(t, leave.ActionCancelled, steps[1].Action)
		assert.Equal(t, 2, steps[1].Sequence)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("holiday declared after approval does not shrink the restore", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		var row uuid.UUID
		for id, b := range f.balances.rows {
			if b.EmployeeID == f.direct.ID {
				row = id
			}
		}

		submitted := f.submit(t, f.direct, f.vacation, "2025-03-11", "2025-03-13")
		expectDeductionTx(t, f.sqlMock, true)
		f.approve(t, f.hrAdmin, submitted.ID)
		assert.True(t, f.balanceRow(row).Used.Equal(decimal.NewFromInt(3)))
		require.Len(t, f.balances.allocations, 1)
		assert.Equal(t, balance.AllocationDeduction, f.balances.allocations[0].Kind)
		assert.Equal(t, uuid.MustParse(submitted.ID), f.balances.allocations[0].LeaveRequestID)

		f.cal.holidays = []time.Time{day("2025-03-12")}

		expectTx(t, f.sqlMock, true)
		_, err := f.svc.Cancel(context.Background(), f.direct.ID, submitted.ID)
		require.NoError(t, err)

		b := f.balanceRow(row)
		assert.True(t, b.Used.IsZero())
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(10)))
		require.Len(t, f.balances.allocations, 2)
		assert.Equal(t, balance.AllocationRestoration, f.balances.allocations[1].Kind)
		assert.True(t, f.balances.allocations[1].Days.Equal(decimal.NewFromInt(-3)))
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("missing balance is recorded, approval stands", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.contractor, f.vacation, "2025-03-10", "2025-03-14")

		expectDeductionTx(t, f.sqlMock, false)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.False(t, resp.BalanceDeducted)
		require.Len(t, resp.Warnings, 2)
		assert.Contains(t, resp.Warnings[0], "insufficient balance")
		assert.Contains(t, resp.Warnings[1], "balance deduction failed")

		steps := f.repo.stepsOf(uuid.MustParse(submitted.ID))
		assert.Contains(t, steps[0].Comments, "[balance warning] balance deduction failed: no leave balance exists")
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("insufficient remaining still deducts", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		var row *balance.LeaveBalance
		for _, b := range f.balances.rows {
			if b.EmployeeID == f.direct.ID {
				row = b
			}
		}
		submitted := f.submit(t, f.direct, f.vacation, "2025-03-11", "2025-03-13")
		row.Used = decimal.NewFromInt(8)
		row.Recompute()

		expectDeductionTx(t, f.sqlMock, true)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "insufficient balance: 2.00 day(s) remaining for 3 requested")

		b := f.balanceRow(row.ID)
		assert.True(t, b.Used.Equal(decimal.NewFromInt(11)))
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(-1)))
	})

	t.Run("storage failure rolls back to the savepoint", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.direct, f.vacation, "2025-03-11", "2025-03-13")
		f.balances.saveErr = errors.New("disk full")

		expectDeductionTx(t, f.sqlMock, false)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, "balance deduction failed: disk full", resp.Warnings[0])
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("trainee is never deducted", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.trainee, f.vacation, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, true)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.False(t, resp.BalanceDeducted)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("non deducting type", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.direct, f.unpaid, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, true)
		resp := f.approve(t, f.hrAdmin, submitted.ID)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Empty(t, resp.Warnings)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	seedApproved := func(f *fixture, from, to string, deducted bool) leave.LeaveRequest {
		l := leave.LeaveRequest{
			ID:              uuid.New(),
			ControlNumber:   "1500",
			EmployeeID:      f.requestor.ID,
			LeaveTypeID:     f.vacation,
			DateFrom:        day(from),
			DateTo:          day(to),
			DaysRequested:   3,
			Status:          leave.StatusApproved,
			BalanceDeducted: deducted,
			Version:         4,
		}
		f.repo.requests[l.ID] = l
		f.repo.actions = append(f.repo.actions, leave.LeaveApprovalAction{
			ID: uuid.New(), LeaveRequestID: l.ID, ApproverID: f.hrAdmin.ID, Sequence: 3,
			Kind: leave.KindStep, Action: leave.ActionApproved, Status: leave.StatusApproved,
		})
		row := f.balances.rows[f.balance]
		row.Used = decimal.NewFromInt(3)
		row.Recompute()
		if deducted {
			f.balances.allocations = append(f.balances.allocations, balance.Allocation{
				ID: uuid.New(), LeaveRequestID: l.ID, BalanceID: f.balance, Kind: balance.AllocationDeduction,
				DateFrom: l.DateFrom, DateTo: l.DateTo, Days: decimal.NewFromInt(3),
			})
		}
		return l
	}

	t.Run("routing request loses its trail", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, true)
		resp, err := f.svc.Cancel(ctx, f.requestor.ID, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.Nil(t, resp.CurrentApproverID)
		assert.NotNil(t, resp.CancelledAt)

		actions, _ := f.repo.ListActions(ctx, uuid.MustParse(submitted.ID))
		assert.Empty(t, actions)

		last := f.sink.messages[len(f.sink.messages)-1]
		assert.Equal(t, f.supervisor.ID, last.RecipientID)
		assert.Equal(t, notification.KindLeaveCancelled, last.Kind)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("cancelled dates can be filed again", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.unpaid, "2025-03-10", "2025-03-14")
		expectTx(t, f.sqlMock, true)
		_, err := f.svc.Cancel(ctx, f.requestor.ID, submitted.ID)
		require.NoError(t, err)

		f.submit(t, f.requestor, f.unpaid, "2025-03-10", "2025-03-14")
	})

	t.Run("approved request restores and keeps its trail", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		l := seedApproved(f, "2025-03-11", "2025-03-13", true)

		expectTx(t, f.sqlMock, true)
		resp, err := f.svc.Cancel(ctx, f.requestor.ID, l.ID.String())
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.Equal(t, 5, resp.Version)

		b := f.balanceRow(f.balance)
		assert.True(t, b.Used.IsZero())
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(10)))

		steps := f.repo.stepsOf(l.ID)
		require.Len(t, steps, 2)
		assert.Equal(t, 4, steps[1].Sequence)
		assert.Equal(t, leave.StatusCancelled, steps[1].Status)

		last := f.sink.messages[len(f.sink.messages)-1]
		assert.Equal(t, f.hrAdmin.ID, last.RecipientID)
	})

	t.Run("restoration failure aborts", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		l := seedApproved(f, "2025-03-11", "2025-03-13", true)
		f.balances.saveErr = errors.New("disk full")

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Cancel(ctx, f.requestor.ID, l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrRestorationFailed)
		assert.Contains(t, err.Error(), "disk full")

		stored := f.repo.requests[l.ID]
		assert.Equal(t, leave.StatusApproved, stored.Status)
		assert.True(t, stored.BalanceDeducted)
		assert.Len(t, f.repo.stepsOf(l.ID), 1)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("approved leave that already started", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		l := seedApproved(f, "2025-02-26", "2025-02-28", true)

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Cancel(ctx, f.requestor.ID, l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrCancelWindowClosed)
	})

	t.Run("approved without deduction skips restore", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		l := seedApproved(f, "2025-03-03", "2025-03-03", false)
		f.balances.saveErr = errors.New("must not be called")

		expectTx(t, f.sqlMock, true)
		resp, err := f.svc.Cancel(ctx, f.requestor.ID, l.ID.String())
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
	})

	t.Run("disapproved is final", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		l := seedApproved(f, "2025-03-11", "2025-03-13", false)
		l.Status = leave.StatusDisapproved
		f.repo.requests[l.ID] = l

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Cancel(ctx, f.requestor.ID, l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrNotCancellable)
	})

	t.Run("disapproved request still routing keeps its trail", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
		id := uuid.MustParse(submitted.ID)

		expectTx(t, f.sqlMock, true)
		_, err := f.svc.Disapprove(ctx, f.supervisor.ID, submitted.ID, leave.DecisionRequest{Comments: "peak season"})
		require.NoError(t, err)

		expectTx(t, f.sqlMock, false)
		_, err = f.svc.Cancel(ctx, f.requestor.ID, submitted.ID)
		assert.ErrorIs(t, err, leaveerrors.ErrNotCancellable)

		stored := f.repo.requests[id]
		assert.Equal(t, leave.StatusRouting, stored.Status)
		assert.True(t, stored.Disapproved)
		steps := f.repo.stepsOf(id)
		require.Len(t, steps, 2)
		assert.Equal(t, leave.ActionDisapproved, steps[0].Action)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("only the owner", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Cancel(ctx, f.supervisor.ID, submitted.ID)
		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	})
}

func TestLeaveService_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("edit note keeps the chain position", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
		id := uuid.MustParse(submitted.ID)

		expectTx(t, f.sqlMock, true)
		resp, err := f.svc.Edit(ctx, f.requestor.ID, submitted.ID, leave.EditLeaveRequest{
			DateFrom: "2025-03-10", DateTo: "2025-03-11", Reason: "shorter",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.DaysRequested)
		assert.Equal(t, "shorter", resp.Reason)
		assert.Equal(t, f.supervisor.ID.String(), *resp.CurrentApproverID)

		all, _ := f.repo.ListActions(ctx, id)
		require.Len(t, all, 2)
		note := all[1]
		assert.Equal(t, leave.KindEditNote, note.Kind)
		assert.Equal(t, leave.ActionUpdated, note.Action)
		assert.Equal(t, 1, note.Sequence)
		assert.Equal(t, "Updated my leave request", note.Comments)
		assert.Len(t, f.repo.stepsOf(id), 1)

		expectTx(t, f.sqlMock, true)
		f.approve(t, f.supervisor, submitted.ID)
		steps := f.repo.stepsOf(id)
		require.Len(t, steps, 2)
		assert.Equal(t, 2, steps[1].Sequence)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("only the owner", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Edit(ctx, f.supervisor.ID, submitted.ID, leave.EditLeaveRequest{DateFrom: "2025-03-10", DateTo: "2025-03-10"})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	})

	t.Run("only while routing", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.direct, f.unpaid, "2025-03-10", "2025-03-14")
		expectTx(t, f.sqlMock, true)
		f.approve(t, f.hrAdmin, submitted.ID)

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Edit(ctx, f.direct.ID, submitted.ID, leave.EditLeaveRequest{DateFrom: "2025-03-10", DateTo: "2025-03-10"})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRouting)
	})

	t.Run("not after a disapproval", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")
		expectTx(t, f.sqlMock, true)
		_, err := f.svc.Disapprove(ctx, f.supervisor.ID, submitted.ID, leave.DecisionRequest{})
		require.NoError(t, err)

		expectTx(t, f.sqlMock, false)
		_, err = f.svc.Edit(ctx, f.requestor.ID, submitted.ID, leave.EditLeaveRequest{DateFrom: "2025-03-10", DateTo: "2025-03-10"})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRouting)

		stored := f.repo.requests[uuid.MustParse(submitted.ID)]
		assert.Equal(t, 5, stored.DaysRequested)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("cannot overlap another request", func(t *testing.T) {
		f := setupLeaveServiceTest(t)
		f.submit(t, f.requestor, f.unpaid, "2025-03-17", "2025-03-18")
		submitted := f.submit(t, f.requestor, f.unpaid, "2025-03-10", "2025-03-14")

		expectTx(t, f.sqlMock, false)
		_, err := f.svc.Edit(ctx, f.requestor.ID, submitted.ID, leave.EditLeaveRequest{DateFrom: "2025-03-14", DateTo: "2025-03-17"})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})
}

func TestLeaveService_Queries(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveServiceTest(t)
	submitted := f.submit(t, f.requestor, f.vacation, "2025-03-10", "2025-03-14")

	t.Run("owner and approvers can read", func(t *testing.T) {
		_, err := f.svc.GetByID(ctx, f.requestor.ID, submitted.ID)
		assert.NoError(t, err)

		actions, err := f.svc.ListActions(ctx, f.supervisor.ID, submitted.ID)
		assert.NoError(t, err)
		assert.Len(t, actions, 1)
	})

	t.Run("others cannot", func(t *testing.T) {
		_, err := f.svc.GetByID(ctx, f.stranger.ID, submitted.ID)
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveAccessDenied)
	})

	t.Run("pending inbox", func(t *testing.T) {
		pending, err := f.svc.ListPendingFor(ctx, f.supervisor.ID)
		assert.NoError(t, err)
		assert.Len(t, pending, 1)

		pending, err = f.svc.ListPendingFor(ctx, f.manager.ID)
		assert.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("mine", func(t *testing.T) {
		mine, err := f.svc.ListMine(ctx, f.requestor.ID)
		assert.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, submitted.ControlNumber, mine[0].ControlNumber)
	})
}
