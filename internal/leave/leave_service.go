package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-empconnect/internal/approval"
	"go-empconnect/internal/balance"
	balanceerrors "go-empconnect/internal/balance/errors"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/employee"
	leaveerrors "go-empconnect/internal/leave/errors"
	"go-empconnect/internal/leavetype"
	"go-empconnect/internal/notification"
	"go-empconnect/internal/shared/apperror"
	"go-empconnect/internal/shared/contextutil"
	"go-empconnect/internal/shared/counter"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultControlNumberStart = 1000

	editNoteComment      = "Updated my leave request"
	cancelComment        = "Cancelled by requestor"
	balanceWarningPrefix = "[balance warning] "
	deductionSavepoint   = "balance_deduction"
)

// Policy holds the leave knobs that come from configuration.
type Policy struct {
	HoursPerDay        int
	CancelGraceDays    int
	ControlNumberStart int64
}

// Deps wires the collaborators of the leave workflow.
type Deps struct {
	DB         *sql.DB
	Repo       Repository
	Balances   balance.Repository
	Ledger     *balance.Ledger
	Router     *approval.Router
	Directory  employee.Directory
	LeaveTypes leavetype.Resolver
	Calendar   calendar.Source
	Counter    counter.Repository
	Notifier   notification.Sink
	Policy     Policy
	Now        func() time.Time
}

type Service interface {
	Submit(ctx context.Context, actorID uuid.UUID, req SubmitLeaveRequest) (LeaveResponse, error)
	Edit(ctx context.Context, actorID uuid.UUID, id string, req EditLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actorID uuid.UUID, id string, req DecisionRequest) (LeaveResponse, error)
	Disapprove(ctx context.Context, actorID uuid.UUID, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID uuid.UUID, id string) (LeaveResponse, error)
	GetByID(ctx context.Context, actorID uuid.UUID, id string) (LeaveResponse, error)
	ListMine(ctx context.Context, actorID uuid.UUID) ([]LeaveResponse, error)
	ListPendingFor(ctx context.Context, approverID uuid.UUID) ([]LeaveResponse, error)
	ListActions(ctx context.Context, actorID uuid.UUID, id string) ([]ApprovalActionResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	balances   balance.Repository
	ledger     *balance.Ledger
	router     *approval.Router
	directory  employee.Directory
	leaveTypes leavetype.Resolver
	calendar   calendar.Source
	calc       calendar.Calculator
	counter    counter.Repository
	notifier   notification.Sink
	policy     Policy
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}

	policy := deps.Policy
	if policy.HoursPerDay <= 0 {
		policy.HoursPerDay = calendar.DefaultHoursPerDay
	}
	if policy.CancelGraceDays < 0 {
		policy.CancelGraceDays = 0
	}
	if policy.ControlNumberStart <= 0 {
		policy.ControlNumberStart = DefaultControlNumberStart
	}

	calc := calendar.NewCalculator(policy.HoursPerDay)
	ledger := deps.Ledger
	if ledger == nil {
		ledger = balance.NewLedger(calc)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.NopSink{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		db:         deps.DB,
		repo:       deps.Repo,
		balances:   deps.Balances,
		ledger:     ledger,
		router:     deps.Router,
		directory:  deps.Directory,
		leaveTypes: deps.LeaveTypes,
		calendar:   deps.Calendar,
		calc:       calc,
		counter:    deps.Counter,
		notifier:   notifier,
		policy:     policy,
		now:        now,
		logger:     l,
	}
}

func (s *service) log(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) today() time.Time {
	return dateutil.DateOnly(s.now())
}

func (s *service) Submit(ctx context.Context, actorID uuid.UUID, req SubmitLeaveRequest) (LeaveResponse, error) {
	log := s.log(ctx)
	log.Debug("submit leave requested",
		zap.String("actor_id", actorID.String()),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("date_from", req.DateFrom),
		zap.String("date_to", req.DateTo),
	)

	typeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveTypeID
	}
	reasonID, err := parseOptionalID(req.LeaveReasonID)
	if err != nil {
		return LeaveResponse{}, err
	}
	from, to, err := parseRange(req.DateFrom, req.DateTo)
	if err != nil {
		log.Warn("submit leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	requestor, err := s.directory.Get(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	lt, err := s.leaveTypes.Resolve(ctx, typeID, reasonID)
	if err != nil {
		log.Warn("submit leave type rejected", zap.String("leave_type_id", req.LeaveTypeID), zap.Error(err))
		return LeaveResponse{}, err
	}

	days, err := s.countDays(ctx, from, to)
	if err != nil {
		return LeaveResponse{}, err
	}
	hours, err := s.hours(req.HrsRequested, days)
	if err != nil {
		return LeaveResponse{}, err
	}

	overlap, err := s.repo.HasOverlappingPeriod(ctx, actorID, from, to, nil)
	if err != nil {
		log.Error("submit leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("submit leave overlap detected",
			zap.String("employee_id", actorID.String()),
			zap.String("date_from", req.DateFrom),
			zap.String("date_to", req.DateTo),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	if err := s.checkBalance(ctx, requestor, lt, from, days); err != nil {
		return LeaveResponse{}, err
	}

	approver, err := s.router.InitialApprover(ctx, requestor, lt.GoToClinic, from, s.today())
	if err != nil {
		return LeaveResponse{}, err
	}

	controlNumber, err := s.nextControlNumber(ctx)
	if err != nil {
		log.Error("submit leave control number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	now := s.now().UTC()
	l := &LeaveRequest{
		ID:                uuid.New(),
		ControlNumber:     controlNumber,
		EmployeeID:        actorID,
		LeaveTypeID:       lt.ID,
		LeaveReasonID:     reasonID,
		DateFrom:          from,
		DateTo:            to,
		DaysRequested:     days,
		HrsRequested:      hours,
		Reason:            req.Reason,
		CurrentApproverID: &approver.ID,
		Status:            StatusRouting,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	first := &LeaveApprovalAction{
		ID:             uuid.New(),
		LeaveRequestID: l.ID,
		ApproverID:     approver.ID,
		Sequence:       1,
		Kind:           KindStep,
		Action:         ActionSubmitted,
		Status:         StatusRouting,
		CreatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.LockEmployee(ctx, actorID); err != nil {
		log.Error("submit leave employee lock failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	// re-check under the lock; a concurrent submit may have committed
	overlap, err = qtx.HasOverlappingPeriod(ctx, actorID, from, to, nil)
	if err != nil {
		log.Error("submit leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("submit leave overlap detected under lock", zap.String("employee_id", actorID.String()))
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}
	if err := qtx.Create(ctx, l); err != nil {
		log.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := qtx.CreateAction(ctx, first); err != nil {
		log.Error("submit leave first step persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("submit leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("control_number", l.ControlNumber),
		zap.String("approver_id", approver.ID.String()),
		zap.Int("days_requested", days),
	)

	s.notify(ctx, notification.Message{
		RecipientID:    approver.ID,
		Title:          "Leave request for approval",
		Body:           fmt.Sprintf("%s filed leave request %s (%s to %s).", requestor.FullName, l.ControlNumber, dateutil.Format(from), dateutil.Format(to)),
		Kind:           notification.KindLeaveSubmitted,
		LeaveRequestID: l.ID,
	})

	return mapToResponse(*l), nil
}

func (s *service) Edit(ctx context.Context, actorID uuid.UUID, id string, req EditLeaveRequest) (LeaveResponse, error) {
	log := s.log(ctx)
	log.Debug("edit leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID.String()),
	)

	leaveID, err := parseID(id)
	if err != nil {
		return LeaveResponse{}, err
	}
	reasonID, err := parseOptionalID(req.LeaveReasonID)
	if err != nil {
		return LeaveResponse{}, err
	}
	from, to, err := parseRange(req.DateFrom, req.DateTo)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("edit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := s.find(ctx, qtx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	// a disapproved request keeps routing for notice only
	if l.Status != StatusRouting || l.Disapproved {
		return LeaveResponse{}, leaveerrors.ErrNotRouting
	}

	requestor, err := s.directory.Get(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	lt, err := s.leaveTypes.Resolve(ctx, l.LeaveTypeID, reasonID)
	if err != nil {
		return LeaveResponse{}, err
	}

	days, err := s.countDays(ctx, from, to)
	if err != nil {
		return LeaveResponse{}, err
	}
	hours, err := s.hours(req.HrsRequested, days)
	if err != nil {
		return LeaveResponse{}, err
	}

	if err := qtx.LockEmployee(ctx, actorID); err != nil {
		log.Error("edit leave employee lock failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	overlap, err := qtx.HasOverlappingPeriod(ctx, actorID, from, to, &l.ID)
	if err != nil {
		log.Error("edit leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}
	if err := s.checkBalance(ctx, requestor, lt, from, days); err != nil {
		return LeaveResponse{}, err
	}

	actions, err := qtx.ListActions(ctx, l.ID)
	if err != nil {
		return LeaveResponse{}, err
	}
	step := openStep(actions)
	if step == nil {
		log.Error("edit leave found no open step", zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrRoutingStepMissing
	}

	l.LeaveReasonID = reasonID
	l.DateFrom = from
	l.DateTo = to
	l.DaysRequested = days
	l.HrsRequested = hours
	l.Reason = req.Reason

	if err := s.persist(ctx, qtx, l); err != nil {
		return LeaveResponse{}, err
	}

	now := s.now().UTC()
	note := &LeaveApprovalAction{
		ID:             uuid.New(),
		LeaveRequestID: l.ID,
		ApproverID:     actorID,
		Sequence:       step.Sequence,
		Kind:           KindEditNote,
		Action:         ActionUpdated,
		Status:         StatusRouting,
		Comments:       editNoteComment,
		ActedAt:        &now,
		CreatedAt:      now,
	}
	if err := qtx.CreateAction(ctx, note); err != nil {
		log.Error("edit leave note persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("edit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	log.Info("edit leave success",
		zap.String("leave_id", id),
		zap.Int("days_requested", days),
	)

	if l.CurrentApproverID != nil {
		s.notify(ctx, notification.Message{
			RecipientID:    *l.CurrentApproverID,
			Title:          "Leave request updated",
			Body:           fmt.Sprintf("%s updated leave request %s (%s to %s).", requestor.FullName, l.ControlNumber, dateutil.Format(from), dateutil.Format(to)),
			Kind:           notification.KindLeaveUpdated,
			LeaveRequestID: l.ID,
		})
	}

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actorID uuid.UUID, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actorID, id, ActionApproved, req.Comments)
}

func (s *service) Disapprove(ctx context.Context, actorID uuid.UUID, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actorID, id, ActionDisapproved, req.Comments)
}

// decide resolves the current approver's step and routes the request on.
// A disapproval keeps routing upward for notice but the outcome stays
// disapproved.
func (s *service) decide(ctx context.Context, actorID uuid.UUID, id string, decision Action, comments string) (LeaveResponse, error) {
	log := s.log(ctx)
	log.Debug("leave decision requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID.String()),
		zap.String("decision", string(decision)),
	)

	leaveID, err := parseID(id)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("leave decision begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := s.find(ctx, qtx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status != StatusRouting {
		return LeaveResponse{}, leaveerrors.ErrNotRouting
	}
	if l.CurrentApproverID == nil || *l.CurrentApproverID != actorID {
		log.Warn("leave decision by non-approver",
			zap.String("leave_id", id),
			zap.String("actor_id", actorID.String()),
		)
		return LeaveResponse{}, leaveerrors.ErrNotCurrentApprover
	}

	actions, err := qtx.ListActions(ctx, l.ID)
	if err != nil {
		return LeaveResponse{}, err
	}
	step := openStep(actions)
	if step == nil || step.ApproverID != actorID {
		log.Error("leave decision found no open step", zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrRoutingStepMissing
	}

	approver, err := s.directory.Get(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	requestor, err := s.directory.Get(ctx, l.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	next, err := s.router.NextApprover(ctx, approver, requestor, approverIDs(actions))
	if err != nil {
		log.Error("leave decision next approver lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	now := s.now().UTC()
	if decision == ActionDisapproved {
		l.Disapproved = true
	}
	step.Action = decision
	step.Status = StatusApproved
	if l.Disapproved {
		step.Status = StatusDisapproved
	}
	step.Comments = comments
	step.ActedAt = &now

	var (
		warnings []string
		nextStep *LeaveApprovalAction
	)
	if next != nil {
		l.CurrentApproverID = &next.ID
		nextStep = &LeaveApprovalAction{
			ID:             uuid.New(),
			LeaveRequestID: l.ID,
			ApproverID:     next.ID,
			Sequence:       maxSequence(actions) + 1,
			Kind:           KindStep,
			Action:         ActionForwarded,
			Status:         StatusRouting,
			CreatedAt:      now,
		}
	} else {
		l.CurrentApproverID = nil
		if l.Disapproved {
			l.Status = StatusDisapproved
		} else {
			l.Status = StatusApproved
			l.ApprovedAt = &now
			warnings, err = s.settleBalance(ctx, tx, l, requestor)
			if err != nil {
				return LeaveResponse{}, err
			}
		}
	}
	for _, w := range warnings {
		step.Comments = appendComment(step.Comments, balanceWarningPrefix+w)
	}

	if err := qtx.UpdateAction(ctx, step); err != nil {
		log.Error("leave decision step persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if nextStep != nil {
		if err := qtx.CreateAction(ctx, nextStep); err != nil {
			log.Error("leave decision next step persist failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}
	if err := s.persist(ctx, qtx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("leave decision commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("leave decision success",
		zap.String("leave_id", id),
		zap.String("decision", string(decision)),
		zap.String("status", string(l.Status)),
		zap.Bool("balance_deducted", l.BalanceDeducted),
		zap.Int("warnings", len(warnings)),
	)

	if nextStep != nil {
		s.notify(ctx, notification.Message{
			RecipientID:    next.ID,
			Title:          "Leave request for approval",
			Body:           fmt.Sprintf("Leave request %s of %s was forwarded to you.", l.ControlNumber, requestor.FullName),
			Kind:           notification.KindLeaveForwarded,
			LeaveRequestID: l.ID,
		})
	} else {
		kind := notification.KindLeaveApproved
		if l.Status == StatusDisapproved {
			kind = notification.KindLeaveDisapproved
		}
		s.notify(ctx, notification.Message{
			RecipientID:    l.EmployeeID,
			Title:          "Leave request " + string(l.Status),
			Body:           fmt.Sprintf("Your leave request %s was %s.", l.ControlNumber, l.Status),
			Kind:           kind,
			LeaveRequestID: l.ID,
		})
	}

	resp := mapToResponse(*l)
	resp.Warnings = warnings
	return resp, nil
}

// settleBalance deducts a finally approved request inside a savepoint.
// Deduction problems become warnings and the approval stands; only a broken
// savepoint is returned as an error.
func (s *service) settleBalance(ctx context.Context, tx *sql.Tx, l *LeaveRequest, requestor employee.Ref) ([]string, error) {
	log := s.log(ctx).With(zap.String("leave_id", l.ID.String()))

	if requestor.SkipsBalance() {
		return nil, nil
	}
	lt, err := s.leaveTypes.Lookup(ctx, l.LeaveTypeID)
	if err != nil {
		log.Warn("balance deduction leave type lookup failed", zap.Error(err))
		return []string{"balance deduction failed: " + describe(err)}, nil
	}
	if !lt.IsDeducted {
		return nil, nil
	}
	snap, err := s.calendar.Snapshot(ctx, l.DateFrom, l.DateTo)
	if err != nil {
		log.Warn("balance deduction calendar load failed", zap.Error(err))
		return []string{"balance deduction failed: " + describe(err)}, nil
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+deductionSavepoint); err != nil {
		log.Error("balance deduction savepoint failed", zap.Error(err))
		return nil, err
	}

	var warnings []string
	store := s.balances.WithTx(tx)
	requested := decimal.NewFromInt(int64(l.DaysRequested))

	total, err := s.ledger.TotalRemaining(ctx, store, l.EmployeeID, l.LeaveTypeID, l.DateFrom, l.DateTo)
	if err == nil && total.LessThan(requested) {
		warnings = append(warnings, fmt.Sprintf("insufficient balance: %s day(s) remaining for %d requested", total.StringFixed(2), l.DaysRequested))
	}

	var allocations []balance.Allocation
	if err == nil {
		allocations, err = s.ledger.Deduct(ctx, store, usageOf(l), snap)
	}
	if err != nil {
		log.Warn("balance deduction failed, approval kept", zap.Error(err))
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+deductionSavepoint); rbErr != nil {
			log.Error("balance deduction rollback to savepoint failed", zap.Error(rbErr))
			return nil, rbErr
		}
		return append(warnings, "balance deduction failed: "+describe(err)), nil
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+deductionSavepoint); err != nil {
		log.Error("balance deduction release savepoint failed", zap.Error(err))
		return nil, err
	}
	l.BalanceDeducted = len(allocations) > 0

	log.Info("balance deducted",
		zap.Int("periods", len(allocations)),
		zap.Int("days_requested", l.DaysRequested),
	)
	return warnings, nil
}

// Cancel withdraws a request. A routing request loses its whole approval
// trail unless someone already disapproved it, in which case it cannot be
// cancelled. An approved one keeps its trail, gets a cancelled step and has
// its balance restored.
func (s *service) Cancel(ctx context.Context, actorID uuid.UUID, id string) (LeaveResponse, error) {
	log := s.log(ctx)
	log.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID.String()),
	)

	leaveID, err := parseID(id)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := s.find(ctx, qtx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}

	now := s.now().UTC()
	notifyID := l.CurrentApproverID

	switch l.Status {
	case StatusRouting:
		if l.Disapproved {
			log.Warn("cancel leave rejected after disapproval", zap.String("leave_id", id))
			return LeaveResponse{}, leaveerrors.ErrNotCancellable
		}
		if err := qtx.DeleteActions(ctx, l.ID); err != nil {
			log.Error("cancel leave wipe actions failed", zap.Error(err))
			return LeaveResponse{}, err
		}

	case StatusApproved:
		deadline := dateutil.DateOnly(l.DateFrom).AddDate(0, 0, s.policy.CancelGraceDays)
		if s.today().After(deadline) {
			log.Warn("cancel leave past grace window",
				zap.String("leave_id", id),
				zap.String("deadline", dateutil.Format(deadline)),
			)
			return LeaveResponse{}, leaveerrors.ErrCancelWindowClosed
		}

		if l.BalanceDeducted {
			if err := s.restoreBalance(ctx, tx, l); err != nil {
				log.Error("cancel leave balance restoration failed", zap.String("leave_id", id), zap.Error(err))
				return LeaveResponse{}, leaveerrors.ErrRestorationFailed.WithCause(err)
			}
			l.BalanceDeducted = false
		}

		actions, err := qtx.ListActions(ctx, l.ID)
		if err != nil {
			return LeaveResponse{}, err
		}
		if last := lastApprover(actions); last != uuid.Nil {
			notifyID = &last
		}
		if err := qtx.CreateAction(ctx, &LeaveApprovalAction{
			ID:             uuid.New(),
			LeaveRequestID: l.ID,
			ApproverID:     actorID,
			Sequence:       maxSequence(actions) + 1,
			Kind:           KindStep,
			Action:         ActionCancelled,
			Status:         StatusCancelled,
			Comments:       cancelComment,
			ActedAt:        &now,
			CreatedAt:      now,
		}); err != nil {
			log.Error("cancel leave step persist failed", zap.Error(err))
			return LeaveResponse{}, err
		}

	default:
		return LeaveResponse{}, leaveerrors.ErrNotCancellable
	}

	previous := l.Status
	l.Status = StatusCancelled
	l.CurrentApproverID = nil
	l.CancelledAt = &now

	if err := s.persist(ctx, qtx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("cancel leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	log.Info("cancel leave success",
		zap.String("leave_id", id),
		zap.String("previous_status", string(previous)),
	)

	if notifyID != nil && *notifyID != actorID {
		s.notify(ctx, notification.Message{
			RecipientID:    *notifyID,
			Title:          "Leave request cancelled",
			Body:           fmt.Sprintf("Leave request %s was cancelled by the requestor.", l.ControlNumber),
			Kind:           notification.KindLeaveCancelled,
			LeaveRequestID: l.ID,
		})
	}

	return mapToResponse(*l), nil
}

// restoreBalance gives back what the approval-time deduction booked, as
// recorded in the allocation rows.
func (s *service) restoreBalance(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	restored, err := s.ledger.Restore(ctx, s.balances.WithTx(tx), usageOf(l))
	if err != nil {
		return err
	}
	s.log(ctx).Info("balance restored",
		zap.String("leave_id", l.ID.String()),
		zap.Int("periods", len(restored)),
	)
	return nil
}

func usageOf(l *LeaveRequest) balance.Usage {
	return balance.Usage{
		LeaveRequestID: l.ID,
		EmployeeID:     l.EmployeeID,
		LeaveTypeID:    l.LeaveTypeID,
		DateFrom:       l.DateFrom,
		DateTo:         l.DateTo,
	}
}

func (s *service) GetByID(ctx context.Context, actorID uuid.UUID, id string) (LeaveResponse, error) {
	l, _, err := s.visible(ctx, actorID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) ListActions(ctx context.Context, actorID uuid.UUID, id string) ([]ApprovalActionResponse, error) {
	_, actions, err := s.visible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	resp := make([]ApprovalActionResponse, len(actions))
	for i, a := range actions {
		resp[i] = mapActionToResponse(a)
	}
	return resp, nil
}

// visible loads a request the actor either filed or was routed through.
func (s *service) visible(ctx context.Context, actorID uuid.UUID, id string) (*LeaveRequest, []LeaveApprovalAction, error) {
	leaveID, err := parseID(id)
	if err != nil {
		return nil, nil, err
	}
	l, err := s.find(ctx, s.repo, leaveID)
	if err != nil {
		return nil, nil, err
	}
	actions, err := s.repo.ListActions(ctx, l.ID)
	if err != nil {
		return nil, nil, err
	}
	if l.EmployeeID == actorID {
		return l, actions, nil
	}
	for _, approverID := range approverIDs(actions) {
		if approverID == actorID {
			return l, actions, nil
		}
	}
	return nil, nil, leaveerrors.ErrLeaveAccessDenied
}

func (s *service) ListMine(ctx context.Context, actorID uuid.UUID) ([]LeaveResponse, error) {
	leaves, err := s.repo.ListByEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPendingFor(ctx context.Context, approverID uuid.UUID) ([]LeaveResponse, error) {
	leaves, err := s.repo.ListPendingFor(ctx, approverID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*LeaveRequest, error) {
	l, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) persist(ctx context.Context, repo Repository, l *LeaveRequest) error {
	ok, err := repo.UpdateVersioned(ctx, l)
	if err != nil {
		s.log(ctx).Error("leave persist failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return err
	}
	if !ok {
		s.log(ctx).Warn("leave concurrent modification",
			zap.String("leave_id", l.ID.String()),
			zap.Int("version", l.Version),
		)
		return leaveerrors.ErrConcurrentModification
	}
	return nil
}

// countDays loads one calendar snapshot for the range and counts on it.
func (s *service) countDays(ctx context.Context, from, to time.Time) (int, error) {
	snap, err := s.calendar.Snapshot(ctx, from, to)
	if err != nil {
		s.log(ctx).Error("calendar snapshot failed", zap.Error(err))
		return 0, err
	}
	return s.calc.CountWorkingDays(from, to, snap), nil
}

func (s *service) hours(requested *decimal.Decimal, days int) (decimal.Decimal, error) {
	if requested == nil {
		return decimal.NewFromInt(int64(days * s.policy.HoursPerDay)), nil
	}
	if requested.IsNegative() {
		return decimal.Zero, leaveerrors.ErrInvalidHours
	}
	return *requested, nil
}

// checkBalance applies the submission-time rule: regular employees filing a
// deducting type need the period active on date_from to cover the request.
func (s *service) checkBalance(ctx context.Context, requestor employee.Ref, lt *leavetype.LeaveType, from time.Time, days int) error {
	if !lt.IsDeducted || !requestor.IsRegular() {
		return nil
	}
	active, err := s.ledger.GetActiveBalance(ctx, s.balances, requestor.ID, lt.ID, from)
	if err != nil {
		s.log(ctx).Error("balance lookup failed", zap.Error(err))
		return err
	}
	if active == nil || active.Remaining.LessThan(decimal.NewFromInt(int64(days))) {
		s.log(ctx).Warn("insufficient leave balance",
			zap.String("employee_id", requestor.ID.String()),
			zap.String("leave_type_id", lt.ID.String()),
			zap.Int("days_requested", days),
		)
		return balanceerrors.ErrInsufficientBalance
	}
	return nil
}

func (s *service) nextControlNumber(ctx context.Context) (string, error) {
	seq, err := s.counter.GetNextValue(ctx, counter.LeaveControlNumber)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(s.policy.ControlNumberStart-1+seq, 10), nil
}

func (s *service) notify(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log(ctx).Warn("leave notification failed",
			zap.String("recipient_id", msg.RecipientID.String()),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
	}
}

func parseID(id string) (uuid.UUID, error) {
	v, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, leaveerrors.ErrInvalidLeaveID
	}
	return v, nil
}

func parseOptionalID(v *string) (*uuid.UUID, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return nil, leaveerrors.ErrInvalidLeaveReasonID
	}
	return &id, nil
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := dateutil.Parse(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	to, err := dateutil.Parse(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return from, to, nil
}

func appendComment(existing, line string) string {
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}

func describe(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func lastApprover(actions []LeaveApprovalAction) uuid.UUID {
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Kind == KindStep {
			return actions[i].ApproverID
		}
	}
	return uuid.Nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		ControlNumber:   l.ControlNumber,
		EmployeeID:      l.EmployeeID.String(),
		LeaveTypeID:     l.LeaveTypeID.String(),
		DateFrom:        dateutil.Format(l.DateFrom),
		DateTo:          dateutil.Format(l.DateTo),
		DaysRequested:   l.DaysRequested,
		HrsRequested:    l.HrsRequested,
		Reason:          l.Reason,
		Status:          l.Status,
		BalanceDeducted: l.BalanceDeducted,
		Version:         l.Version,
	}
	if l.LeaveReasonID != nil {
		v := l.LeaveReasonID.String()
		resp.LeaveReasonID = &v
	}
	if l.CurrentApproverID != nil {
		v := l.CurrentApproverID.String()
		resp.CurrentApproverID = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if l.CancelledAt != nil {
		v := l.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapActionToResponse(a LeaveApprovalAction) ApprovalActionResponse {
	resp := ApprovalActionResponse{
		ID:         a.ID.String(),
		ApproverID: a.ApproverID.String(),
		Sequence:   a.Sequence,
		Kind:       a.Kind,
		Action:     a.Action,
		Status:     a.Status,
		Comments:   a.Comments,
	}
	if a.ActedAt != nil {
		v := a.ActedAt.Format(time.RFC3339)
		resp.ActedAt = &v
	}
	return resp
}
