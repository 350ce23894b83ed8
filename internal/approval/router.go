package approval

import (
	"context"
	"time"

	approvalerrors "go-empconnect/internal/approval/errors"
	"go-empconnect/internal/employee"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMinNoticeDays = 1

// Router decides who approves a leave request next.
type Router struct {
	directory     employee.Directory
	minNoticeDays int
	logger        *zap.Logger
}

func NewRouter(directory employee.Directory, minNoticeDays int, logger ...*zap.Logger) *Router {
	l := zap.L().Named("approval.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.router")
	}
	if minNoticeDays < 0 {
		minNoticeDays = DefaultMinNoticeDays
	}
	return &Router{directory: directory, minNoticeDays: minNoticeDays, logger: l}
}

// InitialApprover picks the first approver at submission.
//
// Short-notice leave goes to internal audit, clinic-routed leave to the
// clinic, everything else to the requestor's direct approver. Role lookups
// fall back to the HR manager and then the HR admin.
func (r *Router) InitialApprover(ctx context.Context, requestor employee.Ref, clinicRouted bool, dateFrom, today time.Time) (employee.Ref, error) {
	notice := dateutil.DaysBetween(today, dateFrom)

	var (
		candidate *employee.Ref
		err       error
	)
	switch {
	case !clinicRouted && notice < r.minNoticeDays:
		candidate, err = r.firstWithRole(ctx, requestor.ID, employee.RoleIADAdmin, employee.RoleHRManager, employee.RoleHRAdmin)
	case !clinicRouted:
		candidate, err = r.directory.DirectApproverOf(ctx, requestor)
		if err != nil {
			return employee.Ref{}, err
		}
		if candidate == nil {
			r.logger.Warn("requestor has no direct approver", zap.String("employee_id", requestor.ID.String()))
			return employee.Ref{}, approvalerrors.ErrNoDirectApprover
		}
		return *candidate, nil
	default:
		candidate, err = r.firstWithRole(ctx, requestor.ID, employee.RoleClinicAdmin, employee.RoleHRManager, employee.RoleHRAdmin)
	}
	if err != nil {
		return employee.Ref{}, err
	}

	if candidate == nil {
		candidate, err = r.firstWithRole(ctx, requestor.ID, employee.RoleHRManager, employee.RoleHRAdmin)
		if err != nil {
			return employee.Ref{}, err
		}
	}
	if candidate == nil {
		r.logger.Warn("no approver resolved",
			zap.String("employee_id", requestor.ID.String()),
			zap.Bool("clinic_routed", clinicRouted),
			zap.Int("notice_days", notice),
		)
		return employee.Ref{}, approvalerrors.ErrApproverUnresolved
	}
	return *candidate, nil
}

// NextApprover returns who follows current in the chain, or nil when the
// chain ends. A candidate that already acted on the request ends the chain
// instead of looping.
func (r *Router) NextApprover(ctx context.Context, current, requestor employee.Ref, visited []uuid.UUID) (*employee.Ref, error) {
	var (
		next *employee.Ref
		err  error
	)
	switch {
	case current.HasRole(employee.RoleHRAdmin):
		return nil, nil
	case current.HasRole(employee.RoleClinicAdmin):
		next, err = r.firstWithRole(ctx, requestor.ID, employee.RoleIADAdmin)
		if err == nil && next == nil {
			next, err = r.directory.DirectApproverOf(ctx, requestor)
		}
	case current.HasRole(employee.RoleIADAdmin):
		next, err = r.directory.DirectApproverOf(ctx, requestor)
	case current.LevelIs(employee.ManagerLevel):
		next, err = r.firstWithRole(ctx, requestor.ID, employee.RoleHRAdmin)
	default:
		next, err = r.directory.DirectApproverOf(ctx, current)
	}
	if err != nil {
		return nil, err
	}
	if next == nil || next.ID == current.ID || contains(visited, next.ID) {
		return nil, nil
	}
	return next, nil
}

// firstWithRole walks roles in order and returns the first holder that is
// not the requestor.
func (r *Router) firstWithRole(ctx context.Context, requestorID uuid.UUID, roles ...employee.Role) (*employee.Ref, error) {
	for _, role := range roles {
		holders, err := r.directory.EmployeesWithRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for i := range holders {
			if holders[i].ID != requestorID {
				return &holders[i], nil
			}
		}
	}
	return nil, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
