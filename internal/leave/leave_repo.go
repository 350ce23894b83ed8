package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	// UpdateVersioned writes l only if its stored version is still
	// l.Version, then bumps l.Version. It reports false on a lost race.
	UpdateVersioned(ctx context.Context, l *LeaveRequest) (bool, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequest, error)
	ListPendingFor(ctx context.Context, approverID uuid.UUID) ([]LeaveRequest, error)
	HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error)
	// LockEmployee serializes date-changing writes for one employee until
	// the bound transaction ends.
	LockEmployee(ctx context.Context, employeeID uuid.UUID) error

	CreateAction(ctx context.Context, a *LeaveApprovalAction) error
	UpdateAction(ctx context.Context, a *LeaveApprovalAction) error
	ListActions(ctx context.Context, requestID uuid.UUID) ([]LeaveApprovalAction, error)
	DeleteActions(ctx context.Context, requestID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, l *LeaveRequest) (bool, error) {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND version = ?", l.ID, l.Version).
		Updates(map[string]any{
			"leave_reason_id":     l.LeaveReasonID,
			"date_from":           l.DateFrom,
			"date_to":             l.DateTo,
			"days_requested":      l.DaysRequested,
			"hrs_requested":       l.HrsRequested,
			"reason":              l.Reason,
			"current_approver_id": l.CurrentApproverID,
			"status":              l.Status,
			"disapproved":         l.Disapproved,
			"balance_deducted":    l.BalanceDeducted,
			"approved_at":         l.ApprovedAt,
			"cancelled_at":        l.CancelledAt,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	l.Version++
	return true, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequest, error) {
	var out []LeaveRequest
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("date_from DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListPendingFor(ctx context.Context, approverID uuid.UUID) ([]LeaveRequest, error) {
	var out []LeaveRequest
	err := r.conn(ctx).
		Where("current_approver_id = ? AND status = ?", approverID, StatusRouting).
		Order("date_from ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status <> ?", StatusCancelled).
		Where("NOT (date_to < ? OR date_from > ?)", from, to)

	if excludeID != nil && *excludeID != uuid.Nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *repository) LockEmployee(ctx context.Context, employeeID uuid.UUID) error {
	return r.conn(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "leave:"+employeeID.String()).
		Error
}

func (r *repository) CreateAction(ctx context.Context, a *LeaveApprovalAction) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) UpdateAction(ctx context.Context, a *LeaveApprovalAction) error {
	return r.conn(ctx).
		Model(&LeaveApprovalAction{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"action":   a.Action,
			"status":   a.Status,
			"comments": a.Comments,
			"acted_at": a.ActedAt,
		}).Error
}

func (r *repository) ListActions(ctx context.Context, requestID uuid.UUID) ([]LeaveApprovalAction, error) {
	var out []LeaveApprovalAction
	err := r.conn(ctx).
		Where("leave_request_id = ?", requestID).
		Order("sequence ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) DeleteActions(ctx context.Context, requestID uuid.UUID) error {
	return r.conn(ctx).
		Where("leave_request_id = ?", requestID).
		Delete(&LeaveApprovalAction{}).Error
}
