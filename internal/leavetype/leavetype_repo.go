package leavetype

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context, activeOnly bool) ([]LeaveType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveType, error)
	Create(ctx context.Context, lt *LeaveType) error
	Update(ctx context.Context, lt *LeaveType) error
	FindReasonByID(ctx context.Context, id uuid.UUID) (*LeaveReason, error)
	CreateReason(ctx context.Context, reason *LeaveReason) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context, activeOnly bool) ([]LeaveType, error) {
	var types []LeaveType
	q := r.db.WithContext(ctx).
		Preload("Reasons", "is_active = ?", true).
		Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&types).Error
	return types, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveType, error) {
	var lt LeaveType
	err := r.db.WithContext(ctx).
		Preload("Reasons").
		First(&lt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (r *repository) Create(ctx context.Context, lt *LeaveType) error {
	return r.db.WithContext(ctx).Create(lt).Error
}

func (r *repository) Update(ctx context.Context, lt *LeaveType) error {
	return r.db.WithContext(ctx).
		Model(&LeaveType{}).
		Where("id = ?", lt.ID).
		Updates(map[string]interface{}{
			"name":         lt.Name,
			"is_deducted":  lt.IsDeducted,
			"go_to_clinic": lt.GoToClinic,
			"is_active":    lt.IsActive,
		}).Error
}

func (r *repository) FindReasonByID(ctx context.Context, id uuid.UUID) (*LeaveReason, error) {
	var reason LeaveReason
	if err := r.db.WithContext(ctx).First(&reason, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *repository) CreateReason(ctx context.Context, reason *LeaveReason) error {
	return r.db.WithContext(ctx).Create(reason).Error
}
