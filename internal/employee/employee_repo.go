package employee

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Directory answers the org questions the leave core asks.
//
//go:generate mockgen -source=employee_repo.go -destination=mock/employee_directory_mock.go -package=mock
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (Ref, error)
	DirectApproverOf(ctx context.Context, emp Ref) (*Ref, error)
	EmployeesWithRole(ctx context.Context, role Role) ([]Ref, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Directory {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Ref, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("is_active = ?", true).
		First(&e, "id = ?", id).Error
	if err != nil {
		return Ref{}, mapRepositoryError(err)
	}
	return e.ToRef(), nil
}

// DirectApproverOf returns nil when the employee has no configured approver
// or the approver is no longer active.
func (r *repository) DirectApproverOf(ctx context.Context, emp Ref) (*Ref, error) {
	if emp.ApproverID == nil || *emp.ApproverID == uuid.Nil {
		return nil, nil
	}
	approver, err := r.Get(ctx, *emp.ApproverID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &approver, nil
}

func (r *repository) EmployeesWithRole(ctx context.Context, role Role) ([]Ref, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Joins("JOIN employee_roles er ON er.employee_id = employees.id").
		Where("er.role = ?", role.String()).
		Where("employees.is_active = ?", true).
		Order("employees.employee_number ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}

	refs := make([]Ref, len(employees))
	for i, e := range employees {
		refs[i] = e.ToRef()
	}
	return refs, nil
}
