package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmploymentType string

const (
	EmploymentRegular      EmploymentType = "regular"
	EmploymentProbationary EmploymentType = "probationary"
	EmploymentOJT          EmploymentType = "ojt"
	EmploymentContractual  EmploymentType = "contractual"
)

type Employee struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeNumber string         `gorm:"type:varchar(30);uniqueIndex:uq_employee_number"`
	FullName       string         `gorm:"type:varchar(150);not null"`
	Email          string         `gorm:"type:varchar(150);uniqueIndex:uq_employee_email"`
	ApproverID     *uuid.UUID     `gorm:"type:uuid;index"`
	PositionLevel  *int           `gorm:"type:int"`
	EmploymentType EmploymentType `gorm:"type:varchar(20);not null;default:'regular'"`
	IsActive       bool           `gorm:"not null;default:true"`
	Roles          []EmployeeRole `gorm:"foreignKey:EmployeeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type EmployeeRole struct {
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role       string    `gorm:"type:varchar(30);primaryKey;index:idx_employee_roles_role"`
	CreatedAt  time.Time
}

// ToRef narrows the stored record to what the leave core needs.
func (e Employee) ToRef() Ref {
	var roles RoleSet
	for _, r := range e.Roles {
		if role, ok := ParseRole(r.Role); ok {
			roles = roles.Add(role)
		}
	}
	return Ref{
		ID:             e.ID,
		FullName:       e.FullName,
		Email:          e.Email,
		ApproverID:     e.ApproverID,
		PositionLevel:  e.PositionLevel,
		EmploymentType: e.EmploymentType,
		Roles:          roles,
	}
}
