package leavetype

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string        `gorm:"type:varchar(100);not null"`
	Code       string        `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_types_code"`
	IsDeducted bool          `gorm:"not null;default:false"`
	GoToClinic bool          `gorm:"not null;default:false"`
	IsActive   bool          `gorm:"not null;default:true"`
	Reasons    []LeaveReason `gorm:"foreignKey:LeaveTypeID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type LeaveReason struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(150);not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BelongsTo reports whether the reason may be picked for the given type.
func (r LeaveReason) BelongsTo(leaveTypeID uuid.UUID) bool {
	return r.IsActive && r.LeaveTypeID == leaveTypeID
}
