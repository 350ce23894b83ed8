package app

import (
	"go-empconnect/internal/balance"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/employee"
	"go-empconnect/internal/leave"
	"go-empconnect/internal/leavetype"
	"go-empconnect/internal/notification"

	"gorm.io/gorm"
)

// tables the repositories write with raw SQL rather than through a model.
var rawDDL = []string{
	`CREATE TABLE IF NOT EXISTS sequence_counters (
		counter_type VARCHAR(50) PRIMARY KEY,
		last_value   BIGINT NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id             UUID PRIMARY KEY,
		request_id     VARCHAR(64),
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id   VARCHAR(64) NOT NULL,
		event_type     VARCHAR(100) NOT NULL,
		topic          VARCHAR(200) NOT NULL,
		payload        JSONB NOT NULL,
		status         VARCHAR(20) NOT NULL DEFAULT 'pending',
		retry_count    INT NOT NULL DEFAULT 0,
		error_message  VARCHAR(500),
		next_retry_at  TIMESTAMPTZ,
		processed_at   TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_due ON outbox_events (status, next_retry_at, created_at)`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&employee.Employee{},
		&employee.EmployeeRole{},
		&leavetype.LeaveType{},
		&leavetype.LeaveReason{},
		&calendar.Holiday{},
		&calendar.SundayException{},
		&balance.LeaveBalance{},
		&balance.Allocation{},
		&leave.LeaveRequest{},
		&leave.LeaveApprovalAction{},
		&notification.Notification{},
	); err != nil {
		return err
	}

	for _, stmt := range rawDDL {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
