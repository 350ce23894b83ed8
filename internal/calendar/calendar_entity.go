package calendar

import (
	"time"

	"github.com/google/uuid"
)

type HolidayType string

const (
	HolidayLegal   HolidayType = "legal"
	HolidaySpecial HolidayType = "special"
	HolidayCompany HolidayType = "company"
	HolidayDayOff  HolidayType = "day_off"
)

func (t HolidayType) Valid() bool {
	switch t {
	case HolidayLegal, HolidaySpecial, HolidayCompany, HolidayDayOff:
		return true
	}
	return false
}

type Holiday struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date      time.Time   `gorm:"type:date;not null;index:idx_holidays_date"`
	Name      string      `gorm:"type:varchar(150);not null"`
	Type      HolidayType `gorm:"type:varchar(20);not null;default:'legal'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SundayException marks a Sunday as a working day.
type SundayException struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uq_sunday_exception_date"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
