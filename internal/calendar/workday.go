package calendar

import (
	"time"

	"go-empconnect/internal/shared/dateutil"
)

const DefaultHoursPerDay = 8

// Snapshot is an immutable view of the non-working and exempted dates for a
// range. Load it once per transition so every count in that transition sees
// the same calendar.
type Snapshot struct {
	holidays         map[string]struct{}
	sundayExceptions map[string]struct{}
}

func NewSnapshot(holidays, sundayExceptions []time.Time) Snapshot {
	s := Snapshot{
		holidays:         make(map[string]struct{}, len(holidays)),
		sundayExceptions: make(map[string]struct{}, len(sundayExceptions)),
	}
	for _, d := range holidays {
		s.holidays[dateutil.Format(d)] = struct{}{}
	}
	for _, d := range sundayExceptions {
		s.sundayExceptions[dateutil.Format(d)] = struct{}{}
	}
	return s
}

func (s Snapshot) IsHoliday(d time.Time) bool {
	_, ok := s.holidays[dateutil.Format(d)]
	return ok
}

func (s Snapshot) IsSundayException(d time.Time) bool {
	_, ok := s.sundayExceptions[dateutil.Format(d)]
	return ok
}

// IsWorkingDay: holidays are never worked, even when the date is an exempted
// Sunday. Other Sundays are off unless exempted.
func (s Snapshot) IsWorkingDay(d time.Time) bool {
	if s.IsHoliday(d) {
		return false
	}
	if d.Weekday() == time.Sunday && !s.IsSundayException(d) {
		return false
	}
	return true
}

type Calculator struct {
	HoursPerDay int
}

func NewCalculator(hoursPerDay int) Calculator {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	return Calculator{HoursPerDay: hoursPerDay}
}

// CountWorkingDays counts working days in the inclusive range. Inverted ranges
// count as zero; callers reject them before getting here.
func (c Calculator) CountWorkingDays(start, end time.Time, snap Snapshot) int {
	start, end = dateutil.DateOnly(start), dateutil.DateOnly(end)
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if snap.IsWorkingDay(d) {
			days++
		}
	}
	return days
}

func (c Calculator) CountWorkingHours(start, end time.Time, snap Snapshot) int {
	return c.CountWorkingDays(start, end, snap) * c.HoursPerDay
}
