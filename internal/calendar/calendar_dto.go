package calendar

type CreateHolidayRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required,max=150"`
	Type string `json:"type" binding:"required,oneof=legal special company day_off"`
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type CreateSundayExceptionRequest struct {
	Date string `json:"date" binding:"required"`
	Note string `json:"note"`
}

type SundayExceptionResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Note string `json:"note,omitempty"`
}

// YearCalendar is the cached form of one calendar year.
type YearCalendar struct {
	Year             int      `json:"year"`
	Holidays         []string `json:"holidays"`
	SundayExceptions []string `json:"sunday_exceptions"`
}
