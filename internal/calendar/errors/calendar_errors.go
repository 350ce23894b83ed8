package calendarerrors

import (
	"net/http"

	"go-empconnect/internal/shared/apperror"
)

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidHolidayType = apperror.New(
		apperror.CodeInvalidInput,
		"holiday type must be one of legal, special, company, day_off",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"invalid year",
		http.StatusBadRequest,
	)
	ErrNotSunday = apperror.New(
		apperror.CodeInvalidInput,
		"sunday exception date must fall on a Sunday",
		http.StatusBadRequest,
	)
	ErrSundayExceptionExists = apperror.New(
		apperror.CodeConflict,
		"sunday exception already exists for this date",
		http.StatusConflict,
	)
	ErrHolidayNotFound = apperror.New(
		apperror.CodeNotFound,
		"holiday not found",
		http.StatusNotFound,
	)
	ErrSundayExceptionNotFound = apperror.New(
		apperror.CodeNotFound,
		"sunday exception not found",
		http.StatusNotFound,
	)
)
