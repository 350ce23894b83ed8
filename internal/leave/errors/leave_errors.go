package leaveerrors

import (
	"net/http"

	"go-empconnect/internal/shared/apperror"
)

var (
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveReasonID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave reason id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"date_from must be before or equal date_to",
		http.StatusBadRequest,
	)
	ErrInvalidHours = apperror.New(
		apperror.CodeInvalidInput,
		"hrs_requested cannot be negative",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee can do this",
		http.StatusForbidden,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"you are not the current approver of this leave request",
		http.StatusForbidden,
	)
	ErrLeaveAccessDenied = apperror.New(
		apperror.CodeForbidden,
		"you are not allowed to view this leave request",
		http.StatusForbidden,
	)
	ErrNotRouting = apperror.New(
		apperror.CodeInvalidState,
		"leave request is no longer in routing",
		http.StatusConflict,
	)
	ErrNotCancellable = apperror.New(
		apperror.CodeInvalidState,
		"leave request cannot be cancelled in its current status",
		http.StatusConflict,
	)
	ErrCancelWindowClosed = apperror.New(
		apperror.CodeInvalidState,
		"approved leave can no longer be cancelled",
		http.StatusConflict,
	)
	ErrRoutingStepMissing = apperror.New(
		apperror.CodeInvalidState,
		"leave request has no open routing step",
		http.StatusConflict,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConflict,
		"leave request was modified by someone else, reload and retry",
		http.StatusConflict,
	)
	ErrRestorationFailed = apperror.New(
		apperror.CodeRestorationFailed,
		"leave balance restoration failed, cancellation aborted",
		http.StatusInternalServerError,
	)
)
