package leavetypeerrors

import (
	"net/http"

	"go-empconnect/internal/shared/apperror"
)

var (
	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type id",
		http.StatusBadRequest,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found",
		http.StatusNotFound,
	)
	ErrLeaveTypeInactive = apperror.New(
		apperror.CodeInvalidInput,
		"leave type is not active",
		http.StatusBadRequest,
	)
	ErrLeaveTypeCodeExists = apperror.New(
		apperror.CodeConflict,
		"leave type code already exists",
		http.StatusConflict,
	)
	ErrLeaveReasonNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave reason not found",
		http.StatusNotFound,
	)
	ErrReasonTypeMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"leave reason does not belong to the selected leave type",
		http.StatusBadRequest,
	)
)
