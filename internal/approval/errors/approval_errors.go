package approvalerrors

import (
	"net/http"

	"go-empconnect/internal/shared/apperror"
)

var (
	ErrNoDirectApprover = apperror.New(
		apperror.CodeApproverUnresolved,
		"no direct approver is configured for this employee",
		http.StatusUnprocessableEntity,
	)
	ErrApproverUnresolved = apperror.New(
		apperror.CodeApproverUnresolved,
		"no approver could be resolved for this leave request",
		http.StatusUnprocessableEntity,
	)
)
