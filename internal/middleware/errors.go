package middleware

import (
	"net/http"

	"go-empconnect/internal/shared/apperror"
	"go-empconnect/internal/shared/response"

	"github.com/gin-gonic/gin"
)

var (
	ErrTokenNotFound = apperror.New(apperror.CodeUnauthorized, "Token not found", http.StatusUnauthorized)
	ErrInvalidToken  = apperror.New(apperror.CodeUnauthorized, "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired  = apperror.New(apperror.CodeUnauthorized, "Token expired", http.StatusUnauthorized)
	ErrMissingActor  = apperror.New(apperror.CodeUnauthorized, "Employee not authenticated", http.StatusUnauthorized)
	ErrRateLimited   = apperror.New("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests)
	ErrProcessing    = apperror.New("PROCESSING", "Request is already being processed", http.StatusConflict)
)

func abort(c *gin.Context, err *apperror.AppError, details any) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, details)
	c.Abort()
}
