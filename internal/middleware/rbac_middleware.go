package middleware

import (
	"context"

	"go-empconnect/internal/rbac"
	"go-empconnect/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by rbac.Service; kept local so tests can stub it.
type RBACService interface {
	Enforce(ctx context.Context, req rbac.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString(ContextEmployeeID)
		if employeeID == "" {
			abort(c, ErrMissingActor, nil)
			return
		}

		allowed, err := service.Enforce(c.Request.Context(), rbac.EnforceRequest{
			EmployeeID: employeeID,
			Resource:   resource,
			Action:     action,
		})
		if err != nil {
			abort(c, apperror.ErrInternal, nil)
			return
		}
		if !allowed {
			abort(c, apperror.ErrForbidden, map[string]string{"required": resource + ":" + action})
			return
		}
		c.Next()
	}
}
