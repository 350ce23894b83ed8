package leavetype

import (
	"go-empconnect/internal/middleware"
	"go-empconnect/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	jwtSecret string,
	logger *zap.Logger,
) {
	types := r.Group("/leave-types")
	types.Use(middleware.AuthMiddleware(jwtSecret))
	types.Use(middleware.ContextLogger(logger))
	{
		types.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionRead),
			handler.GetAll,
		)
		types.GET("/:id",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionRead),
			handler.GetByID,
		)
		types.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage),
			handler.Create,
		)
		types.PUT("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage),
			handler.Update,
		)
		types.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage),
			handler.Deactivate,
		)
		types.POST("/:id/reasons",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage),
			handler.CreateReason,
		)
	}
}
