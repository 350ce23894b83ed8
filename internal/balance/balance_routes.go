package balance

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
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware(jwtSecret))
	balances.Use(middleware.ExtractActor())
	balances.Use(middleware.ContextLogger(logger))
	{
		balances.GET("/me",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveBalance, rbac.ActionRead),
			handler.ListMine,
		)
		balances.GET("/employees/:employee_id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveBalance, rbac.ActionManage),
			handler.ListForEmployee,
		)
		balances.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveBalance, rbac.ActionManage),
			handler.Create,
		)
		balances.PATCH("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveBalance, rbac.ActionManage),
			handler.Adjust,
		)
	}
}
