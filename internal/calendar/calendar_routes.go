package calendar

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
	holidays := r.Group("/holidays")
	holidays.Use(middleware.AuthMiddleware(jwtSecret))
	holidays.Use(middleware.ContextLogger(logger))
	{
		holidays.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionRead),
			handler.ListHolidays,
		)
		holidays.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionManage),
			handler.CreateHoliday,
		)
		holidays.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionManage),
			handler.DeleteHoliday,
		)
	}

	exceptions := r.Group("/sunday-exceptions")
	exceptions.Use(middleware.AuthMiddleware(jwtSecret))
	exceptions.Use(middleware.ContextLogger(logger))
	{
		exceptions.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionRead),
			handler.ListSundayExceptions,
		)
		exceptions.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionManage),
			handler.CreateSundayException,
		)
		exceptions.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCalendar, rbac.ActionManage),
			handler.DeleteSundayException,
		)
	}
}
