package app

import (
	"database/sql"

	"go-empconnect/internal/approval"
	"go-empconnect/internal/balance"
	"go-empconnect/internal/calendar"
	"go-empconnect/internal/config"
	"go-empconnect/internal/employee"
	"go-empconnect/internal/leave"
	"go-empconnect/internal/leavetype"
	"go-empconnect/internal/messaging/kafka"
	"go-empconnect/internal/notification"
	"go-empconnect/internal/rbac"
	"go-empconnect/internal/rbac/infra"
	"go-empconnect/internal/rbac/rbac_http"
	"go-empconnect/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	directory := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	calendarRepo := calendar.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(rbac.DefaultPolicies)
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(directory, enforcer, logger)

	// --- Services ---
	calendarService := calendar.NewService(calendarRepo, rdb, cfg.Redis.CalendarTTL, logger)
	leaveTypeService := leavetype.NewService(leaveTypeRepo, logger)
	balanceService := balance.NewService(balanceRepo, logger)
	notificationService := notification.NewService(notificationRepo, logger)
	leaveService := leave.NewService(leave.Deps{
		DB:         db,
		Repo:       leaveRepo,
		Balances:   balanceRepo,
		Router:     approval.NewRouter(directory, cfg.Leave.MinNoticeDays, logger),
		Directory:  directory,
		LeaveTypes: leaveTypeService,
		Calendar:   calendarService,
		Counter:    counterRepo,
		Notifier:   notification.NewOutboxSink(outboxRepo),
		Policy: leave.Policy{
			HoursPerDay:        cfg.Leave.HoursPerDay,
			CancelGraceDays:    cfg.Leave.CancelGraceDays,
			ControlNumberStart: cfg.Leave.ControlNumberStart,
		},
	}, logger)

	// --- Handlers ---
	calendarHandler := calendar.NewHandler(calendarService, logger)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService, logger)
	balanceHandler := balance.NewHandler(balanceService, logger)
	notificationHandler := notification.NewHandler(notificationService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	secret := cfg.Auth.Secret
	api := router.Group("/api/v1")
	{
		calendar.RegisterRoutes(api, calendarHandler, rbacService, secret, logger)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService, secret, logger)
		balance.RegisterRoutes(api, balanceHandler, rbacService, secret, logger)
		notification.RegisterRoutes(api, notificationHandler, rbacService, secret, logger)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb, secret, logger)
		rbac_http.RegisterRoutes(api, rbacHandler, rbacService, secret)
	}

	return nil
}
