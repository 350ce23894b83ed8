package app

import (
	"database/sql"

	"go-empconnect/internal/config"
	"go-empconnect/internal/middleware"
	"go-empconnect/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func openDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(connection.PostgresConfig{
		Host:     cfg.Database.Host,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		Port:     cfg.Database.Port,
		SSLMode:  cfg.Database.SSLMode,
	}, cfg.Database.MaxRetries)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// BuildApp connects infrastructure, migrates the schema and mounts every
// module on router.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app")

	gormDB, sqlDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	log.Info("database connection established")

	if err := Migrate(gormDB); err != nil {
		return err
	}
	log.Info("schema migrated")

	redisClient, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries)
	if err != nil {
		return err
	}
	log.Info("redis connection established")

	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	return registerModules(router, cfg, sqlDB, gormDB, redisClient, logger)
}
