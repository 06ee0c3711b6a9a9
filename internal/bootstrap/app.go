package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"account-service/internal/config"
	"account-service/internal/model"
	"account-service/internal/pkg/jwtutil"
	"account-service/internal/platform/database"
	rabbitmqClient "account-service/internal/platform/rabbitmq"
	redisClient "account-service/internal/platform/redis"
	"account-service/internal/repository"
	"account-service/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Tokens *jwtutil.Issuer

	// Optional collaborators; nil when not configured.
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.AuthEventWorker

	StartedAt time.Time
}

// New connects every configured collaborator. The signing secret is checked
// before anything is opened.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tokens, err := jwtutil.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		StartedAt: time.Now(),
	}

	app.DB, err = database.New(ctx, cfg.Database, logger, cfg.Development())
	if err != nil {
		return nil, err
	}
	if err := Migrate(app.DB); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.RedisEnabled() {
		app.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	if cfg.RabbitMQEnabled() {
		app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}

		eventRepo := repository.NewAuthEventRepository(app.DB)
		app.EventWorker = worker.NewAuthEventWorker(app.MQConn, eventRepo, cfg.RabbitMQ.AuthEventQueue, logger)
		if err := app.EventWorker.Start(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start auth event worker failed: %w", err)
		}
	}

	logger.InfoContext(ctx, "bootstrap complete",
		"env", cfg.App.Env,
		"redis", app.Redis != nil,
		"rabbitmq", app.MQConn != nil,
	)
	return app, nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.AuthEvent{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		errs = append(errs, a.MQConn.Close())
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
