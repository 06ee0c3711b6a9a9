package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "account-service/internal/app"
	"account-service/internal/bootstrap"
	"account-service/internal/cache"
	"account-service/internal/platform/rabbitmq"
	"account-service/internal/repository"
	"account-service/internal/transport/http/handler"
	"account-service/internal/transport/http/middleware"
)

var errConnectionClosed = errors.New("connection closed")

// AccountService is everything the HTTP layer needs from the account core.
type AccountService interface {
	handler.AccountService
	middleware.Authenticator
}

type RouterDeps struct {
	GinMode  string
	Logger   *slog.Logger
	Accounts AccountService
	Health   *handler.HealthHandler
}

// NewRouter wires the account service from the bootstrapped resources.
func NewRouter(app *bootstrap.App) *gin.Engine {
	opts := []appsvc.Option{}
	if app.Redis != nil {
		opts = append(opts, appsvc.WithProfileCache(cache.NewProfileCache(app.Redis, app.Config.Redis.ProfileTTL)))
	}
	if app.MQConn != nil {
		opts = append(opts, appsvc.WithEventPublisher(rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.AuthEventQueue)))
	}

	userRepo := repository.NewUserRepository(app.DB)
	accounts := appsvc.NewAccountService(userRepo, app.Tokens, app.Logger, opts...)

	return NewEngine(RouterDeps{
		GinMode:  app.Config.App.GinMode,
		Logger:   app.Logger,
		Accounts: accounts,
		Health: handler.NewHealthHandler(
			app.Config.App.Name,
			app.Config.App.Env,
			app.StartedAt,
			healthDependencies(app)...,
		),
	})
}

func NewEngine(deps RouterDeps) *gin.Engine {
	gin.SetMode(deps.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		gin.Recovery(),
		allowAnyOrigin,
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:    []string{"Content-Type", "Authorization"},
			ExposeHeaders:   []string{middleware.RequestIDHeader},
			MaxAge:          12 * time.Hour,
		}),
	)

	if deps.Health != nil {
		router.GET("/healthz", deps.Health.Check)
	}

	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Logger)

	users := router.Group("/api/users")
	users.POST("/register", accountHandler.Register)
	users.POST("/login", accountHandler.Login)
	users.GET("/profile", middleware.AuthBearer(deps.Accounts, deps.Logger), accountHandler.Profile)

	return router
}

func healthDependencies(app *bootstrap.App) []handler.Dependency {
	deps := []handler.Dependency{{
		Name: app.Config.Database.Dialect,
		Check: func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if app.Redis != nil {
		deps = append(deps, handler.Dependency{
			Name:  "redis",
			Check: func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() },
		})
	}
	if app.MQConn != nil {
		deps = append(deps, handler.Dependency{
			Name: "rabbitmq",
			Check: func(context.Context) error {
				if app.MQConn.IsClosed() {
					return errConnectionClosed
				}
				return nil
			},
		})
	}
	return deps
}

// allowAnyOrigin marks every response as readable from any origin. cors.New
// only writes headers for requests that carry an Origin.
func allowAnyOrigin(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Next()
}
