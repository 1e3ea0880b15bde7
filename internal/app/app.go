// Package app assembles the auth service from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-system/internal/api"
	"github.com/99minutos/auth-system/internal/api/handler"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
	"github.com/99minutos/auth-system/internal/core/service"
	"github.com/99minutos/auth-system/internal/infrastructure/config"
	"github.com/99minutos/auth-system/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/auth-system/internal/infrastructure/db/mongo"
	rediscache "github.com/99minutos/auth-system/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-system/internal/infrastructure/db/rolecache"
	"github.com/99minutos/auth-system/internal/infrastructure/workerpool"
)

// Application holds the wired service and the resources it must release.
type Application struct {
	cfg *config.Config
	log zerolog.Logger

	mongoClient *mongo.Client
	redisClient *goredis.Client
	pool        *workerpool.Pool

	users  ports.UserDirectory
	roles  ports.RoleCatalog
	checks map[string]handler.HealthCheck

	echo *echo.Echo
}

// New connects the configured backends, seeds the role catalog and builds the
// HTTP router. Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		log:    log,
		checks: make(map[string]handler.HealthCheck),
	}

	if err := app.initDirectory(ctx); err != nil {
		app.close()
		return nil, err
	}
	if err := app.initCache(ctx); err != nil {
		app.close()
		return nil, err
	}
	if err := app.seedRoles(ctx); err != nil {
		app.close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.echo
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	addr := ":" + app.cfg.Port
	app.log.Info().
		Str("addr", addr).
		Str("directory", app.cfg.Directory.Driver).
		Bool("user_cache", app.redisClient != nil).
		Msg("auth service starting")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.echo.Start(addr)
	}()

	select {
	case err := <-serverErrors:
		app.close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.log.Info().Msg("shutdown signal received")
		return app.Shutdown()
	}
}

// Shutdown drains in-flight requests within the configured grace period and
// releases every backend.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	err := app.echo.Shutdown(ctx)
	if err != nil {
		app.log.Error().Err(err).Msg("graceful server shutdown failed")
		_ = app.echo.Close()
	}

	app.close()
	app.log.Info().Msg("auth service stopped")
	return err
}

func (app *Application) initDirectory(ctx context.Context) error {
	switch app.cfg.Directory.Driver {
	case config.DriverMemory:
		app.users = memory.NewUserDirectory()
		app.roles = memory.NewRoleCatalog()
		app.log.Warn().Msg("using in-memory directory; accounts are lost on restart")
		return nil

	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      app.cfg.Mongo.URI,
			Database: app.cfg.Mongo.Database,
			Timeout:  app.cfg.Directory.Timeout,
		})
		if err != nil {
			return err
		}
		app.mongoClient = client

		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}

		app.users = mongodb.NewUserRepository(db)
		app.roles = mongodb.NewRoleRepository(db)
		app.checks["mongodb"] = func(ctx context.Context) error { return mongodb.Ping(ctx, db) }
		return nil
	}
	return fmt.Errorf("unknown directory driver %q", app.cfg.Directory.Driver)
}

func (app *Application) initCache(ctx context.Context) error {
	if app.cfg.Redis.Addr == "" {
		return nil
	}

	client, err := rediscache.Connect(ctx, rediscache.Config{
		Addr:     app.cfg.Redis.Addr,
		Password: app.cfg.Redis.Password,
		DB:       app.cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	app.redisClient = client

	app.users = rediscache.NewUserCache(app.users, client, app.cfg.Redis.CacheTTL, app.log)
	app.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return nil
}

func (app *Application) seedRoles(ctx context.Context) error {
	app.roles = rolecache.New(app.roles, 0)

	seedCtx, cancel := context.WithTimeout(ctx, app.cfg.Directory.Timeout)
	defer cancel()

	n, err := app.roles.Seed(seedCtx, domain.RoleCatalog)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if n > 0 {
		app.log.Info().Int("count", n).Msg("role catalog seeded")
	}
	return nil
}

func (app *Application) initHTTP() error {
	tokens, err := service.NewTokenService(app.cfg.JWTSecret)
	if err != nil {
		return err
	}

	var exec ports.Executor
	if app.cfg.Auth.HashWorkers > 0 {
		app.pool = workerpool.New(app.cfg.Auth.HashWorkers, app.log)
		app.pool.Start(context.Background())
		exec = app.pool
	}
	hasher := service.NewBcryptHasher(app.cfg.Auth.BcryptCost, exec)

	authService := service.NewAuthService(app.users, app.roles, hasher, tokens, service.AuthConfig{
		AccessTokenTTL:    app.cfg.Auth.AccessTokenTTL,
		DirectoryTimeout:  app.cfg.Directory.Timeout,
		HideUserExistence: app.cfg.Auth.HideUserExistence,
	}, app.log)

	app.echo = api.NewRouter(api.RouterConfig{
		AuthService:  authService,
		Log:          app.log,
		HealthChecks: app.checks,
		CORSOrigins:  app.cfg.HTTP.CORSOrigins,
		BodyLimit:    app.cfg.HTTP.BodyLimit,
	})
	return nil
}

// close releases backends in reverse order of acquisition.
func (app *Application) close() {
	if app.pool != nil {
		app.pool.Stop()
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.log.Error().Err(err).Msg("error closing redis")
		}
	}
	if app.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Directory.Timeout)
		defer cancel()
		if err := app.mongoClient.Disconnect(ctx); err != nil {
			app.log.Error().Err(err).Msg("error closing mongodb")
		}
	}
}
