// Package server wires the profile service together: configuration, storage
// backends, object storage, the auth flows and the HTTP server. It also
// handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/auth"
	"github.com/dmitrijs2005/profilekeeper/internal/server/config"
	"github.com/dmitrijs2005/profilekeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/profilekeeper/internal/server/media"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/profilekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

var (
	openPostgres = repomanager.OpenPostgres

	newPostgresManager = repomanager.NewPostgresRepositoryManager

	newObjectStorage = func(ctx context.Context, o media.S3Options) (services.ObjectStorage, error) {
		return media.NewS3Storage(ctx, o)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, slog.LevelInfo))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	manager, objects, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	resolver := media.NewResolver(c.MediaBaseURL, c.MediaPrefix)

	us := services.NewUserService(app.db, manager, auth.NewBcryptHasher(c.BcryptCost), tokens, objects, resolver, logger)

	gin.SetMode(gin.ReleaseMode)
	app.server = httpserver.NewServer(httpserver.Options{
		Address:         c.HTTPAddr,
		MaxUploadSize:   c.MaxUploadSize,
		ShutdownTimeout: c.ShutdownTimeout,
	}, logger, us, tokens)

	return app, nil
}

// initStorage opens the user store and the object storage for the configured
// mode. Memory mode needs neither Postgres nor S3.
func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, services.ObjectStorage, error) {
	switch app.config.StorageMode {
	case config.StorageModeMemory:
		app.logger.Warn(ctx, "Using in-memory storage, data will not survive a restart")
		return repomanager.NewMemoryRepositoryManager(), media.NewMemoryStorage(), nil

	case config.StorageModePostgres:
		db, err := openPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}

		manager := newPostgresManager()
		if err := manager.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}

		objects, err := newObjectStorage(ctx, media.S3Options{
			User:     app.config.S3RootUser,
			Password: app.config.S3RootPassword,
			Bucket:   app.config.S3Bucket,
			Region:   app.config.S3Region,
			Endpoint: app.config.S3BaseEndpoint,
		})
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("object storage init error: %w", err)
		}

		app.db = db
		return manager, objects, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage mode %q", app.config.StorageMode)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage_mode", app.config.StorageMode)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(ctx, "closing database", "error", cerr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
