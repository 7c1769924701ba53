// Package server wires the recipe book together: it opens the database,
// applies migrations, builds the services and runs the REST API and the
// gRPC health service until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/images"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipebook/internal/server/rest"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/recipebook/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	http    *rest.Server
	grpc    *gs.HealthServer
	cleanup func()
}

// NewApp opens the database, migrates it and builds both transports.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	store, mediaRoot, err := newImageStore(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	ts := services.NewLabelService(db, rm, models.KindTag)
	is := services.NewLabelService(db, rm, models.KindIngredient)
	rs := services.NewRecipeService(db, rm, store, c.MaxImageBytes, logger)

	gin.SetMode(gin.ReleaseMode)
	h := rest.NewHandler(us, ts, is, rs, db.PingContext, logger)
	router := rest.NewRouter(h, rest.RouterConfig{
		AllowedOrigins: c.CORSAllowedOrigins,
		MediaURL:       c.MediaURL,
		MediaRoot:      mediaRoot,
		MaxUploadBytes: c.MaxImageBytes,
	})

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		http:    rest.NewServer(c.HTTPAddr, router, c.ShutdownTimeout, logger),
		grpc:    gs.NewHealthServer(c.EndpointAddrGRPC, logger, db.PingContext, c.HealthCheckInterval),
		cleanup: func() { db.Close() },
	}, nil
}

// newImageStore returns the configured store and, for the local backend,
// the directory the REST server should expose.
func newImageStore(ctx context.Context, c *config.Config) (images.Store, string, error) {
	switch c.ImageStorage {
	case config.ImageStorageS3:
		s, err := images.NewS3Store(ctx, images.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		return s, "", err
	case config.ImageStorageLocal, "":
		s, err := images.NewLocalStore(c.MediaDir, c.MediaURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Root(), nil
	}
	return nil, "", fmt.Errorf("unknown image storage %q", c.ImageStorage)
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, or until a transport fails.
func (app *App) Run(ctx context.Context) error {
	defer app.cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "app stopped", "err", err)
		return err
	}

	app.logger.Info(ctx, "app stopped gracefully")
	return nil
}
