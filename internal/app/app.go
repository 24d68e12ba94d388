package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/kaical-backend/internal/data/db"
	httpserver "github.com/yungbote/kaical-backend/internal/http"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(orDefault(os.Getenv("LOG_MODE"), "development"))
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.Info("Config loaded", "config", cfg.String())

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log)

	pg, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := pg.DB()
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = pg.Close()
			log.Sync()
			return nil, err
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	repos := wireRepos(theDB, log)
	svcs, err := wireServices(log, cfg, repos, clients)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	handlers := wireHandlers(log, theDB, svcs)
	mw := wireMiddleware(log, clients, svcs)
	server := wireServer(log, cfg, metrics, handlers, mw)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        repos,
		Services:     svcs,
		Metrics:      metrics,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", a.Cfg.Addr)
		return a.Server.Run(a.Cfg.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.Log.Info("Shutting down server")
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Resync retries Google pushes for events stored as FAILED.
func (a *App) Resync(ctx context.Context, limit int) (services.ResyncResult, error) {
	return a.Services.Event.ResyncFailed(ctx, limit)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("Failed to close database", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	a.Log.Sync()
}

// Migrate opens the configured database and applies the schema without
// wiring anything else.
func Migrate(ctx context.Context) error {
	log, err := logger.New(orDefault(os.Getenv("LOG_MODE"), "development"))
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log, db.ConfigFromEnv(log))
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer pg.Close()

	if err := db.AutoMigrateAll(pg.DB().WithContext(ctx)); err != nil {
		return err
	}
	log.Info("Migrations applied")
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
