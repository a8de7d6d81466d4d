package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askdesk/internal/api"
	"github.com/liliang-cn/askdesk/internal/api/control"
	"github.com/liliang-cn/askdesk/internal/api/stream"
	"github.com/liliang-cn/askdesk/internal/client"
	"github.com/liliang-cn/askdesk/internal/config"
	"github.com/liliang-cn/askdesk/internal/logger"
	"github.com/liliang-cn/askdesk/internal/repository"
	"github.com/liliang-cn/askdesk/internal/service"
	"github.com/liliang-cn/askdesk/internal/state"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	err = run(cfg, zlog)
	_ = zlog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {

	if zlog.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize preference database
	db, err := repository.NewDB(cfg.Preferences.Path)
	if err != nil {
		zlog.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	defer db.Close()

	// Application store, one per process
	store := state.NewStore(state.Initial())

	prefs := service.NewPreferenceService(repository.NewPreferenceRepository(db), store, zlog)
	if err := prefs.Restore(); err != nil {
		zlog.Warn("Failed to restore preferences, using defaults", zap.Error(err))
	}
	stopWatching := prefs.Watch()
	defer stopWatching()

	// Remote document service and workflows
	docClient := client.New(cfg.Service.BaseURL, cfg.Service.Timeout, zlog.Named("client"))
	hub := service.NewNotificationHub(zlog.Named("notify"))
	coordinator := service.NewCoordinator(store, docClient, hub, zlog.Named("workflow"), cfg.Service.TopK)

	// Setup router
	router := api.SetupRouter(
		control.NewHandler(store, coordinator, docClient, service.NewUploadPolicy(cfg.Upload), zlog),
		stream.NewHandler(store, hub, stream.DefaultKeepAlive, zlog),
		api.RouterConfig{
			APIKey:       cfg.API.APIKey,
			AllowOrigins: cfg.API.AllowOrigins,
		},
	)

	// Create HTTP server. No write timeout: event streams stay open and
	// workflow requests last as long as the service call does.
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("Starting AskDesk server",
			zap.String("address", cfg.Address()),
			zap.String("service", cfg.Service.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Initial document load; a failure is already notified and logged
	g.Go(func() error {
		_ = coordinator.LoadDocuments(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zlog.Error("Server stopped with error", zap.Error(err))
		return err
	}

	zlog.Info("Server exited")
	return nil
}
