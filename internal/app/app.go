package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"camdetect/internal/config"
	"camdetect/internal/logger"
	"camdetect/internal/metrics"
	"camdetect/internal/repository/sqlite"
	"camdetect/internal/route"
	"camdetect/internal/service/ai"
	"camdetect/internal/service/camera"
	"camdetect/internal/service/detection"
	"camdetect/internal/service/export"
	"camdetect/internal/service/storage"
	"camdetect/internal/service/websocket"
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	sessionRepo   *sqlite.SessionRepository
	detectionRepo *sqlite.DetectionRepository
	detector      *ai.DetectorService
	source        *camera.Source
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	metrics       *metrics.Metrics
	controller    *detection.Controller
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	a := &App{
		config:        cfg,
		logger:        log,
		db:            db,
		sessionRepo:   sqlite.NewSessionRepository(db),
		detectionRepo: sqlite.NewDetectionRepository(db),
		detector:      ai.NewDetectorService(cfg, log),
		source:        camera.NewSource(cfg, log),
		bufferService: storage.NewBufferService(cfg, log),
		hubService:    websocket.NewHubService(log),
		metrics:       metrics.New(),
	}
	a.metrics.TrackViewers(a.hubService.GetClientCount)

	a.controller = detection.NewController(detection.Options{
		Source:          a.source,
		Detector:        a.detector,
		Publisher:       a.hubService,
		Records:         export.NewRecordExporter(),
		Chart:           export.NewChartExporter(),
		Store:           a.sessionRepo,
		Snapshots:       a.bufferService,
		Observer:        a.metrics,
		Logger:          log,
		Interval:        cfg.TickInterval,
		ConfidenceFloor: cfg.ConfidenceFloor,
		StatusHistory:   cfg.StatusHistory,
	})

	return a, nil
}

// Run serves the dashboard until SIGINT or SIGTERM, then stops any running
// session, saving its exports under the export directory.
func (a *App) Run() error {
	defer a.close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.bufferService.Run(stop)
	}()
	go func() {
		defer wg.Done()
		a.hubService.Run(stop)
	}()

	if a.config.ModelPath != "" {
		// A failed preload is reported and the dashboard still starts.
		a.controller.LoadModel(a.config.ModelPath)
	}

	router := route.SetupRoutes(route.Dependencies{
		Config:        a.config,
		Logger:        a.logger,
		Controller:    a.controller,
		Hub:           a.hubService,
		Metrics:       a.metrics,
		SessionRepo:   a.sessionRepo,
		DetectionRepo: a.detectionRepo,
	})

	srv := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	a.logger.Info("Object detection server listening on http://%s", a.config.Addr())
	a.logger.Info("Models: %s, exports: %s, snapshots: %s", a.config.ModelDirectory, a.config.ExportDirectory, a.config.SnapshotDirectory)
	if a.config.Password == "" {
		a.logger.Warning("PASSWORD is not set, the dashboard is open to anyone who can reach it")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("Received %s, shutting down", sig)
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.controller.Shutdown(detection.AutoDestinations{Dir: a.config.ExportDirectory, At: time.Now()})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP shutdown error: %v", err)
	}

	// Flushes pending snapshots and disconnects viewers.
	close(stop)
	wg.Wait()
	return runErr
}

func (a *App) close() {
	if err := a.source.Close(); err != nil {
		a.logger.Warning("Camera close failed: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Warning("Detector close failed: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Database close failed: %v", err)
	}
	a.logger.Close()
}
