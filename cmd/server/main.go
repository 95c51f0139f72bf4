package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmoreira/flashdeck/internal/api"
	"github.com/dmoreira/flashdeck/internal/config"
	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/services"
	"github.com/dmoreira/flashdeck/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("Flashdeck server starting")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("upload_dir=%s", cfg.UploadDir)
	log.Debug("import_worker_count=%d", cfg.ImportWorkerCount)
	log.Debug("import_queue_size=%d", cfg.ImportQueueSize)
	log.Debug("desired_retention=%g", cfg.DesiredRetention)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	schedulerOpts := []fsrs.Option{fsrs.WithDesiredRetention(cfg.DesiredRetention)}
	if cfg.FSRSWeights != "" {
		weights, err := fsrs.ParseWeights(cfg.FSRSWeights)
		if err != nil {
			log.Error("invalid FSRS_WEIGHTS: %v", err)
			os.Exit(1)
		}
		schedulerOpts = append(schedulerOpts, fsrs.WithWeights(weights))
	}
	scheduler := fsrs.New(schedulerOpts...)

	importPool := worker.NewPool(cfg.ImportWorkerCount, cfg.ImportQueueSize)

	deckService := services.NewDeckService(database, nil)
	cardService := services.NewCardService(database, scheduler, nil)
	statsService := services.NewStatsService(database, nil)
	importService := services.NewImportService(database, importPool, cfg.UploadDir, nil)

	srv := api.NewServer(deckService, cardService, importService, statsService)
	srv.MaxUploadBytes = int64(cfg.MaxUploadMB) << 20
	srv.StaticDir = cfg.StaticDir

	ctx, cancel := context.WithCancel(context.Background())
	importPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	cancel()
	importPool.Stop()

	log.Info("Flashdeck server stopped")
}
