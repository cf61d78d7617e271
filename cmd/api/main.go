package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/file"
	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/metrics"
	"github.com/abduss/filegate/internal/server"
	"github.com/abduss/filegate/internal/staging"
	"github.com/abduss/filegate/internal/storage"
	"github.com/abduss/filegate/internal/tracing"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	boot, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}

	logg, err := logger.New(cfg.Log.Level)
	if err != nil {
		boot.Fatal("init logger", zap.Error(err))
	}
	defer logg.Sync()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logg.Fatal("init tracing", zap.Error(err))
	}

	store, err := storage.New(ctx, cfg.Store)
	if err != nil {
		logg.Fatal("connect object store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	store = storage.WithTracing(store)

	stager, err := staging.NewStager(cfg.Upload.TempDir)
	if err != nil {
		logg.Fatal("prepare scratch dir", zap.Error(err))
	}

	fileService := file.NewService(store, stager, file.Options{
		MaxFileSize: cfg.Upload.MaxBytes,
		PageSize:    cfg.Upload.ListPageSize,
		Logger:      logg.Named("file"),
		Observer:    metrics.NewRecorder(),
	})

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      logg.Named("http"),
		ObjectStore: store,
		FileService: fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("filegate listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("driver", cfg.Store.Driver),
			zap.String("bucket", cfg.Store.Bucket),
			zap.String("scratch_dir", stager.Dir()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logg.Error("tracing shutdown error", zap.Error(err))
	}
}
