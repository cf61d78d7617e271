package server

import (
	"slices"
	"time"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/file"
	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/metrics"
	"github.com/abduss/filegate/internal/storage"
	"github.com/abduss/filegate/internal/tracing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	ObjectStore storage.ObjectStore
	FileService *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(tracing.Middleware(cfg.Metrics.PrometheusPath))
	router.Use(metrics.Middleware())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	}

	registerHealthRoutes(router, deps)
	if cfg.Metrics.PrometheusPath != "" {
		metrics.Register(router, cfg.Metrics.PrometheusPath)
	}

	if deps.FileService != nil {
		file.RegisterRoutes(router, deps.FileService, file.HandlerOptions{
			FieldName:    cfg.Upload.FieldName,
			PublicScheme: cfg.Upload.PublicScheme,
			Developer:    cfg.Upload.Developer,
			NotFoundPage: fileNotFoundPage(cfg.Static.Dir),
			StrictFetch:  cfg.Upload.StrictFetch,
		})
	}

	router.NoRoute(staticFallback(cfg.Static.Dir, cfg.Upload.TempDir))
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logger.CorrelationIDHeader},
		ExposeHeaders: []string{logger.CorrelationIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
