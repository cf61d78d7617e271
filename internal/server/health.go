package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if deps.ObjectStore == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "component": "object-store"})
			return
		}
		if err := deps.ObjectStore.Ping(ctx); err != nil {
			deps.Logger.Warn("readiness check failed", zap.String("component", "object-store"), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "component": "object-store"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
