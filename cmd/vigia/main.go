package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vigia-platform/vigia/internal/core"
	"github.com/vigia-platform/vigia/internal/knowledge"
	"github.com/vigia-platform/vigia/internal/session"
	"github.com/vigia-platform/vigia/internal/storage"
	"github.com/vigia-platform/vigia/pkg/logger"
)

func main() {
	configPath := os.Getenv("VIGIA_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/vigia.yaml"
	}

	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(config.App.LogLevel); err != nil {
		fmt.Printf("Logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// The knowledge base is optional: without it the keyword and generic
	// resolvers still answer.
	var entries []knowledge.Entry
	if config.Knowledge.WorkbookPath != "" {
		entries, err = knowledge.Load(config.Knowledge.WorkbookPath)
		if err != nil {
			logger.Warn("Knowledge base unavailable, using keyword fallbacks",
				zap.String("path", config.Knowledge.WorkbookPath),
				zap.Error(err),
			)
		} else {
			logger.Info("Knowledge base loaded",
				zap.String("path", config.Knowledge.WorkbookPath),
				zap.Int("entries", len(entries)),
			)
		}
	}
	matcher := knowledge.NewMatcher(entries)

	var store storage.Store
	if config.Storage.Enabled {
		store, err = storage.NewStore(config)
		if err != nil {
			logger.Fatal("Run-history store init failed", zap.Error(err))
		}
		defer store.Close()
	}

	holder := &session.Holder{}

	if config.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), ginLogger())

	router.GET("/health", healthHandler(store, config))
	router.GET("/ready", readyHandler(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", statusHandler(config, holder))
		v1.POST("/upload", uploadHandler(holder, store, config))

		v1.GET("/kpis/hierarchy", hierarchyHandler(holder))
		v1.GET("/kpis/pareto", paretoHandler(holder))
		v1.GET("/kpis/equipment", equipmentHandler(holder))
		v1.GET("/kpis/fleet", fleetHandler(holder))
		v1.GET("/kpis/temporal", temporalHandler(holder))
		v1.GET("/kpis/heatmap", heatmapHandler(holder))
		v1.GET("/kpis/indicators", indicatorsHandler(holder))

		v1.GET("/reliability/items", reliabilityHandler(holder, config))
		v1.GET("/reliability/risk", riskHandler(holder, config))
		v1.POST("/reliability/weibull", weibullHandler(config))

		v1.GET("/anomalies", anomaliesHandler(holder, config))
		v1.GET("/badactors", badActorsHandler(holder))
		v1.GET("/causes", causesHandler(holder, matcher))
		v1.GET("/mcs", mcsHandler(holder, matcher))
		v1.GET("/availability", availabilityHandler(holder, config))

		v1.GET("/report", reportHandler(holder, matcher, store, config))
		v1.GET("/runs", runsHandler(store))
	}

	srv := &http.Server{
		Addr:           config.Server.Addr,
		Handler:        router,
		ReadTimeout:    config.ReadTimeout(),
		WriteTimeout:   config.WriteTimeout(),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func healthHandler(store storage.Store, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := store.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   config.App.Version,
		})
	}
}

func readyHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := store.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not_ready",
					"reason": "run-history store unavailable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func statusHandler(config *core.Config, holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   config.App.Name,
			"version":   config.App.Version,
			"timestamp": time.Now().Format(time.RFC3339),
			"dataset":   holder.Status(),
		})
	}
}
