package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"menuaudit/internal/ai"
	"menuaudit/internal/api"
	"menuaudit/internal/config"
	"menuaudit/internal/database"
	"menuaudit/internal/engine"
	"menuaudit/internal/live"
	"menuaudit/internal/monitoring"
	"menuaudit/internal/pipeline"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := database.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logrus.Fatalf("Failed to create upload directory: %v", err)
	}

	// The AI structuring tier is optional; without a token the pipeline
	// starts at direct spreadsheet extraction.
	var parser *ai.MenuParser
	if cfg.LLM.Enabled && cfg.LLM.Token != "" {
		parser, err = ai.NewOpenAIParser(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Token)
		if err != nil {
			logrus.Fatalf("Failed to initialize LLM client: %v", err)
		}
	} else {
		logrus.Info("LLM disabled, menu structuring will use spreadsheet extraction only")
	}

	collector := monitoring.NewCollector()
	hub := live.NewHub()
	eng := engine.New(db, pipeline.NewBuilder(parser), collector, hub)
	server := api.NewServer(db, eng, hub, cfg.Upload.Dir)

	go startMetricsServer(cfg.Server.MetricsPort, collector)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logrus.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("API server shutdown error: %v", err)
		}
	}()

	logrus.Infof("Starting API server on port %d", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logrus.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(port int, collector *monitoring.Collector) {
	metricsRouter := gin.New()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	logrus.Infof("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		logrus.Errorf("Metrics server error: %v", err)
	}
}
