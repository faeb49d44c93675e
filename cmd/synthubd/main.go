// Command synthubd runs a synthub node: the hub balance-sheet engine,
// its registered vaults, a chi-based HTTP query API, and a Prometheus
// metrics endpoint.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"synthub/core/hub"
	"synthub/core/metrics"
	"synthub/core/mint"
	"synthub/core/store"
	pkgconfig "synthub/pkg/config"
)

func main() {
	log := logrus.New()

	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	viper.AutomaticEnv()

	cfg, err := pkgconfig.LoadFromEnv()
	if err != nil {
		log.WithError(err).Warn("no config file found, using built-in defaults")
		cfg = &pkgconfig.Config{}
		cfg.Server.ListenAddr = ":8090"
		cfg.Server.MetricsAddr = ":9090"
		cfg.Logging.Level = "info"
	}
	if lvl, lerr := logrus.ParseLevel(cfg.Logging.Level); lerr == nil {
		log.SetLevel(lvl)
	}
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	mem := store.New()
	mintRegistry := mint.New(mem)
	engine := hub.New(mem, mintRegistry, log)

	logPath := cfg.Storage.DBPath
	if logPath == "" {
		logPath = "./synthubd-health.log"
	}
	healthLogger, err := metrics.NewHealthLogger(engine, nil, logPath+".health.jsonl")
	if err != nil {
		log.WithError(err).Fatal("init health logger")
	}
	defer healthLogger.Close()

	metricsAddr := cfg.Server.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}
	metricsSrv, err := healthLogger.StartMetricsServer(metricsAddr)
	if err != nil {
		log.WithError(err).Fatal("start metrics server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go healthLogger.RunMetricsCollector(ctx, 15*time.Second)

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8090"
	}
	apiSrv := NewServer(listenAddr, engine, mintRegistry, log)

	go func() {
		log.Infof("query api listening on %s", listenAddr)
		if err := apiSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("query api server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = healthLogger.ShutdownMetricsServer(shutdownCtx, metricsSrv)
}
