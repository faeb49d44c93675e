// Package metrics exposes a Prometheus registry and structured
// health logging over a running hub.Engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"synthub/core/chain"
	"synthub/core/hub"
)

// Snapshot captures a point-in-time view of every tracked vault plus
// process-level runtime stats.
type Snapshot struct {
	TotalCollateralBalance uint64 `json:"total_collateral_balance"`
	TotalReserveBalance    uint64 `json:"total_reserve_balance"`
	TotalTreasuryShares    uint64 `json:"total_treasury_shares"`
	TotalAmoShares         uint64 `json:"total_amo_shares"`
	MemAlloc               uint64 `json:"mem_alloc"`
	NumGoroutines          int    `json:"goroutines"`
	Timestamp              int64  `json:"timestamp"`
}

// HealthLogger periodically samples the hub's registered vaults and
// records both structured logs and Prometheus gauges.
type HealthLogger struct {
	engine *hub.Engine
	vaults []chain.VaultID

	log  *logrus.Logger
	file *os.File
	mu   sync.Mutex

	registry          *prometheus.Registry
	collateralGauge   *prometheus.GaugeVec
	reserveGauge      *prometheus.GaugeVec
	treasurySharesGauge *prometheus.GaugeVec
	amoSharesGauge    *prometheus.GaugeVec
	memAllocGauge     prometheus.Gauge
	goroutinesGauge   prometheus.Gauge
	errorCounter      prometheus.Counter
}

// NewHealthLogger configures a HealthLogger that tracks vaults (by
// id) registered on engine, writing JSON logs to path.
func NewHealthLogger(engine *hub.Engine, vaults []chain.VaultID, path string) (*HealthLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	lg := logrus.New()
	lg.SetFormatter(&logrus.JSONFormatter{})
	lg.SetOutput(f)
	reg := prometheus.NewRegistry()

	h := &HealthLogger{engine: engine, vaults: vaults, log: lg, file: f, registry: reg}

	h.collateralGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synthub_vault_collateral_balance",
		Help: "Vault collateral balance in underlying units",
	}, []string{"vault"})
	h.reserveGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synthub_vault_reserve_balance",
		Help: "Vault reserve balance in underlying units",
	}, []string{"vault"})
	h.treasurySharesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synthub_vault_treasury_shares",
		Help: "Vault shares held in the treasury bucket",
	}, []string{"vault"})
	h.amoSharesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synthub_vault_amo_shares",
		Help: "Vault shares held in the AMO bucket",
	}, []string{"vault"})
	h.memAllocGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synthub_mem_alloc_bytes",
		Help: "Current memory allocation in bytes",
	})
	h.goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synthub_goroutines",
		Help: "Number of running goroutines",
	})
	h.errorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "synthub_log_errors_total",
		Help: "Total number of error events logged",
	})

	reg.MustRegister(
		h.collateralGauge,
		h.reserveGauge,
		h.treasurySharesGauge,
		h.amoSharesGauge,
		h.memAllocGauge,
		h.goroutinesGauge,
		h.errorCounter,
	)

	return h, nil
}

// Close releases the underlying log file.
func (h *HealthLogger) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file.Close()
}

// LogEvent records an arbitrary message with the specified log level.
func (h *HealthLogger) LogEvent(level logrus.Level, msg string) {
	h.mu.Lock()
	if level >= logrus.ErrorLevel {
		h.errorCounter.Inc()
	}
	h.log.Log(level, msg)
	h.mu.Unlock()
}

// Snapshot gathers current metrics across every tracked vault and the
// runtime.
func (h *HealthLogger) Snapshot() Snapshot {
	s := Snapshot{Timestamp: time.Now().Unix(), NumGoroutines: runtime.NumGoroutine()}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.MemAlloc = mem.Alloc

	for _, id := range h.vaults {
		meta, err := h.engine.VaultMetadata(id)
		if err != nil {
			h.LogEvent(logrus.WarnLevel, "vault metadata unavailable: "+err.Error())
			continue
		}
		s.TotalCollateralBalance += meta.BalanceSheet.CollateralBalance
		s.TotalReserveBalance += meta.BalanceSheet.ReserveBalance
		s.TotalTreasuryShares += meta.BalanceSheet.TreasuryShares
		s.TotalAmoShares += meta.BalanceSheet.AmoShares
	}
	return s
}

// RecordMetrics samples every tracked vault and updates the
// per-vault Prometheus gauges plus the process-level gauges.
func (h *HealthLogger) RecordMetrics() {
	for _, id := range h.vaults {
		meta, err := h.engine.VaultMetadata(id)
		if err != nil {
			continue
		}
		label := string(id)
		h.collateralGauge.WithLabelValues(label).Set(float64(meta.BalanceSheet.CollateralBalance))
		h.reserveGauge.WithLabelValues(label).Set(float64(meta.BalanceSheet.ReserveBalance))
		h.treasurySharesGauge.WithLabelValues(label).Set(float64(meta.BalanceSheet.TreasuryShares))
		h.amoSharesGauge.WithLabelValues(label).Set(float64(meta.BalanceSheet.AmoShares))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	h.memAllocGauge.Set(float64(mem.Alloc))
	h.goroutinesGauge.Set(float64(runtime.NumGoroutine()))
	h.LogEvent(logrus.InfoLevel, "metrics recorded")
}

// RunMetricsCollector periodically records metrics until the context
// is canceled.
func (h *HealthLogger) RunMetricsCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.RecordMetrics()
		case <-ctx.Done():
			return
		}
	}
}

// StartMetricsServer exposes a Prometheus metrics endpoint on addr.
func (h *HealthLogger) StartMetricsServer(addr string) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.LogEvent(logrus.ErrorLevel, err.Error())
		}
	}()
	return srv, nil
}

// ShutdownMetricsServer gracefully stops the metrics HTTP server.
func (h *HealthLogger) ShutdownMetricsServer(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
