package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PROMETHEUS METRICS
// ═══════════════════════════════════════════════════════════════════════════════

var (
	RefreshCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fxsentry_refresh_cycles_total",
		Help: "Completed refresh cycles",
	})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxsentry_decisions_total",
		Help: "Decisions emitted, by action and mode",
	}, []string{"action", "mode"})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fxsentry_alerts_sent_total",
		Help: "Telegram alerts delivered",
	})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxsentry_fetch_failures_total",
		Help: "Symbols that degraded to an unavailable factor set",
	}, []string{"symbol"})

	Confidence = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fxsentry_confidence",
		Help: "Latest confidence score per symbol",
	}, []string{"symbol"})

	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxsentry_paper_equity",
		Help: "Paper portfolio equity",
	})

	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxsentry_open_positions",
		Help: "Open paper positions",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fxsentry_cycle_duration_seconds",
		Help:    "Refresh cycle wall time",
		Buckets: prometheus.DefBuckets,
	})
)

// Serve exposes /metrics on the given address in a background goroutine.
func Serve(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("📊 Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}
