// Package metrics exposes planner activity to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdxmph/scheduler-tui/internal/logger"
)

var (
	// TaskOps counts task mutations by operation (add, update, delete, toggle)
	TaskOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_task_operations_total",
			Help: "Task mutations applied to the store",
		},
		[]string{"op"},
	)

	// XP is the signed-in user's experience total
	XP = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_user_xp",
		Help: "Experience points of the signed-in user",
	})

	// Level is the signed-in user's level
	Level = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_user_level",
		Help: "Level of the signed-in user",
	})

	// LevelUps counts level-up and rank-up signals
	LevelUps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_progression_events_total",
			Help: "Level-up and rank-up signals fired",
		},
		[]string{"kind"},
	)

	// Flushes counts background saves by result (ok, error)
	Flushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_persist_flushes_total",
			Help: "Background persistence flushes",
		},
		[]string{"result"},
	)

	// FlushDuration observes how long a flush takes
	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_persist_flush_duration_seconds",
		Help:    "Duration of background persistence flushes",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Handler returns the HTTP handler for /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the endpoint.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.For("metrics").WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
