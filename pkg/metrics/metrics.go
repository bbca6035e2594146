// Package metrics exposes prometheus metrics of display links and
// scenario runs. Importing it registers the /metrics handler for
// servers created with default handlers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mandelsoft/animated/pkg/server"
)

func init() {
	server.Register("/metrics", promhttp.Handler())
}

var (
	Frames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animated_frames_total",
		Help: "Total frames stepped by display links",
	})
	IdleFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animated_idle_frames_total",
		Help: "Frames after which the manager reported idle",
	})
	Commands = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animated_commands_total",
		Help: "Commands executed on display link goroutines",
	})
	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "animated_step_duration_seconds",
		Help:    "Duration of a single evaluation step",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
	Scenarios = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animated_scenarios_total",
		Help: "Scenario runs by result",
	}, []string{"result"})
)

// ObserveStep records a frame step taking d. active is the result
// of the step.
func ObserveStep(d time.Duration, active bool) {
	Frames.Inc()
	StepDuration.Observe(d.Seconds())
	if !active {
		IdleFrames.Inc()
	}
}

// ObserveCommand records an executed command.
func ObserveCommand() {
	Commands.Inc()
}

// ObserveScenario records a finished scenario run.
func ObserveScenario(err error) {
	if err != nil {
		Scenarios.WithLabelValues("failed").Inc()
	} else {
		Scenarios.WithLabelValues("succeeded").Inc()
	}
}
