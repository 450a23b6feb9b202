// Package metrics exposes Prometheus instruments for workouts and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterFrames       prometheus.Counter
	CounterFramesNoBody prometheus.Counter
	CounterReps         *prometheus.CounterVec
	CounterSets         *prometheus.CounterVec
	CounterWorkouts     *prometheus.CounterVec
	CounterLogSaves     *prometheus.CounterVec
	CounterSpoken       prometheus.Counter
	CounterRequests     *prometheus.CounterVec

	// gauges
	GaugeActiveWorkout prometheus.Gauge
	GaugeWSClients     prometheus.Gauge

	// histograms
	HistFrameDuration   prometheus.Histogram
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("repcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_processed",
		Help:      "The total number of camera frames run through the rep counter",
	})
	counterFramesNoBody := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_without_body",
		Help:      "The total number of frames missing the tracked joints",
	})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of counted repetitions",
	}, []string{"exercise"})
	counterSets := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_completed",
		Help:      "The total number of sets that reached their target",
	}, []string{"exercise"})
	counterWorkouts := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts",
		Help:      "The total number of stopped workouts",
	}, []string{"exercise", "complete"})
	counterLogSaves := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "log_saves",
		Help:      "Workout log writes by target and outcome",
	}, []string{"target", "outcome"})
	counterSpoken := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "feedback_spoken",
		Help:      "The total number of feedback lines handed to speech",
	})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})

	gaugeActiveWorkout := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_workout",
		Help:      "1 while a workout is running",
	})
	gaugeWSClients := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ws_clients",
		Help:      "Connected WebSocket clients",
	})

	histFrameDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.001, 0.0025, 0.005, 0.01, 0.025,
				0.05, 0.1, 0.25, 0.5, 1,
			},
			Name: "frame_duration_seconds",
			Help: "Time to detect, count and draw one frame",
		},
	)
	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0001, 0.001, 0.01, 0.1, 1, 10, 60,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)

	return &Manager{
		CounterFrames:       counterFrames,
		CounterFramesNoBody: counterFramesNoBody,
		CounterReps:         counterReps,
		CounterSets:         counterSets,
		CounterWorkouts:     counterWorkouts,
		CounterLogSaves:     counterLogSaves,
		CounterSpoken:       counterSpoken,
		CounterRequests:     counterRequests,
		GaugeActiveWorkout:  gaugeActiveWorkout,
		GaugeWSClients:      gaugeWSClients,
		HistFrameDuration:   histFrameDuration,
		HistRequestDuration: histReqDuration,
	}
}
