package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	videosTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quickpad_videos_total",
		Help: "Total number of videos in the store",
	})

	savesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickpad_saves_total",
		Help: "Total number of save requests by outcome",
	}, []string{"status"})

	observersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quickpad_observers",
		Help: "Number of active video list observers",
	})

	statsDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quickpad_stats_duration_seconds",
		Help:    "Duration of stats refresh runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickpad_errors_total",
		Help: "Total number of errors",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(videosTotal)
	prometheus.MustRegister(savesTotal)
	prometheus.MustRegister(observersGauge)
	prometheus.MustRegister(statsDurationSeconds)
	prometheus.MustRegister(errorsTotal)
}

// Save outcomes recorded by RecordSave
const (
	SaveStatusSaved   = "saved"
	SaveStatusInvalid = "invalid"
	SaveStatusLimited = "limited"
	SaveStatusFailed  = "failed"
	// SaveStatusAbandoned counts requests whose client left before the save finished
	SaveStatusAbandoned = "abandoned"
)

// UpdateVideoCount updates the videos_total metric
func UpdateVideoCount(count int64) {
	videosTotal.Set(float64(count))
}

// SetObservers updates the observers metric
func SetObservers(n int) {
	observersGauge.Set(float64(n))
}

// RecordSave records a save request outcome
func RecordSave(status string) {
	savesTotal.WithLabelValues(status).Inc()
}

// RecordStatsDuration records the duration of a stats refresh
func RecordStatsDuration(duration time.Duration) {
	statsDurationSeconds.Observe(duration.Seconds())
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
