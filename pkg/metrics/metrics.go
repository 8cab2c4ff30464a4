package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Capture metrics
	CaptureMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_capture_messages_total",
			Help: "Total number of messages captured to a recording",
		},
		[]string{"session_id", "topic"},
	)

	CaptureBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_capture_bytes_total",
			Help: "Total payload bytes captured to a recording",
		},
		[]string{"session_id", "topic"},
	)

	// Replay metrics
	ReplayMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_messages_sent_total",
			Help: "Total number of messages sent during replay",
		},
		[]string{"session_id", "topic"},
	)

	ReplayMessagesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_messages_skipped_total",
			Help: "Messages dropped after exhausting delivery retries",
		},
		[]string{"session_id", "topic"},
	)

	ReplayRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_send_retries_total",
			Help: "Total delivery retries during replay",
		},
		[]string{"session_id", "topic"},
	)

	ReplaySendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_replay_send_latency_seconds",
			Help:    "Latency of individual produce calls during replay",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"session_id"},
	)

	// Storage metrics
	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_replay_storage_operations_total",
			Help: "Total recording store operations",
		},
		[]string{"operation", "status"},
	)
)

// Serve exposes the Prometheus registry on addr under /metrics. It blocks,
// so callers run it in a goroutine for the lifetime of a session.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
