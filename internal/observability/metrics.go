package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calobot_events_received_total",
		Help: "Inbound webhook events by kind",
	}, []string{"kind"})

	RecognitionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calobot_recognition_total",
		Help: "Recognition pipeline outcomes by backend and status",
	}, []string{"backend", "status"})

	RecognitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calobot_recognition_duration_seconds",
		Help:    "Duration of the download-recognize-estimate pipeline",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calobot_deliveries_total",
		Help: "Outbound reply/push deliveries by channel and status",
	}, []string{"channel", "status"})
)
