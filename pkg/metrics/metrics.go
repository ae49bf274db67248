package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "papershelf", Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "papershelf", Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	PaperOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "papershelf", Name: "paper_operations_total", Help: "Successful paper mutations by operation."},
		[]string{"op"},
	)
	NoteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "papershelf", Name: "note_operations_total", Help: "Successful note mutations by operation."},
		[]string{"op"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "papershelf", Name: "uploads_total", Help: "Paper file uploads by storage backend and result."},
		[]string{"backend", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(PaperOperations)
	reg.MustRegister(NoteOperations)
	reg.MustRegister(Uploads)
}
