package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var jobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "processing_jobs_in_queue",
	Help: "Number of document processing jobs waiting for a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active processing workers",
})

var degradedEmbeddings = promauto.NewCounter(prometheus.CounterOpts{
	Name: "degraded_embeddings_total",
	Help: "Chunks that fell back to a zero vector after a provider failure",
})

var documentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_processed_total",
	Help: "Completed processing runs labelled by final status",
}, []string{"status"})

var stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_stage_latency_seconds",
	Help:    "Latency of individual pipeline stages and external calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"stage"})

// HttpStatusRecorder captures the status code a handler wrote so the
// request counter can be labelled after the fact.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue()        { jobsInQueue.Inc() }
func DecrementJobsInQueue()        { jobsInQueue.Dec() }
func IncrementActiveWorkerCount()  { activeWorkerCount.Inc() }
func DecrementActiveWorkerCount()  { activeWorkerCount.Dec() }
func IncrementDegradedEmbeddings() { degradedEmbeddings.Inc() }

func CaptureDocumentProcessed(status string) {
	documentsProcessed.WithLabelValues(status).Inc()
}

func CaptureStageLatency(stage string, elapsed time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}
