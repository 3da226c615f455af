package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription pipeline
type Metrics struct {
	// File metrics
	FilesDiscovered prometheus.Counter
	FilesConverted  prometheus.Counter
	FilesSkipped    prometheus.Counter
	FilesFailed     prometheus.Counter

	// Chunking metrics
	ChunksGenerated prometheus.Counter
	ChunkDuration   prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionRetries   prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// HTTP status server metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FilesDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_files_discovered_total",
			Help: "Total number of input AAC files discovered",
		}),
		FilesConverted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_files_converted_total",
			Help: "Total number of files converted to WAV",
		}),
		FilesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_files_skipped_total",
			Help: "Total number of files skipped as already processed",
		}),
		FilesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_files_failed_total",
			Help: "Total number of files that failed conversion or splitting",
		}),

		ChunksGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_chunks_generated_total",
			Help: "Total number of audio chunks generated",
		}),
		ChunkDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_chunk_duration_seconds",
			Help:    "Duration of generated audio chunks",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2 minutes
		}),

		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_transcription_retries_total",
			Help: "Total number of transcription request retries",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_http_requests_total",
			Help: "Total number of HTTP requests to the status server",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_http_request_duration_seconds",
			Help:    "Duration of HTTP requests to the status server",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_http_errors_total",
			Help: "Total number of HTTP errors from the status server",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFileDiscovered increments the files discovered counter
func (m *Metrics) RecordFileDiscovered() {
	m.FilesDiscovered.Inc()
}

// RecordFileConverted increments the files converted counter
func (m *Metrics) RecordFileConverted() {
	m.FilesConverted.Inc()
}

// RecordFileSkipped increments the files skipped counter
func (m *Metrics) RecordFileSkipped() {
	m.FilesSkipped.Inc()
}

// RecordFileFailed increments the files failed counter
func (m *Metrics) RecordFileFailed() {
	m.FilesFailed.Inc()
}

// RecordChunkGenerated records a generated audio chunk
func (m *Metrics) RecordChunkGenerated(durationSeconds float64) {
	m.ChunksGenerated.Inc()
	m.ChunkDuration.Observe(durationSeconds)
}

// RecordTranscriptionRequest increments the transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionRetry increments the retry counter
func (m *Metrics) RecordTranscriptionRetry() {
	m.TranscriptionRetries.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
