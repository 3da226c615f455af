// Package server exposes the HTTP status API: health, batch progress,
// sanitized configuration and Prometheus metrics. The server is optional
// and runs alongside the pipeline for the duration of a batch.
package server
