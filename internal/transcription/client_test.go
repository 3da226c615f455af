package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// writeChunkFile writes a small fake chunk file and returns its path
func writeChunkFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample_chunk000.wav")
	if err := os.WriteFile(path, []byte("RIFF-fake-audio"), 0644); err != nil {
		t.Fatalf("Failed to write chunk file: %v", err)
	}
	return path
}

func testRequest(audioPath string) *Request {
	return &Request{
		AudioPath:  audioPath,
		SourceFile: "sample",
		ChunkID:    "sample_chunk000",
		ChunkIndex: 0,
		SampleRate: 16000,
		Duration:   30.0,
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for empty endpoint")
	}

	c, err := NewClient(Config{Endpoint: "http://example.com"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if c.config.Language != "pt-BR" {
		t.Errorf("Expected default language pt-BR, got %s", c.config.Language)
	}

	if c.config.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", c.config.Timeout)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	var gotFields map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		gotFields = map[string]string{
			"chunk_id":    r.FormValue("chunk_id"),
			"chunk_index": r.FormValue("chunk_index"),
			"language":    r.FormValue("language"),
			"source_file": r.FormValue("source_file"),
		}

		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"chunk_id":   r.FormValue("chunk_id"),
			"text":       "olá mundo",
			"confidence": 0.93,
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Language: "pt-BR", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Transcribe(context.Background(), testRequest(writeChunkFile(t)))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if result.Text != "olá mundo" {
		t.Errorf("Expected text 'olá mundo', got '%s'", result.Text)
	}

	if result.Confidence != 0.93 {
		t.Errorf("Expected confidence 0.93, got %f", result.Confidence)
	}

	if gotFields["chunk_id"] != "sample_chunk000" {
		t.Errorf("Expected chunk_id field, got '%s'", gotFields["chunk_id"])
	}

	if gotFields["language"] != "pt-BR" {
		t.Errorf("Expected language pt-BR, got '%s'", gotFields["language"])
	}

	stats := client.GetStats()
	if stats.SuccessRequests != 1 || stats.TotalRequests != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestTranscribeRetriesServerError(t *testing.T) {
	var attempts int
	var retryCallbacks int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "segunda tentativa"})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint:   server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		OnRetry:    func() { retryCallbacks++ },
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Transcribe(context.Background(), testRequest(writeChunkFile(t)))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if result.Text != "segunda tentativa" {
		t.Errorf("Expected retry to succeed, got '%s'", result.Text)
	}

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}

	if client.GetStats().TotalRetries != 1 {
		t.Errorf("Expected 1 retry in stats, got %d", client.GetStats().TotalRetries)
	}

	if retryCallbacks != 1 {
		t.Errorf("Expected OnRetry to fire once, got %d", retryCallbacks)
	}
}

func TestTranscribeRetriesClientTimeout(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 100 * time.Millisecond, MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), testRequest(writeChunkFile(t)))
	if err == nil {
		t.Fatal("Expected error for timed out requests")
	}

	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("Expected the timed out request to be retried, got %d attempts", got)
	}

	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("Expected error to report 2 attempts, got: %v", err)
	}
}

func TestTranscribeDoesNotRetryClientError(t *testing.T) {
	var attempts int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second, MaxRetries: 3})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Transcribe(context.Background(), testRequest(writeChunkFile(t))); err == nil {
		t.Fatal("Expected error for 400 response")
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}

	if client.GetStats().FailedRequests != 1 {
		t.Errorf("Expected 1 failed request in stats, got %d", client.GetStats().FailedRequests)
	}
}

func TestTranscribeExhaustsRetries(t *testing.T) {
	var attempts int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second, MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Transcribe(context.Background(), testRequest(writeChunkFile(t))); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}

	if attempts != 2 {
		t.Errorf("Expected 2 attempts (1 + 1 retry), got %d", attempts)
	}
}

func TestTranscribeMissingChunkFile(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://127.0.0.1:0", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	req := testRequest(filepath.Join(t.TempDir(), "missing.wav"))
	if _, err := client.Transcribe(context.Background(), req); err == nil {
		t.Fatal("Expected error for missing chunk file")
	}
}

func TestIsRetryableError(t *testing.T) {
	clientTimeout := fmt.Errorf("HTTP request failed: %w", &url.Error{
		Op:  "Post",
		URL: "http://localhost/transcribe",
		Err: timeoutError{},
	})

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("HTTP request failed: %w", context.DeadlineExceeded), true},
		{"client timeout", clientTimeout, true},
		{"cancelled", context.Canceled, false},
		{"server error", errString("HTTP error 503: unavailable"), true},
		{"rate limit", errString("HTTP error 429: slow down"), true},
		{"connection refused", errString("dial tcp: connection refused"), true},
		{"client error", errString("HTTP error 400: bad request"), false},
		{"parse error", errString("failed to parse response JSON"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// timeoutError mimics the net-level error inside an http.Client timeout
type timeoutError struct{}

func (timeoutError) Error() string   { return "Client.Timeout exceeded while awaiting headers" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"pt-BR", "pt"},
		{"pt", "pt"},
		{"EN-us", "en"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := baseLanguage(tt.tag); got != tt.want {
			t.Errorf("baseLanguage(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
