package split

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zaidonaljbaae/audio-transcription-processing/internal/audio"
)

const testSampleRate = 16000

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeWAV writes samples to a temp WAV file and returns its path
func writeWAV(t *testing.T, dir string, samples []int16) string {
	t.Helper()

	data, err := audio.Encode(samples, testSampleRate)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	path := filepath.Join(dir, "source.wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}
	return path
}

// loud returns n samples of constant non-silent audio
func loud(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 10000
	}
	return samples
}

func defaultConfig() Config {
	return Config{
		TargetDuration:   2 * time.Second,
		SilenceSearch:    500 * time.Millisecond,
		SilenceThreshold: 0.05,
		WindowDuration:   64 * time.Millisecond,
	}
}

func TestNewValidation(t *testing.T) {
	logger := testLogger()

	if _, err := New(Config{TargetDuration: 0, WindowDuration: time.Millisecond * 64}, logger); err == nil {
		t.Error("Expected error for zero target duration")
	}

	bad := defaultConfig()
	bad.SilenceSearch = 3 * time.Second
	if _, err := New(bad, logger); err == nil {
		t.Error("Expected error for search region longer than target")
	}

	bad = defaultConfig()
	bad.WindowDuration = 0
	if _, err := New(bad, logger); err == nil {
		t.Error("Expected error for zero window duration")
	}
}

func TestSplitPartitionsSource(t *testing.T) {
	dir := t.TempDir()
	// 5 seconds of audio with a 2 second target: expect 3 ordered chunks
	// whose durations sum to exactly 5 seconds.
	samples := loud(5 * testSampleRate)
	path := writeWAV(t, dir, samples)

	cfg := defaultConfig()
	cfg.SilenceSearch = 0 // fixed boundaries for a deterministic partition
	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	var totalSamples int
	var total time.Duration
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("Chunk %d has index %d", i, c.Index)
		}
		if i > 0 && c.Start != chunks[i-1].End {
			t.Errorf("Chunk %d start %v does not meet previous end %v", i, c.Start, chunks[i-1].End)
		}
		totalSamples += c.SampleCount
		total += c.Duration()
	}

	if totalSamples != len(samples) {
		t.Errorf("Chunks cover %d samples, source has %d", totalSamples, len(samples))
	}

	if total != 5*time.Second {
		t.Errorf("Chunk durations sum to %v, expected 5s", total)
	}
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	dir := t.TempDir()
	samples := loud(testSampleRate / 2) // half a second, well under target
	path := writeWAV(t, dir, samples)

	s, err := New(defaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk for short input, got %d", len(chunks))
	}

	if chunks[0].SampleCount != len(samples) {
		t.Errorf("Expected chunk to cover all %d samples, got %d", len(samples), chunks[0].SampleCount)
	}
}

func TestSplitSnapsToSilence(t *testing.T) {
	dir := t.TempDir()
	// 4 seconds of voice with a silent gap from 1.70s to 1.85s. With a 2s
	// target and 0.5s search region the first cut should land in the gap.
	samples := loud(4 * testSampleRate)
	gapStart := int(1.70 * testSampleRate)
	gapEnd := int(1.85 * testSampleRate)
	for i := gapStart; i < gapEnd; i++ {
		samples[i] = 0
	}
	path := writeWAV(t, dir, samples)

	s, err := New(defaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("Expected at least 2 chunks, got %d", len(chunks))
	}

	cut := chunks[0].End
	if cut < 1650*time.Millisecond || cut > 1900*time.Millisecond {
		t.Errorf("Expected first cut inside the silent gap, got %v", cut)
	}
}

func TestSplitChunkFilesDecodable(t *testing.T) {
	dir := t.TempDir()
	samples := loud(3 * testSampleRate)
	path := writeWAV(t, dir, samples)

	cfg := defaultConfig()
	cfg.SilenceSearch = 0
	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for _, c := range chunks {
		data, err := os.ReadFile(c.Path)
		if err != nil {
			t.Fatalf("Failed to read chunk file %s: %v", c.Path, err)
		}

		decoded, rate, err := audio.Decode(data)
		if err != nil {
			t.Fatalf("Chunk file %s is not a valid WAV: %v", c.Path, err)
		}

		if rate != testSampleRate {
			t.Errorf("Chunk %d sample rate %d, expected %d", c.Index, rate, testSampleRate)
		}

		if len(decoded) != c.SampleCount {
			t.Errorf("Chunk %d has %d samples on disk, metadata says %d", c.Index, len(decoded), c.SampleCount)
		}
	}
}

func TestSplitEmptyAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(path, []byte("not a wav"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	s, err := New(defaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := s.Split(context.Background(), path, dir); err == nil {
		t.Error("Expected error for invalid audio")
	}
}

func TestSplitCancelledContext(t *testing.T) {
	dir := t.TempDir()
	samples := loud(5 * testSampleRate)
	path := writeWAV(t, dir, samples)

	s, err := New(defaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Split(ctx, path, dir); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestGetStats(t *testing.T) {
	dir := t.TempDir()
	samples := loud(4 * testSampleRate)
	path := writeWAV(t, dir, samples)

	cfg := defaultConfig()
	cfg.SilenceSearch = 0
	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := s.Split(context.Background(), path, dir); err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	stats := s.GetStats()
	if stats.ChunksCreated != 2 {
		t.Errorf("Expected 2 chunks in stats, got %d", stats.ChunksCreated)
	}
	if stats.TotalDuration != 4*time.Second {
		t.Errorf("Expected 4s total duration, got %v", stats.TotalDuration)
	}
}
