package split

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zaidonaljbaae/audio-transcription-processing/internal/audio"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/vad"
)

// Chunk represents an ordered fragment of a source audio file written to
// disk for transcription. The caller is responsible for cleaning up chunk
// files after use.
type Chunk struct {
	Index       int           `json:"index"` // Zero-based, ordered by start time
	Path        string        `json:"path"`
	Start       time.Duration `json:"start"`
	End         time.Duration `json:"end"`
	SampleCount int           `json:"sample_count"`
}

// Duration returns the length of this chunk
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

// String returns a human-readable representation for logging
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %v-%v", c.Index, c.Start, c.End)
}

// Config contains splitting parameters
type Config struct {
	TargetDuration   time.Duration // Target chunk length
	SilenceSearch    time.Duration // Region before a boundary scanned for quiet windows
	SilenceThreshold float64       // Normalized energy below which a window counts as silent
	WindowDuration   time.Duration // Silence analysis window
}

// Splitter splits standardized WAV files into ordered chunks. Cut points
// snap to the quietest silent window inside the search region before each
// target boundary, so chunks end on pauses instead of mid-word.
type Splitter struct {
	config Config
	logger *slog.Logger

	// Statistics
	chunksCreated uint64
	totalDuration time.Duration

	mu sync.RWMutex
}

// Stats represents splitter statistics
type Stats struct {
	ChunksCreated uint64        `json:"chunks_created"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   float64       `json:"avg_chunk_duration_sec"`
}

// New creates a new Splitter
func New(config Config, logger *slog.Logger) (*Splitter, error) {
	if config.TargetDuration <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %v", config.TargetDuration)
	}

	if config.SilenceSearch < 0 || config.SilenceSearch >= config.TargetDuration {
		return nil, fmt.Errorf("silence search region %v must be shorter than target duration %v",
			config.SilenceSearch, config.TargetDuration)
	}

	if config.WindowDuration <= 0 {
		return nil, fmt.Errorf("window duration must be positive, got %v", config.WindowDuration)
	}

	return &Splitter{
		config: config,
		logger: logger,
	}, nil
}

// Split reads a standardized WAV file and writes its chunks into outDir.
// Returned chunks are ordered by start time and partition the source
// exactly: their durations sum to the source duration.
func (s *Splitter) Split(ctx context.Context, wavPath, outDir string) ([]Chunk, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", wavPath, err)
	}

	samples, sampleRate, err := audio.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", wavPath, err)
	}

	windowSize := int(float64(sampleRate) * s.config.WindowDuration.Seconds())
	detector, err := vad.NewDetector(s.config.SilenceThreshold, windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create silence detector: %w", err)
	}

	boundaries := s.cutPoints(samples, sampleRate, detector)

	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	chunks := make([]Chunk, 0, len(boundaries))

	start := 0
	for i, end := range boundaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunkData, err := audio.Encode(samples[start:end], sampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to encode chunk %d: %w", i, err)
		}

		chunkPath := filepath.Join(outDir, fmt.Sprintf("%s_chunk%03d.wav", base, i))
		if err := os.WriteFile(chunkPath, chunkData, 0644); err != nil {
			return nil, fmt.Errorf("failed to write chunk %d: %w", i, err)
		}

		chunk := Chunk{
			Index:       i,
			Path:        chunkPath,
			Start:       samplesToDuration(start, sampleRate),
			End:         samplesToDuration(end, sampleRate),
			SampleCount: end - start,
		}
		chunks = append(chunks, chunk)

		s.logger.Debug("Chunk written",
			slog.String("source", wavPath),
			slog.Int("index", chunk.Index),
			slog.Duration("start", chunk.Start),
			slog.Duration("end", chunk.End),
		)

		start = end
	}

	s.mu.Lock()
	s.chunksCreated += uint64(len(chunks))
	s.totalDuration += samplesToDuration(len(samples), sampleRate)
	s.mu.Unlock()

	return chunks, nil
}

// cutPoints returns the exclusive end sample index of every chunk. The last
// boundary is always len(samples), so the boundaries partition the input.
func (s *Splitter) cutPoints(samples []int16, sampleRate int, detector *vad.Detector) []int {
	target := int(float64(sampleRate) * s.config.TargetDuration.Seconds())
	search := int(float64(sampleRate) * s.config.SilenceSearch.Seconds())
	windowSize := detector.WindowSize()

	var boundaries []int
	start := 0
	for {
		boundary := start + target
		if boundary >= len(samples) {
			boundaries = append(boundaries, len(samples))
			return boundaries
		}

		if search > 0 {
			boundary = s.snapToSilence(samples, boundary, search, windowSize, detector)
		}

		boundaries = append(boundaries, boundary)
		start = boundary
	}
}

// snapToSilence scans the search region that ends at boundary and moves the
// cut to the start of the quietest silent window. Falls back to the exact
// boundary when every window in the region carries voice.
func (s *Splitter) snapToSilence(samples []int16, boundary, search, windowSize int, detector *vad.Detector) int {
	regionStart := boundary - search
	if regionStart < windowSize {
		regionStart = windowSize
	}

	bestScore := s.config.SilenceThreshold
	bestCut := -1

	for pos := boundary - windowSize; pos >= regionStart; pos -= windowSize {
		score := detector.Score(samples[pos : pos+windowSize])
		if score < bestScore {
			bestScore = score
			bestCut = pos
		}
	}

	if bestCut > 0 {
		return bestCut
	}
	return boundary
}

// GetStats returns current splitter statistics
func (s *Splitter) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	avg := float64(0)
	if s.chunksCreated > 0 {
		avg = s.totalDuration.Seconds() / float64(s.chunksCreated)
	}

	return Stats{
		ChunksCreated: s.chunksCreated,
		TotalDuration: s.totalDuration,
		AvgDuration:   avg,
	}
}

func samplesToDuration(n, sampleRate int) time.Duration {
	return time.Duration(float64(n) / float64(sampleRate) * float64(time.Second))
}
