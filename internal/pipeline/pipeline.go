package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zaidonaljbaae/audio-transcription-processing/internal/audio"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/config"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/convert"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/metrics"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/split"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/transcript"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/transcription"
)

// Pipeline drives one batch run: convert, standardize, split and transcribe
// every AAC file under the input directory, then flush the transcript
// document once at the end.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	converter *convert.Converter
	splitter  *split.Splitter
	provider  transcription.Provider
	metrics   *metrics.Metrics

	stats Stats
	mu    sync.RWMutex
}

// Stats represents pipeline progress counters
type Stats struct {
	FilesDiscovered   int       `json:"files_discovered"`
	FilesProcessed    int       `json:"files_processed"`
	FilesSkipped      int       `json:"files_skipped"`
	FilesFailed       int       `json:"files_failed"`
	ChunksTranscribed int       `json:"chunks_transcribed"`
	ChunksFailed      int       `json:"chunks_failed"`
	StartedAt         time.Time `json:"started_at"`
}

// New creates a new Pipeline from its assembled components
func New(cfg *config.Config, logger *slog.Logger, converter *convert.Converter,
	splitter *split.Splitter, provider transcription.Provider, m *metrics.Metrics) *Pipeline {

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		converter: converter,
		splitter:  splitter,
		provider:  provider,
		metrics:   m,
	}
}

// Run executes one full batch pass. Per-file failures are logged and
// skipped; a transcript write failure is fatal. Cancellation stops between
// files and still flushes what completed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	p.stats = Stats{StartedAt: time.Now()}
	p.mu.Unlock()

	doc, err := transcript.Load(p.cfg.Pipeline.OutputJSON)
	if err != nil {
		return fmt.Errorf("failed to load existing transcripts: %w", err)
	}

	if doc.Len() > 0 {
		p.logger.Info("Loaded existing transcripts",
			slog.Int("sources", doc.Len()),
			slog.String("path", p.cfg.Pipeline.OutputJSON),
		)
	}

	files, err := p.listInputFiles()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.stats.FilesDiscovered = len(files)
	p.mu.Unlock()

	p.logger.Info("Starting batch run",
		slog.Int("files", len(files)),
		slog.String("input_dir", p.cfg.Pipeline.InputDir),
		slog.String("provider", p.provider.Name()),
	)

	for _, name := range files {
		if ctx.Err() != nil {
			p.logger.Warn("Run cancelled, flushing completed work")
			break
		}

		p.metrics.RecordFileDiscovered()
		base := strings.TrimSuffix(name, filepath.Ext(name))

		if doc.Has(base) {
			p.logger.Info("Skipping file, already transcribed", slog.String("file", name))
			p.metrics.RecordFileSkipped()
			p.addFileSkipped()
			continue
		}

		ft, err := p.processFile(ctx, name, base)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("Failed to process file, continuing",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			p.metrics.RecordFileFailed()
			p.addFileFailed()
			continue
		}

		doc.Append(ft)
		p.addFileProcessed()
	}

	if err := doc.Save(p.cfg.Pipeline.OutputJSON); err != nil {
		return fmt.Errorf("failed to write transcript document: %w", err)
	}

	p.logger.Info("Transcripts saved",
		slog.String("path", p.cfg.Pipeline.OutputJSON),
		slog.Int("sources", doc.Len()),
	)

	return nil
}

// listInputFiles returns the .aac files in the input directory, sorted by
// name so runs are deterministic.
func (p *Pipeline) listInputFiles() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Pipeline.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", p.cfg.Pipeline.InputDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".aac") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

// processFile runs one source file through all four stages and returns its
// transcript.
func (p *Pipeline) processFile(ctx context.Context, name, base string) (*transcript.FileTranscript, error) {
	inputPath := filepath.Join(p.cfg.Pipeline.InputDir, name)
	fileWorkDir := filepath.Join(p.cfg.Pipeline.WorkDir, base)

	if err := os.MkdirAll(fileWorkDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	// Stage 1: convert AAC to WAV
	wavPath := filepath.Join(fileWorkDir, base+".wav")
	skipped, err := p.converter.ConvertToWAV(ctx, inputPath, wavPath)
	if err != nil {
		return nil, err
	}
	if skipped {
		p.logger.Debug("Conversion skipped, WAV already present", slog.String("file", name))
	} else {
		p.metrics.RecordFileConverted()
	}

	if dur, err := p.converter.ProbeDuration(ctx, wavPath); err == nil {
		p.logger.Info("File converted",
			slog.String("file", name),
			slog.Float64("duration_sec", dur),
		)
	}

	// Stage 2: standardize to 16 kHz / 16-bit PCM / mono
	stdPath := filepath.Join(fileWorkDir, base+"_standardized.wav")
	if err := p.converter.Standardize(ctx, wavPath, stdPath, p.cfg.Audio.SampleRate); err != nil {
		return nil, err
	}

	if err := p.verifyStandardized(stdPath); err != nil {
		return nil, err
	}

	// Stage 3: split into ordered chunks
	chunks, err := p.splitter.Split(ctx, stdPath, fileWorkDir)
	if err != nil {
		return nil, err
	}

	p.logger.Info("File split into chunks",
		slog.String("file", name),
		slog.Int("chunks", len(chunks)),
	)

	// Stage 4: transcribe each chunk in order
	ft := &transcript.FileTranscript{
		Source: base,
		Chunks: make([]transcript.ChunkRecord, 0, len(chunks)),
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.metrics.RecordChunkGenerated(chunk.Duration().Seconds())
		text, err := p.transcribeChunk(ctx, base, chunk)
		if err != nil {
			return nil, err
		}

		ft.Chunks = append(ft.Chunks, transcript.ChunkRecord{
			Chunk:    chunk.Index,
			StartSec: chunk.Start.Seconds(),
			EndSec:   chunk.End.Seconds(),
			Text:     text,
		})

		if !p.cfg.Pipeline.KeepChunks {
			if err := os.Remove(chunk.Path); err != nil {
				p.logger.Warn("Failed to remove chunk file",
					slog.String("path", chunk.Path),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return ft, nil
}

// transcribeChunk sends one chunk for recognition. Recognition failure is
// contained: it returns an empty string so the record still appears in the
// output. Cancellation of the run context is not a recognition failure and
// is returned as an error so the partial file is dropped, not recorded.
func (p *Pipeline) transcribeChunk(ctx context.Context, base string, chunk split.Chunk) (string, error) {
	p.metrics.RecordTranscriptionRequest()
	startTime := time.Now()

	req := &transcription.Request{
		AudioPath:  chunk.Path,
		SourceFile: base,
		ChunkID:    fmt.Sprintf("%s_chunk%03d", base, chunk.Index),
		ChunkIndex: chunk.Index,
		Language:   p.cfg.Transcription.Language,
		SampleRate: p.cfg.Audio.SampleRate,
		Duration:   chunk.Duration().Seconds(),
	}

	result, err := p.provider.Transcribe(ctx, req)
	elapsed := time.Since(startTime).Seconds()

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		p.logger.Warn("Chunk transcription failed, recording empty text",
			slog.String("chunk_id", req.ChunkID),
			slog.String("error", err.Error()),
		)
		p.metrics.RecordTranscriptionFailure(elapsed)
		p.addChunkFailed()
		return "", nil
	}

	p.metrics.RecordTranscriptionSuccess(elapsed)
	p.addChunkTranscribed()
	return result.Text, nil
}

// verifyStandardized checks that the standardizer produced the expected
// format before chunks are cut from it.
func (p *Pipeline) verifyStandardized(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read standardized file: %w", err)
	}

	info, err := audio.ReadInfo(data)
	if err != nil {
		return fmt.Errorf("standardized file is not a valid WAV: %w", err)
	}

	if info.SampleRate != p.cfg.Audio.SampleRate {
		return fmt.Errorf("standardized file has sample rate %d, expected %d",
			info.SampleRate, p.cfg.Audio.SampleRate)
	}

	if info.BitsPerSample != p.cfg.Audio.BitDepth {
		return fmt.Errorf("standardized file has bit depth %d, expected %d",
			info.BitsPerSample, p.cfg.Audio.BitDepth)
	}

	return nil
}

// GetStats returns current pipeline progress
func (p *Pipeline) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *Pipeline) addFileProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FilesProcessed++
}

func (p *Pipeline) addFileSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FilesSkipped++
}

func (p *Pipeline) addFileFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FilesFailed++
}

func (p *Pipeline) addChunkTranscribed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.ChunksTranscribed++
}

func (p *Pipeline) addChunkFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.ChunksFailed++
}
