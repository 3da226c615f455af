package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner abstracts external command execution so conversion logic can
// be tested without ffmpeg installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// lastLine keeps error messages short; ffmpeg prints its banner before the
// actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// Converter converts audio files between formats using ffmpeg
type Converter struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
	runner      CommandRunner
}

// Option configures a Converter
type Option func(*Converter)

// WithRunner sets the command runner (used by tests)
func WithRunner(r CommandRunner) Option {
	return func(c *Converter) {
		c.runner = r
	}
}

// New creates a new Converter
func New(ffmpegPath, ffprobePath string, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
		runner:      execRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ConvertToWAV converts an AAC file to WAV format. Returns true when the
// conversion was skipped because the output already exists.
func (c *Converter) ConvertToWAV(ctx context.Context, inputPath, outputPath string) (bool, error) {
	if _, err := os.Stat(outputPath); err == nil {
		c.logger.Debug("Skipping conversion, output already exists",
			slog.String("output", outputPath),
		)
		return true, nil
	}

	if _, err := os.Stat(inputPath); err != nil {
		return false, fmt.Errorf("input file %s is not readable: %w", inputPath, err)
	}

	err := c.runner.Run(ctx, c.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-f", "wav",
		outputPath,
	)
	if err != nil {
		// Do not leave a partial WAV behind; it would defeat the
		// skip-if-exists check on the next run.
		os.Remove(outputPath)
		return false, fmt.Errorf("ffmpeg failed to convert %s: %w", inputPath, err)
	}

	return false, nil
}

// Standardize re-encodes a WAV file to the given sample rate, 16-bit PCM,
// mono.
func (c *Converter) Standardize(ctx context.Context, inputPath, outputPath string, sampleRate int) error {
	err := c.runner.Run(ctx, c.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		outputPath,
	)
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("ffmpeg failed to standardize %s: %w", inputPath, err)
	}

	return nil
}

// ProbeDuration retrieves the duration of an audio file in seconds using
// ffprobe.
func (c *Converter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	output, err := c.runner.Output(ctx, c.ffprobePath,
		"-i", path,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0",
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", strings.TrimSpace(string(output)), err)
	}

	return duration, nil
}
