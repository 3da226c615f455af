package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration
type Config struct {
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Audio         AudioConfig         `yaml:"audio"`
	Converter     ConverterConfig     `yaml:"converter"`
	Split         SplitConfig         `yaml:"split"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// PipelineConfig contains input/output locations for a batch run
type PipelineConfig struct {
	InputDir   string `yaml:"input_dir"`   // Directory scanned for .aac files
	WorkDir    string `yaml:"work_dir"`    // Directory for converted WAVs and chunk files
	OutputJSON string `yaml:"output_json"` // Path of the transcript document
	KeepChunks bool   `yaml:"keep_chunks"` // Keep per-chunk WAV files after transcription
}

// AudioConfig contains the standardized audio format parameters
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

// ConverterConfig contains external codec tool configuration
type ConverterConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// SplitConfig contains chunk splitting parameters
type SplitConfig struct {
	ChunkSeconds         float64 `yaml:"chunk_seconds"`          // Target chunk duration
	SilenceSearchSeconds float64 `yaml:"silence_search_seconds"` // Region before a boundary searched for silence
	SilenceThreshold     float64 `yaml:"silence_threshold"`      // Normalized energy below which a window is silent
	WindowMillis         int     `yaml:"window_millis"`          // Silence analysis window size
}

// TranscriptionConfig contains speech recognition backend configuration
type TranscriptionConfig struct {
	Provider   string `yaml:"provider"` // "http" or "openai"
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Language   string `yaml:"language"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxRetries int    `yaml:"max_retries"`
}

// HTTPConfig contains status server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file. Secrets may be supplied
// through the environment instead of the file: TRANSCRIPTION_API_KEY
// overrides transcription.api_key when set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills fields that are optional in the YAML file
func (c *Config) applyDefaults() {
	if c.Converter.FFmpegPath == "" {
		c.Converter.FFmpegPath = "ffmpeg"
	}
	if c.Converter.FFprobePath == "" {
		c.Converter.FFprobePath = "ffprobe"
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "http"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "pt-BR"
	}
	if c.Split.WindowMillis == 0 {
		c.Split.WindowMillis = 64
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// applyEnvOverrides overlays secrets from the environment
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("TRANSCRIPTION_API_KEY"); key != "" {
		c.Transcription.APIKey = key
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Split.Validate(); err != nil {
		return fmt.Errorf("split config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.InputDir == "" {
		return fmt.Errorf("input_dir cannot be empty")
	}

	if p.WorkDir == "" {
		return fmt.Errorf("work_dir cannot be empty")
	}

	if p.OutputJSON == "" {
		return fmt.Errorf("output_json cannot be empty")
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for transcription, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	return nil
}

// Validate validates split configuration
func (s *SplitConfig) Validate() error {
	if s.ChunkSeconds <= 0 {
		return fmt.Errorf("chunk_seconds must be positive, got %f", s.ChunkSeconds)
	}

	if s.SilenceSearchSeconds < 0 {
		return fmt.Errorf("silence_search_seconds cannot be negative, got %f", s.SilenceSearchSeconds)
	}

	if s.SilenceSearchSeconds >= s.ChunkSeconds {
		return fmt.Errorf("silence_search_seconds (%f) must be less than chunk_seconds (%f)",
			s.SilenceSearchSeconds, s.ChunkSeconds)
	}

	if s.SilenceThreshold < 0 || s.SilenceThreshold > 1 {
		return fmt.Errorf("silence_threshold must be between 0 and 1, got %f", s.SilenceThreshold)
	}

	if s.WindowMillis < 10 || s.WindowMillis > 1000 {
		return fmt.Errorf("window_millis must be between 10 and 1000, got %d", s.WindowMillis)
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	switch t.Provider {
	case "http":
		if t.Endpoint == "" {
			return fmt.Errorf("endpoint cannot be empty for the http provider")
		}
	case "openai":
		if t.APIKey == "" {
			return fmt.Errorf("api_key cannot be empty for the openai provider")
		}
	default:
		return fmt.Errorf("provider must be 'http' or 'openai', got '%s'", t.Provider)
	}

	if t.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetChunkDuration returns the target chunk duration as a time.Duration
func (s *SplitConfig) GetChunkDuration() time.Duration {
	return time.Duration(s.ChunkSeconds * float64(time.Second))
}

// GetSilenceSearchDuration returns the silence search region as a time.Duration
func (s *SplitConfig) GetSilenceSearchDuration() time.Duration {
	return time.Duration(s.SilenceSearchSeconds * float64(time.Second))
}

// GetWindowDuration returns the silence analysis window as a time.Duration
func (s *SplitConfig) GetWindowDuration() time.Duration {
	return time.Duration(s.WindowMillis) * time.Millisecond
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
