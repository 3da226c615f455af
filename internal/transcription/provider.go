package transcription

import (
	"context"
	"strings"
	"time"
)

// Request describes one chunk to be transcribed
type Request struct {
	AudioPath  string  `json:"audio_path"`  // Path to the chunk WAV file
	SourceFile string  `json:"source_file"` // Base name of the original recording
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Language   string  `json:"language"` // BCP 47 tag, e.g. "pt-BR"
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"` // seconds
	RequestID  string  `json:"request_id"`
}

// Result represents a recognition result for one chunk
type Result struct {
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence"`
	Language    string    `json:"language,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Provider is the interface speech recognition backends implement
type Provider interface {
	// Name identifies the backend for logging and stats
	Name() string

	// Transcribe sends one audio chunk for recognition. A nil error with
	// empty Result.Text means the service understood the request but
	// recognized no speech.
	Transcribe(ctx context.Context, req *Request) (*Result, error)
}

// baseLanguage reduces a BCP 47 tag to its primary subtag ("pt-BR" -> "pt")
func baseLanguage(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}
