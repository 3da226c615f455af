package transcription

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider transcribes chunks through the OpenAI Whisper API
type OpenAIProvider struct {
	client   *openai.Client
	language string // primary subtag, Whisper expects ISO 639-1
}

// NewOpenAIProvider creates a Whisper-backed transcription provider
func NewOpenAIProvider(apiKey, language string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	return &OpenAIProvider{
		client:   openai.NewClient(apiKey),
		language: baseLanguage(language),
	}, nil
}

// Name identifies this backend
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe sends one chunk file to the Whisper API
func (p *OpenAIProvider) Transcribe(ctx context.Context, req *Request) (*Result, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: req.AudioPath,
		Language: p.language,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	return &Result{
		Text:        resp.Text,
		Language:    p.language,
		ProcessedAt: time.Now(),
	}, nil
}
