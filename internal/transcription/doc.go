// Package transcription implements the speech recognition backends. The
// default backend posts multipart form data with the chunk audio and
// metadata to a configured HTTP endpoint, with retry logic and exponential
// backoff; an alternative backend uses the OpenAI Whisper API. Both satisfy
// the Provider interface consumed by the pipeline.
package transcription
