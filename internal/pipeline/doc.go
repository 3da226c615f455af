// Package pipeline orchestrates the batch transcription run. Each input
// file flows through four sequential stages: AAC to WAV conversion,
// standardization, silence-aligned splitting and per-chunk transcription.
// Results are flushed once, as a single ordered JSON document.
package pipeline
