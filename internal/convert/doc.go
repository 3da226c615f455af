// Package convert shells out to ffmpeg for AAC to WAV conversion and for
// standardizing audio to the 16 kHz / 16-bit PCM / mono format the
// transcription backends expect. Conversion is idempotent: files whose
// output already exists are skipped.
package convert
