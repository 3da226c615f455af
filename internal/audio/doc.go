// Package audio implements WAV encoding and decoding for PCM-16 audio.
// The decoder walks RIFF sub-chunks instead of assuming the minimal 44-byte
// layout, because ffmpeg inserts a LIST metadata chunk before the data chunk.
package audio
