package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	riffHeaderSize = 12
	fmtChunkSize   = 16
	headerSize     = 44 // RIFF header + fmt chunk + data chunk header
)

// Info describes the format of a WAV file without its sample data
type Info struct {
	SampleRate    int     `json:"sample_rate"`
	Channels      int     `json:"channels"`
	BitsPerSample int     `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      int     `json:"data_size_bytes"`
	NumSamples    int     `json:"num_samples"`
}

// Encode encodes PCM-16 mono samples into a WAV byte stream
func Encode(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(samples) * 2)

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(samples)*2))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(headerSize-8)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode decodes a WAV byte stream into PCM-16 samples and its sample rate.
// Only 16-bit mono PCM is accepted, which is what the standardizer produces.
func Decode(data []byte) ([]int16, int, error) {
	info, payload, err := parse(data)
	if err != nil {
		return nil, 0, err
	}

	if info.Channels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", info.Channels)
	}

	numSamples := len(payload) / 2
	if numSamples == 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}

	samples := make([]int16, numSamples)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("failed to read audio samples: %w", err)
	}

	return samples, info.SampleRate, nil
}

// ReadInfo extracts format metadata from a WAV byte stream
func ReadInfo(data []byte) (*Info, error) {
	info, _, err := parse(data)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Duration returns the playback duration of a WAV byte stream in seconds
func Duration(data []byte) (float64, error) {
	info, _, err := parse(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// parse walks the RIFF structure and locates the fmt and data sub-chunks.
// ffmpeg writes a LIST chunk between fmt and data, so the layout cannot be
// assumed to be the minimal 44-byte form.
func parse(data []byte) (*Info, []byte, error) {
	if len(data) < riffHeaderSize {
		return nil, nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", riffHeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return nil, nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var info *Info
	var payload []byte

	offset := riffHeaderSize
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+chunkSize > len(data) {
			// Tolerate a truncated final data chunk; some writers leave the
			// size stale when streaming.
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < fmtChunkSize {
				return nil, nil, fmt.Errorf("invalid fmt chunk size: %d", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
			}
			bitsPerSample := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bitsPerSample != 16 {
				return nil, nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", bitsPerSample)
			}
			info = &Info{
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				BitsPerSample: int(bitsPerSample),
			}
		case "data":
			payload = data[body : body+chunkSize]
		}

		// Sub-chunks are word-aligned
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	if info == nil {
		return nil, nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if payload == nil {
		return nil, nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	if info.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("invalid sample rate: %d", info.SampleRate)
	}

	bytesPerFrame := info.Channels * info.BitsPerSample / 8
	info.DataSize = len(payload)
	info.NumSamples = len(payload) / bytesPerFrame
	info.Duration = float64(info.NumSamples) / float64(info.SampleRate)

	return info, payload, nil
}
