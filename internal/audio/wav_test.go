package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// sine generates a test tone at the given frequency and duration
func sine(sampleRate int, frequency, duration float64) []int16 {
	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(16383.0 * math.Sin(2*math.Pi*frequency*t))
	}
	return samples
}

func TestEncode(t *testing.T) {
	sampleRate := 16000
	samples := sine(sampleRate, 440.0, 0.1)

	wavData, err := Encode(samples, sampleRate)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	expectedSize := headerSize + len(samples)*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	info, err := ReadInfo(wavData)
	if err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}

	if info.SampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	expectedDuration := float64(len(samples)) / float64(sampleRate)
	if math.Abs(info.Duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, info.Duration)
	}
}

func TestEncodeEmptySamples(t *testing.T) {
	if _, err := Encode(nil, 16000); err == nil {
		t.Error("Expected error for empty samples")
	}

	if _, err := Encode([]int16{1, 2, 3}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	originalSamples := []int16{100, -200, 300, -400, 500}
	sampleRate := 16000

	wavData, err := Encode(originalSamples, sampleRate)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, decodedRate, err := Decode(wavData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decodedRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedRate)
	}

	if len(decoded) != len(originalSamples) {
		t.Fatalf("Expected %d samples, got %d", len(originalSamples), len(decoded))
	}

	for i, s := range originalSamples {
		if decoded[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, decoded[i])
		}
	}
}

// buildWAVWithListChunk emulates ffmpeg output: a LIST chunk sits between
// fmt and data.
func buildWAVWithListChunk(t *testing.T, samples []int16, sampleRate int) []byte {
	t.Helper()

	plain, err := Encode(samples, sampleRate)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	listBody := []byte("INFOISFT\x0e\x00\x00\x00Lavf61.1.100\x00\x00")
	var buf bytes.Buffer
	buf.Write(plain[:36]) // RIFF header + fmt chunk
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(len(listBody)))
	buf.Write(listBody)
	buf.Write(plain[36:]) // data chunk

	// Fix outer RIFF size
	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func TestDecodeWithListChunk(t *testing.T) {
	samples := sine(16000, 220.0, 0.05)
	wavData := buildWAVWithListChunk(t, samples, 16000)

	decoded, rate, err := Decode(wavData)
	if err != nil {
		t.Fatalf("Decode failed on WAV with LIST chunk: %v", err)
	}

	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}

	if len(decoded) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(decoded))
	}
}

func TestDecodeInvalidData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", []byte("RIFF")},
		{"not riff", bytes.Repeat([]byte{0x42}, 64)},
		{"riff without wave", append([]byte("RIFF\x00\x00\x00\x00JUNK"), make([]byte, 52)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); err == nil {
				t.Error("Expected decode error but got none")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	sampleRate := 16000
	samples := sine(sampleRate, 440.0, 2.0)

	wavData, err := Encode(samples, sampleRate)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	duration, err := Duration(wavData)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}

	if math.Abs(duration-2.0) > 0.001 {
		t.Errorf("Expected duration 2.0s, got %.3f", duration)
	}
}
