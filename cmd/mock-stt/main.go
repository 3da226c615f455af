package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// TranscriptionResponse mirrors the wire format the pipeline client expects
type TranscriptionResponse struct {
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	Language   string  `json:"language"`
	Duration   float64 `json:"duration"`
}

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form
	err := r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	chunkID := r.FormValue("chunk_id")
	chunkIndex := r.FormValue("chunk_index")
	sourceFile := r.FormValue("source_file")
	language := r.FormValue("language")
	sampleRate := r.FormValue("sample_rate")
	duration := r.FormValue("duration")
	requestID := r.FormValue("request_id")

	// Get audio file
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 TRANSCRIPTION REQUEST RECEIVED:")
	log.Printf("    Request ID: %s", requestID)
	log.Printf("    Chunk ID: %s (index %s)", chunkID, chunkIndex)
	log.Printf("    Source File: %s", sourceFile)
	log.Printf("    Duration: %s seconds", duration)
	log.Printf("    Sample Rate: %s Hz", sampleRate)
	log.Printf("    Language: %s", language)
	log.Printf("    Filename: %s", header.Filename)
	log.Printf("    Audio Size: %d bytes", len(audioData))

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := TranscriptionResponse{
		ChunkID:    chunkID,
		Text:       "Esta é uma transcrição de teste do trecho de áudio em português",
		Confidence: 0.95,
		Language:   "pt",
		Duration:   parseFloat64(duration),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ TRANSCRIPTION RESPONSE SENT: '%s'", response.Text)
	log.Println("---")
}

func parseFloat64(s string) float64 {
	var val float64
	fmt.Sscanf(s, "%f", &val)
	return val
}

func main() {
	port := flag.String("port", "9000", "Port to listen on")
	flag.Parse()

	http.HandleFunc("/transcribe", transcribeHandler)

	addr := ":" + *port
	log.Printf("🚀 Mock STT Server starting on port %s", addr)
	log.Printf("📡 Endpoint: http://localhost%s/transcribe", addr)
	log.Println("💡 Update your config to use: http://localhost:" + *port + "/transcribe")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
