package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChunkRecord pairs one chunk with its recognized text. Text is empty when
// recognition failed; the record is still present so chunk ordering in the
// output matches the audio.
type ChunkRecord struct {
	Chunk    int     `json:"chunk"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// FileTranscript holds the ordered chunk records for one source recording
type FileTranscript struct {
	Source string        `json:"source"` // Base name of the original file, without extension
	Text   string        `json:"text"`   // Non-empty chunk texts joined in order
	Chunks []ChunkRecord `json:"chunks"`
}

// JoinText returns the chunk texts concatenated in recording order,
// skipping chunks that failed recognition.
func (ft *FileTranscript) JoinText() string {
	parts := make([]string, 0, len(ft.Chunks))
	for _, c := range ft.Chunks {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Document is the ordered collection of transcripts written to the output
// JSON file. Source order and chunk order survive a save/load round trip.
type Document struct {
	files []*FileTranscript
	index map[string]*FileTranscript
}

// New creates an empty transcript document
func New() *Document {
	return &Document{
		index: make(map[string]*FileTranscript),
	}
}

// Load reads an existing transcript document from disk. A missing file is
// not an error: it yields an empty document so first runs and re-runs share
// one code path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read transcript file %s: %w", path, err)
	}

	var files []*FileTranscript
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file %s: %w", path, err)
	}

	doc := New()
	for _, ft := range files {
		doc.Append(ft)
	}

	return doc, nil
}

// Append adds a file transcript, replacing any previous entry for the same
// source while keeping its original position.
func (d *Document) Append(ft *FileTranscript) {
	if ft.Text == "" {
		ft.Text = ft.JoinText()
	}

	if existing, ok := d.index[ft.Source]; ok {
		*existing = *ft
		d.index[ft.Source] = existing
		return
	}

	d.files = append(d.files, ft)
	d.index[ft.Source] = ft
}

// Has reports whether a source file already has a transcript
func (d *Document) Has(source string) bool {
	_, ok := d.index[source]
	return ok
}

// Get returns the transcript for a source, or nil
func (d *Document) Get(source string) *FileTranscript {
	return d.index[source]
}

// Sources returns the source names in insertion order
func (d *Document) Sources() []string {
	out := make([]string, len(d.files))
	for i, ft := range d.files {
		out[i] = ft.Source
	}
	return out
}

// Len returns the number of file transcripts
func (d *Document) Len() int {
	return len(d.files)
}

// Save writes the document as indented JSON. The write is atomic: content
// goes to a temp file in the same directory which is then renamed over the
// target, so a failed run never leaves a truncated transcript behind.
func (d *Document) Save(path string) error {
	files := d.files
	if files == nil {
		files = []*FileTranscript{}
	}

	data, err := json.MarshalIndent(files, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcripts: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".transcript-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write transcripts: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
