// Package transcript maintains the ordered transcription results for a
// batch run and persists them as a single JSON document. Loading an
// existing document lets re-runs skip sources that are already transcribed.
package transcript
