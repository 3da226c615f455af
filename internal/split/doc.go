// Package split segments standardized WAV files into ordered chunks sized
// for the transcription API. Chunks target a fixed duration; cut points are
// moved onto nearby silent windows when the audio allows it.
package split
