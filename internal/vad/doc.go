// Package vad provides energy-based silence detection over fixed windows of
// PCM-16 audio. The splitter uses it to place chunk boundaries on quiet
// windows rather than mid-word.
package vad
