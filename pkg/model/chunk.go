package model

import "time"

// Chunk is a bounded, possibly overlapping segment of a source document.
// Chunks are immutable once created; consecutive chunks of one document
// overlap by the configured overlap size.
type Chunk struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	SourceFilename string    `json:"source_filename,omitempty"`
	Index          int       `json:"chunk_index"`
	CharStart      int       `json:"char_start"`
	CharEnd        int       `json:"char_end"`
	CreatedAt      time.Time `json:"created_at"`
}
