// Package chunk splits raw document text into overlapping fixed-size windows
// for embedding and retrieval. Boundaries fall on character offsets, not on
// token or sentence boundaries.
package chunk

import (
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/model"
)

const (
	// DefaultSize is the default chunk window in characters.
	DefaultSize = 500

	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 50
)

// Split returns a lazy, restartable sequence of chunks over text in document
// order. Each window is size characters and consecutive windows overlap by
// overlap characters; the final window may be shorter, never padded.
//
// Chunk IDs are derived from the filename and chunk index. When filename is
// empty (raw text uploads) a label is drawn once, so ranging over the same
// sequence twice yields identical chunks.
//
// Requires 0 < overlap < size.
func Split(text, filename string, size, overlap int) (iter.Seq[model.Chunk], error) {
	if size <= 0 || overlap <= 0 || overlap >= size {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "chunk overlap must satisfy 0 < overlap < size",
			goerr.V("size", size), goerr.V("overlap", overlap))
	}

	label := filename
	if label == "" {
		label = uuid.New().String()
	}

	runes := []rune(text)
	step := size - overlap

	return func(yield func(model.Chunk) bool) {
		for index, start := 0, 0; start < len(runes); index, start = index+1, start+step {
			end := min(start+size, len(runes))
			c := model.Chunk{
				ID:             fmt.Sprintf("%s:%d", label, index),
				Text:           string(runes[start:end]),
				SourceFilename: filename,
				Index:          index,
				CharStart:      start,
				CharEnd:        end,
				CreatedAt:      time.Now(),
			}
			if !yield(c) {
				return
			}
			// The window reached the end of the text. A further step would
			// only re-emit the tail of this window.
			if end == len(runes) {
				return
			}
		}
	}, nil
}
