package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

type SourceType string

const (
	// SourceTypeDocument marks memories created from uploaded documents.
	SourceTypeDocument SourceType = "document"

	// SourceTypeConversation marks memories created from chat exchanges.
	SourceTypeConversation SourceType = "conversation"
)

// Validate checks if the source type is valid
func (s SourceType) Validate() error {
	switch s {
	case SourceTypeDocument, SourceTypeConversation:
		return nil
	default:
		return ErrInvalidArgument
	}
}

// Metadata describes where a memory came from. Extra carries additional
// string attributes that do not fit the core schema.
type Metadata struct {
	Filename  string            `firestore:"filename,omitempty" json:"filename,omitempty"`
	ChunkID   string            `firestore:"chunk_id,omitempty" json:"chunk_id,omitempty"`
	Type      SourceType        `firestore:"type" json:"type"`
	AgentID   AgentID           `firestore:"agent_id,omitempty" json:"agent_id,omitempty"`
	Timestamp time.Time         `firestore:"timestamp" json:"timestamp"`
	Extra     map[string]string `firestore:"extra,omitempty" json:"extra,omitempty"`
}

// Memory is a stored text fragment with its embedding vector
type Memory struct {
	ID        MemoryID           `firestore:"-"`
	Embedding firestore.Vector32 `firestore:"embedding"`
	Text      string             `firestore:"text"`
	Metadata  Metadata           `firestore:"metadata"`
	CreatedAt time.Time          `firestore:"created_at"`
}

// RetrievalResult is a single similarity-search hit. Distance is cosine
// distance: 0 means identical direction, 2 means opposite.
type RetrievalResult struct {
	RecordID MemoryID `json:"record_id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}
