// Package ingest implements the upload pipeline: chunk the raw text, embed
// each chunk, and upsert the results into the memory store.
package ingest

import (
	"context"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/chunk"
	"github.com/m-mizutani/burrow/pkg/embedding"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// UseCase provides document ingestion operations
type UseCase struct {
	repo    repository.Repository
	gateway *embedding.Gateway
	storage adapter.Storage

	chunkSize int
	overlap   int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage enables archiving of raw uploads to object storage
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

// WithChunking overrides the chunk window and overlap sizes
func WithChunking(size, overlap int) Option {
	return func(uc *UseCase) {
		uc.chunkSize = size
		uc.overlap = overlap
	}
}

// New creates a new ingest UseCase instance
func New(repo repository.Repository, gateway *embedding.Gateway, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:      repo,
		gateway:   gateway,
		chunkSize: chunk.DefaultSize,
		overlap:   chunk.DefaultOverlap,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Result summarizes one ingestion
type Result struct {
	Filename     string `json:"filename,omitempty"`
	ChunksStored int    `json:"chunks_stored"`
	Characters   int    `json:"characters"`
}

// Ingest chunks text, embeds every chunk and stores the results. The text
// must already be extracted from its container format; filename may be empty
// for raw text uploads. Memory IDs reuse the deterministic chunk IDs, so
// re-ingesting the same file replaces its chunks in place.
func (u *UseCase) Ingest(ctx context.Context, text, filename string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "no text content to ingest", goerr.V("filename", filename))
	}

	u.archive(ctx, text, filename)

	return u.ingestText(ctx, text, filename)
}

// Reingest loads a previously archived upload by object key and runs it
// through the pipeline again, without re-archiving it.
func (u *UseCase) Reingest(ctx context.Context, key, filename string) (*Result, error) {
	if u.storage == nil {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "archive storage is not configured", goerr.V("key", key))
	}

	r, err := u.storage.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archived upload", goerr.V("key", key))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read archived upload", goerr.V("key", key))
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "archived upload has no text content", goerr.V("key", key))
	}

	return u.ingestText(ctx, string(data), filename)
}

// ingestText chunks, embeds and stores text without touching the archive
func (u *UseCase) ingestText(ctx context.Context, text, filename string) (*Result, error) {
	seq, err := chunk.Split(text, filename, u.chunkSize, u.overlap)
	if err != nil {
		return nil, err
	}
	chunks := slices.Collect(seq)

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	vectors, err := u.gateway.Embed(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed chunks", goerr.V("filename", filename))
	}

	now := time.Now()
	for i, c := range chunks {
		memory := &model.Memory{
			ID:        model.MemoryID(c.ID),
			Embedding: firestore.Vector32(vectors[i]),
			Text:      c.Text,
			Metadata: model.Metadata{
				Filename:  c.SourceFilename,
				ChunkID:   c.ID,
				Type:      model.SourceTypeDocument,
				Timestamp: now,
			},
			CreatedAt: now,
		}
		if err := u.repo.PutMemory(ctx, memory); err != nil {
			return nil, goerr.Wrap(err, "failed to store chunk", goerr.V("chunk_id", c.ID))
		}
	}

	logging.From(ctx).Info("ingested document",
		"filename", filename, "chunks", len(chunks), "characters", len(text))

	return &Result{
		Filename:     filename,
		ChunksStored: len(chunks),
		Characters:   len(text),
	}, nil
}

// archive saves the raw upload to object storage when configured.
// Best-effort: an archive failure never fails the ingestion.
func (u *UseCase) archive(ctx context.Context, text, filename string) {
	if u.storage == nil {
		return
	}

	key := "uploads/raw-text"
	if filename != "" {
		key = path.Join("uploads", path.Base(filename))
	}

	w, err := u.storage.Put(ctx, key)
	if err != nil {
		logging.From(ctx).Warn("failed to open archive object", "key", key, "error", err)
		return
	}
	if _, err := w.Write([]byte(text)); err != nil {
		logging.From(ctx).Warn("failed to archive upload", "key", key, "error", err)
		_ = w.Close()
		return
	}
	if err := w.Close(); err != nil {
		logging.From(ctx).Warn("failed to finalize archive upload", "key", key, "error", err)
	}
}
