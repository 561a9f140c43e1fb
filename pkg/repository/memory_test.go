package repository_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
)

func newMemory(id string, vec []float32) *model.Memory {
	return &model.Memory{
		ID:        model.MemoryID(id),
		Embedding: vec,
		Text:      "text of " + id,
		Metadata: model.Metadata{
			Filename: "doc.txt",
			ChunkID:  id,
			Type:     model.SourceTypeDocument,
		},
		CreatedAt: time.Now(),
	}
}

func TestMemoryPutAndGet(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("doc.txt:0", []float32{1, 0, 0})))

	got, err := repo.GetMemory(ctx, "doc.txt:0")
	gt.NoError(t, err)
	gt.Equal(t, got.Text, "text of doc.txt:0")
	gt.Equal(t, got.Metadata.Type, model.SourceTypeDocument)
}

func TestMemoryGetNotFound(t *testing.T) {
	repo := repository.NewMemory()

	_, err := repo.GetMemory(t.Context(), "missing")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMemoryPutValidation(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	err := repo.PutMemory(ctx, &model.Memory{Embedding: []float32{1}})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))

	err = repo.PutMemory(ctx, &model.Memory{ID: "doc.txt:0"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestMemoryUpsertKeepsOrder(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("doc.txt:0", []float32{1, 0})))
	gt.NoError(t, repo.PutMemory(ctx, newMemory("doc.txt:1", []float32{0, 1})))

	updated := newMemory("doc.txt:0", []float32{1, 0})
	updated.Text = "revised"
	gt.NoError(t, repo.PutMemory(ctx, updated))

	memories, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, memories).Length(2)
	gt.Equal(t, memories[0].ID, model.MemoryID("doc.txt:0"))
	gt.Equal(t, memories[0].Text, "revised")
	gt.Equal(t, memories[1].ID, model.MemoryID("doc.txt:1"))
}

func TestMemoryDimensionMismatch(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("doc.txt:0", []float32{1, 0, 0})))

	err := repo.PutMemory(ctx, newMemory("doc.txt:1", []float32{1, 0}))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestMemoryQueryNearest(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("a", []float32{1, 0, 0})))
	gt.NoError(t, repo.PutMemory(ctx, newMemory("b", []float32{0, 1, 0})))
	gt.NoError(t, repo.PutMemory(ctx, newMemory("c", []float32{0.9, 0.1, 0})))

	results, err := repo.Query(ctx, []float32{1, 0, 0}, 2)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].RecordID, model.MemoryID("a"))
	gt.Equal(t, results[1].RecordID, model.MemoryID("c"))
	gt.True(t, results[0].Distance < 1e-6)
	gt.True(t, results[0].Distance <= results[1].Distance)
}

func TestMemoryQueryTieBreakByInsertion(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	// Same vector, so identical distance. Insertion order decides.
	gt.NoError(t, repo.PutMemory(ctx, newMemory("second", []float32{0, 1})))
	gt.NoError(t, repo.PutMemory(ctx, newMemory("first", []float32{0, 1})))

	results, err := repo.Query(ctx, []float32{0, 1}, 2)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].RecordID, model.MemoryID("second"))
	gt.Equal(t, results[1].RecordID, model.MemoryID("first"))
}

func TestMemoryQueryKLargerThanStore(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("a", []float32{1, 0})))

	results, err := repo.Query(ctx, []float32{1, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
}

func TestMemoryQueryInvalidK(t *testing.T) {
	repo := repository.NewMemory()

	for _, k := range []int{0, -1} {
		_, err := repo.Query(t.Context(), []float32{1, 0}, k)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrInvalidArgument))
	}
}

func TestMemoryQueryEmptyStore(t *testing.T) {
	repo := repository.NewMemory()

	results, err := repo.Query(t.Context(), []float32{1, 0}, 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("a", []float32{1, 0})))
	gt.NoError(t, repo.DeleteMemory(ctx, "a"))
	gt.NoError(t, repo.DeleteMemory(ctx, "a"))

	_, err := repo.GetMemory(ctx, "a")
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMemoryDeleteAllResetsDimension(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("a", []float32{1, 0, 0})))
	gt.NoError(t, repo.DeleteAll(ctx))

	memories, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, memories).Length(0)

	// A different dimension is accepted again after a full wipe.
	gt.NoError(t, repo.PutMemory(ctx, newMemory("b", []float32{1, 0})))
}

func TestMemoryListReturnsCopies(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	gt.NoError(t, repo.PutMemory(ctx, newMemory("a", []float32{1, 0})))

	memories, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	memories[0].Text = "mutated"

	again, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.Equal(t, again[0].Text, "text of a")
}

func TestMemoryConcurrentAccess(t *testing.T) {
	repo := repository.NewMemory()
	ctx := t.Context()

	done := make(chan error, 20)
	for i := 0; i < 10; i++ {
		go func(n int) {
			done <- repo.PutMemory(ctx, newMemory(fmt.Sprintf("doc.txt:%d", n), []float32{float32(n), 1}))
		}(i)
		go func() {
			_, err := repo.Query(ctx, []float32{1, 1}, 3)
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		gt.NoError(t, <-done)
	}

	memories, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, memories).Length(10)
}
