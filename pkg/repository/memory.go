package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Memory is an in-process Repository. Queries share a read lock and run
// concurrently with each other; mutations take the write lock, so DeleteAll
// is atomic with respect to in-flight queries.
type Memory struct {
	mu      sync.RWMutex
	records map[model.MemoryID]*memoryEntry
	nextSeq uint64
	dim     int
}

type memoryEntry struct {
	memory *model.Memory
	seq    uint64
}

// NewMemory creates an empty in-process repository
func NewMemory() *Memory {
	return &Memory{
		records: make(map[model.MemoryID]*memoryEntry),
	}
}

func (r *Memory) PutMemory(ctx context.Context, memory *model.Memory) error {
	if memory == nil || memory.ID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "memory id is empty")
	}
	if len(memory.Embedding) == 0 {
		return goerr.Wrap(model.ErrInvalidArgument, "memory embedding is empty", goerr.V("memory_id", memory.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The first vector fixes the store dimension. Mixing dimensions is a
	// configuration error, never silently truncated or padded.
	if r.dim == 0 {
		r.dim = len(memory.Embedding)
	} else if len(memory.Embedding) != r.dim {
		return goerr.Wrap(model.ErrInvalidConfig, "embedding dimension mismatch",
			goerr.V("want", r.dim), goerr.V("got", len(memory.Embedding)), goerr.V("memory_id", memory.ID))
	}

	stored := *memory
	if existing, ok := r.records[memory.ID]; ok {
		// Replace in place, keeping the original insertion order.
		existing.memory = &stored
		return nil
	}

	r.nextSeq++
	r.records[memory.ID] = &memoryEntry{memory: &stored, seq: r.nextSeq}
	return nil
}

func (r *Memory) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.records[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V("memory_id", id))
	}

	memory := *entry.memory
	return &memory, nil
}

func (r *Memory) Query(ctx context.Context, vector []float32, k int) ([]*model.RetrievalResult, error) {
	if k <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "k must be positive", goerr.V("k", k))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		result *model.RetrievalResult
		seq    uint64
	}

	candidates := make([]scored, 0, len(r.records))
	for _, entry := range r.records {
		candidates = append(candidates, scored{
			result: &model.RetrievalResult{
				RecordID: entry.memory.ID,
				Text:     entry.memory.Text,
				Metadata: entry.memory.Metadata,
				Distance: cosineDistance(vector, entry.memory.Embedding),
			},
			seq: entry.seq,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].result.Distance != candidates[j].result.Distance {
			return candidates[i].result.Distance < candidates[j].result.Distance
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]*model.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.result)
	}
	return results, nil
}

func (r *Memory) DeleteMemory(ctx context.Context, id model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, id)
	return nil
}

func (r *Memory) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make(map[model.MemoryID]*memoryEntry)
	r.dim = 0
	return nil
}

func (r *Memory) ListMemories(ctx context.Context) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*memoryEntry, 0, len(r.records))
	for _, entry := range r.records {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	memories := make([]*model.Memory, 0, len(entries))
	for _, entry := range entries {
		memory := *entry.memory
		memories = append(memories, &memory)
	}
	return memories, nil
}
