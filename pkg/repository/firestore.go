package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/m-mizutani/burrow/pkg/model"
)

const (
	collectionMemories = "memories"
	distanceField      = "vector_distance"
)

// Firestore implements Repository using Cloud Firestore vector search.
// Nearest-neighbor queries use FindNearest with cosine distance, the same
// metric as the in-process store.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	if memory == nil || memory.ID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "memory id is empty")
	}
	if len(memory.Embedding) == 0 {
		return goerr.Wrap(model.ErrInvalidArgument, "memory embedding is empty", goerr.V("memory_id", memory.ID))
	}

	doc := r.client.Collection(collectionMemories).Doc(string(memory.ID))
	if _, err := doc.Set(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to put memory", goerr.V("memory_id", memory.ID))
	}
	return nil
}

func (r *Firestore) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	snap, err := r.client.Collection(collectionMemories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V("memory_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}

	var memory model.Memory
	if err := snap.DataTo(&memory); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("memory_id", id))
	}
	memory.ID = model.MemoryID(snap.Ref.ID)

	return &memory, nil
}

func (r *Firestore) Query(ctx context.Context, vector []float32, k int) ([]*model.RetrievalResult, error) {
	if k <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "k must be positive", goerr.V("k", k))
	}

	vq := r.client.Collection(collectionMemories).FindNearest(
		"embedding",
		firestore.Vector32(vector),
		k,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	var results []*model.RetrievalResult
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query memories")
		}

		var memory model.Memory
		if err := snap.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("memory_id", snap.Ref.ID))
		}

		distance, _ := snap.Data()[distanceField].(float64)
		results = append(results, &model.RetrievalResult{
			RecordID: model.MemoryID(snap.Ref.ID),
			Text:     memory.Text,
			Metadata: memory.Metadata,
			Distance: distance,
		})
	}

	return results, nil
}

func (r *Firestore) DeleteMemory(ctx context.Context, id model.MemoryID) error {
	// Firestore deletes succeed whether or not the document exists, which
	// gives the idempotent semantics directly.
	if _, err := r.client.Collection(collectionMemories).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memory_id", id))
	}
	return nil
}

// DeleteAll clears the memories collection. Firestore offers per-document
// atomicity only: a concurrent query may observe a partially cleared
// collection. The in-process store gives the stronger guarantee.
func (r *Firestore) DeleteAll(ctx context.Context) error {
	iter := r.client.Collection(collectionMemories).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to enumerate memories for deletion")
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return goerr.Wrap(err, "failed to schedule deletion", goerr.V("memory_id", snap.Ref.ID))
		}
	}
	bw.End()

	return nil
}

func (r *Firestore) ListMemories(ctx context.Context) ([]*model.Memory, error) {
	iter := r.client.Collection(collectionMemories).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var memories []*model.Memory
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memories")
		}

		var memory model.Memory
		if err := snap.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("memory_id", snap.Ref.ID))
		}
		memory.ID = model.MemoryID(snap.Ref.ID)
		memories = append(memories, &memory)
	}

	return memories, nil
}
