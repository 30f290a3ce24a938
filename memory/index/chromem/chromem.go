// Package chromem implements the vector index on chromem-go, a pure Go
// embedded vector database. Suitable for local and single-node use.
package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/tap-top/recall/memory"
)

const collectionName = "memories"

// Index stores memory vectors in a single chromem collection.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex
}

// New creates an in-memory index.
func New() (*Index, error) {
	return fromDB(chromem.NewDB())
}

// NewPersistent creates an index backed by an on-disk chromem database.
func NewPersistent(path string) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}
	return fromDB(db)
}

func fromDB(db *chromem.DB) (*Index, error) {
	// Embeddings are always supplied by the caller, so no embedding func
	// is configured; the default cosine distance applies.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &Index{db: db, col: col}, nil
}

// Upsert stores or replaces the document for id. chromem has no atomic
// replace, so an existing document is deleted first.
func (ix *Index) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("replacing document %s: %w", id, err)
	}

	content := metadata["content"]
	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: vector,
		Metadata:  metadata,
	}
	if err := ix.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("adding document %s: %w", id, err)
	}
	return nil
}

// Delete removes the document for id. Deleting a missing document is not
// an error.
func (ix *Index) Delete(ctx context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return nil
}

// Search returns the k nearest documents by cosine similarity. chromem
// rejects result counts above the number of matching documents, which is
// unknowable up front when filters apply, so the query retries with
// smaller counts until it fits.
func (ix *Index) Search(ctx context.Context, vector []float32, k int, filters map[string]string) ([]memory.SearchHit, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if count := ix.col.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	var results []chromem.Result
	for ; k >= 1; k-- {
		var err error
		results, err = ix.col.QueryEmbedding(ctx, vector, k, filters, nil)
		if err == nil {
			break
		}
		if isTooFewDocsError(err) {
			if k == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]memory.SearchHit, 0, len(results))
	for _, res := range results {
		md := make(map[string]string, len(res.Metadata)+1)
		for key, val := range res.Metadata {
			md[key] = val
		}
		if md["content"] == "" {
			md["content"] = res.Content
		}
		hits = append(hits, memory.SearchHit{
			ID:       res.ID,
			Score:    res.Similarity,
			Metadata: md,
		})
	}
	return hits, nil
}

func isTooFewDocsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "nResults must be")
}
