package memory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by RecordStore implementations when the
	// requested record does not exist.
	ErrNotFound = errors.New("memory: record not found")

	// ErrStale is returned by RecordStore.Update when the record was
	// modified concurrently since it was read (version mismatch).
	ErrStale = errors.New("memory: record version is stale")

	// ErrNoMessages is returned by Manager.Add when the request carries
	// no conversation turns.
	ErrNoMessages = errors.New("memory: no messages to ingest")
)

// LLM is a text completion model. All structure the engine needs is encoded
// in the prompt and parsed from the raw response; no function-calling or
// structured-output mode is required.
type LLM interface {
	Complete(ctx context.Context, prompt string, temperature float64, model string) (string, error)
}

// Embedder converts text to vector embeddings of fixed dimensionality.
// Implementations: mock (testing), onnx (local SDK), cached (decorator).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// SearchHit is a single vector index search result.
type SearchHit struct {
	// ID is the record identifier the vector was stored under.
	ID string

	// Score is the cosine similarity to the query vector.
	Score float32

	// Metadata is the document metadata, including the "content" key
	// carrying the memory text.
	Metadata map[string]string
}

// VectorIndex is the derived similarity index over memory records.
// Documents are keyed by the record identifier. The index is best-effort
// consistent with the record store: writes here may fail without affecting
// record durability.
type VectorIndex interface {
	// Upsert stores or replaces the vector document for id.
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error

	// Delete removes the vector document for id.
	Delete(ctx context.Context, id string) error

	// Search returns up to k nearest documents by cosine similarity,
	// restricted to documents whose metadata matches every filter entry.
	// A nil or empty filter map searches the whole index.
	Search(ctx context.Context, vector []float32, k int, filters map[string]string) ([]SearchHit, error)
}

// Record is a stored memory. The record store is the authoritative home of
// a memory; the vector index holds a derived copy keyed by the same ID.
type Record struct {
	// ID is the stable identifier, shared with the vector index.
	ID string `json:"id"`

	// Tenant scoping fields.
	AppID   string `json:"app_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`

	// Content is the memory text.
	Content string `json:"content"`

	// MemoryType classifies the record ("fact" for pipeline output).
	MemoryType string `json:"memory_type"`

	// Version starts at 1 and is incremented on every update.
	Version int `json:"version"`

	// Metadata is a free-form blob attached at ingestion time.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordStore is the durable CRUD backend for memory records.
// Implementations: sqlite (gorm), fakes for tests.
type RecordStore interface {
	// Create persists a new record. The caller supplies the ID.
	Create(ctx context.Context, rec *Record) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Update overwrites content and metadata for the record matching
	// (ID, Version) and increments the stored version. Returns ErrStale
	// when the version no longer matches, ErrNotFound when the record is
	// gone. On success rec.Version reflects the new version.
	Update(ctx context.Context, rec *Record) error

	// Delete removes the record for id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns records matching the equality filters (app_id,
	// agent_id, user_id, memory_type), newest first, plus the total
	// matching count for pagination.
	List(ctx context.Context, filters map[string]string, offset, limit int) ([]*Record, int64, error)
}
