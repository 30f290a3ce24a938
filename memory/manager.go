package memory

import (
	"context"
	"fmt"
	"log"

	"github.com/tap-top/recall/core"
)

// Manager orchestrates the memory pipeline over pluggable backends.
// Construct with NewManager; the zero value is not usable.
type Manager struct {
	llm      LLM
	embedder Embedder
	index    VectorIndex
	records  RecordStore
	config   *Config
	pool     *WorkerPool
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkerPool attaches a pool for EnqueueAdd. The pool is owned by the
// caller, who is responsible for Shutdown.
func WithWorkerPool(p *WorkerPool) Option {
	return func(m *Manager) { m.pool = p }
}

// NewManager wires a Manager from its backends. cfg may be nil or
// partially populated; missing fields take defaults.
func NewManager(llm LLM, embedder Embedder, index VectorIndex, records RecordStore, cfg *Config, opts ...Option) (*Manager, error) {
	if llm == nil {
		return nil, fmt.Errorf("memory: llm is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}
	if index == nil {
		return nil, fmt.Errorf("memory: vector index is required")
	}
	if records == nil {
		return nil, fmt.Errorf("memory: record store is required")
	}
	m := &Manager{
		llm:      llm,
		embedder: embedder,
		index:    index,
		records:  records,
		config:   cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AddRequest carries one ingestion call.
type AddRequest struct {
	// Messages is the conversation slice to ingest.
	Messages []core.Message `json:"messages"`

	// Metadata is attached to every record created by this request.
	// The app_id, agent_id and user_id keys also populate the tenant
	// columns.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Filters scope candidate retrieval during reconciliation.
	Filters map[string]string `json:"filters,omitempty"`

	// Infer selects the reconciliation pipeline (true) or verbatim
	// storage of each turn (false).
	Infer bool `json:"infer"`
}

// Add ingests a conversation. With inference enabled it runs the full
// extract, retrieve, reconcile, execute pipeline; otherwise each turn is
// stored verbatim. An empty result with nil error means the model found
// nothing worth remembering.
func (m *Manager) Add(ctx context.Context, req AddRequest) ([]core.OperationResult, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	if !req.Infer {
		return m.ingestRaw(ctx, req.Messages, req.Metadata), nil
	}

	conversation := parseConversation(req.Messages)
	facts := m.extractFacts(ctx, conversation)
	if len(facts) == 0 {
		log.Printf("[MEMORY] no facts extracted, skipping reconciliation")
		return nil, nil
	}

	candidates := m.retrieveCandidates(ctx, facts, req.Filters)
	ops := m.reconcile(ctx, candidates, facts)
	return m.apply(ctx, ops, req.Metadata), nil
}

// EnqueueAdd runs Add on the worker pool and delivers the outcome to done,
// which may be nil. Without a pool, or when the pool cannot accept the
// task, the request runs inline instead.
func (m *Manager) EnqueueAdd(ctx context.Context, req AddRequest, done func([]core.OperationResult, error)) {
	run := func() {
		results, err := m.Add(ctx, req)
		if done != nil {
			done(results, err)
		}
	}
	if m.pool == nil {
		run()
		return
	}
	if err := m.pool.Submit(run); err != nil {
		log.Printf("[MEMORY] pool rejected add (%v), running inline", err)
		run()
	}
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	ID     string  `json:"id"`
	Memory string  `json:"memory"`
	Score  float32 `json:"score"`
}

// Search returns the k memories most similar to the query, scoped by the
// equality filters.
func (m *Manager) Search(ctx context.Context, query string, k int, filters map[string]string) ([]SearchResult, error) {
	if k <= 0 {
		k = m.config.TopK
	}
	vec, err := m.embedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := m.index.Search(ctx, vec, k, filters)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			ID:     hit.ID,
			Memory: hit.Metadata["content"],
			Score:  hit.Score,
		})
	}
	return results, nil
}

// Get returns a single memory record by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	return m.records.Get(ctx, id)
}

// List returns a page of memory records matching the filters, newest
// first. Page numbers start at 1; size defaults to 20 and caps at 1000.
func (m *Manager) List(ctx context.Context, filters map[string]string, page, size int) (core.PageResult[*Record], error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 1000 {
		size = 1000
	}
	records, total, err := m.records.List(ctx, filters, (page-1)*size, size)
	if err != nil {
		return core.PageResult[*Record]{}, fmt.Errorf("listing records: %w", err)
	}
	return core.NewPageResult(records, total, page, size), nil
}

// Delete removes a memory from both stores. The vector is removed first
// and best-effort; the record delete is authoritative.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.index.Delete(ctx, id); err != nil {
		log.Printf("[MEMORY] failed to delete vector for record %s, continuing: %v", id, err)
	}
	return m.records.Delete(ctx, id)
}
