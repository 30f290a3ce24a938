package memory

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/tap-top/recall/core"
)

// apply executes reconciliation operations against the record store and
// vector index. The record store is authoritative: index failures are
// logged and never undo a record write. A failed operation is dropped from
// the results without affecting the rest of the batch.
func (m *Manager) apply(ctx context.Context, ops []Operation, metadata map[string]string) []core.OperationResult {
	var results []core.OperationResult

	for _, op := range ops {
		switch op.Event {
		case core.EventAdd:
			if res, ok := m.applyAdd(ctx, op, metadata); ok {
				results = append(results, res)
			}
		case core.EventUpdate:
			if res, ok := m.applyUpdate(ctx, op); ok {
				results = append(results, res)
			}
		case core.EventDelete:
			if res, ok := m.applyDelete(ctx, op); ok {
				results = append(results, res)
			}
		case core.EventNone:
			results = append(results, core.OperationResult{
				Memory: op.Text,
				Event:  core.EventNone,
			})
		}
	}
	return results
}

func (m *Manager) applyAdd(ctx context.Context, op Operation, metadata map[string]string) (core.OperationResult, bool) {
	rec := &Record{
		ID:         uuid.New().String(),
		AppID:      metadata["app_id"],
		AgentID:    metadata["agent_id"],
		UserID:     metadata["user_id"],
		Content:    op.Text,
		MemoryType: "fact",
		Version:    1,
		Metadata:   metadata,
	}
	if err := m.records.Create(ctx, rec); err != nil {
		log.Printf("[MEMORY] failed to create record: %v", err)
		return core.OperationResult{}, false
	}
	m.upsertVector(ctx, rec)

	return core.OperationResult{
		ID:     rec.ID,
		Memory: rec.Content,
		Event:  core.EventAdd,
	}, true
}

func (m *Manager) applyUpdate(ctx context.Context, op Operation) (core.OperationResult, bool) {
	rec, err := m.records.Get(ctx, op.RealID)
	if err != nil {
		log.Printf("[MEMORY] update target %s not readable, skipping: %v", op.RealID, err)
		return core.OperationResult{}, false
	}
	previous := rec.Content
	if op.PreviousText != "" {
		previous = op.PreviousText
	}

	rec.Content = op.Text
	if err := m.records.Update(ctx, rec); err != nil {
		log.Printf("[MEMORY] failed to update record %s: %v", op.RealID, err)
		return core.OperationResult{}, false
	}
	m.upsertVector(ctx, rec)

	return core.OperationResult{
		ID:             rec.ID,
		Memory:         rec.Content,
		Event:          core.EventUpdate,
		PreviousMemory: previous,
	}, true
}

func (m *Manager) applyDelete(ctx context.Context, op Operation) (core.OperationResult, bool) {
	// Index first: a dangling vector for a deleted record would resurface
	// stale text in retrieval, while a missing vector only costs recall.
	if err := m.index.Delete(ctx, op.RealID); err != nil {
		log.Printf("[MEMORY] failed to delete vector for record %s, continuing: %v", op.RealID, err)
	}
	if err := m.records.Delete(ctx, op.RealID); err != nil {
		log.Printf("[MEMORY] failed to delete record %s: %v", op.RealID, err)
		return core.OperationResult{}, false
	}
	return core.OperationResult{
		ID:     op.RealID,
		Memory: op.Text,
		Event:  core.EventDelete,
	}, true
}

// upsertVector embeds a record and writes it to the index. Best-effort:
// failures are logged, the record store write stands.
func (m *Manager) upsertVector(ctx context.Context, rec *Record) {
	vec, err := m.embedText(ctx, rec.Content)
	if err != nil {
		log.Printf("[MEMORY] failed to embed record %s, index not updated: %v", rec.ID, err)
		return
	}
	if err := m.index.Upsert(ctx, rec.ID, vec, vectorMetadata(rec)); err != nil {
		log.Printf("[MEMORY] failed to index record %s, record store write stands: %v", rec.ID, err)
	}
}

// vectorMetadata builds the index document metadata for a record. The
// tenant fields double as search filters; "content" carries the memory
// text back out of search hits.
func vectorMetadata(rec *Record) map[string]string {
	md := map[string]string{
		"content":     rec.Content,
		"memory_type": rec.MemoryType,
	}
	if rec.AppID != "" {
		md["app_id"] = rec.AppID
	}
	if rec.AgentID != "" {
		md["agent_id"] = rec.AgentID
	}
	if rec.UserID != "" {
		md["user_id"] = rec.UserID
	}
	return md
}
