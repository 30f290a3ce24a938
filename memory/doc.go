// Package memory implements the memory reconciliation engine for
// conversational agents.
//
// The engine ingests conversation turns, extracts atomic facts with a
// language model, retrieves semantically related existing memories from a
// vector index, and asks the model to reconcile the new facts against them.
// Each decision (ADD, UPDATE, DELETE, NONE) is then applied to an
// authoritative record store and a derived vector index.
//
// Architecture:
//   - Manager: orchestrates the extract -> retrieve -> reconcile -> execute
//     pipeline for one add-memory request
//   - RecordStore: durable CRUD for memory records (sqlite/gorm for local,
//     any SQL backend in production)
//   - VectorIndex: similarity search over record embeddings (chromem-go
//     locally; the index is derived state and may lag the record store)
//   - Embedder: text-to-vector conversion (ONNX local, API-based in
//     production)
//   - LLM: plain text completion; all structure is encoded in-prompt
//
// Failure policy is fail-soft throughout: extraction and reconciliation
// failures degrade to empty results, vector index failures never roll back
// record store writes, and a bad operation never aborts the rest of its
// batch.
package memory
