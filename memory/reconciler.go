package memory

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/tap-top/recall/core"
)

// Operation is a reconciliation decision resolved back to real record IDs.
type Operation struct {
	// Event is one of core.EventAdd, EventUpdate, EventDelete, EventNone.
	Event string

	// Text is the memory text the decision applies to.
	Text string

	// RealID is the target record ID for UPDATE and DELETE. Empty for
	// ADD (the executor assigns one) and NONE.
	RealID string

	// PreviousText is the pre-update text the model echoed back, set on
	// UPDATE when present.
	PreviousText string
}

// placeholderMapping pairs the dense placeholder IDs shown to the model
// with the real record IDs they stand for. Real IDs never appear in the
// prompt, so the model cannot hallucinate a plausible-looking record ID.
type placeholderMapping map[string]string

// remapCandidates replaces candidate IDs with their position index as a
// decimal string and returns the reverse mapping.
func remapCandidates(candidates []candidate) ([]promptMemory, placeholderMapping) {
	mapping := make(placeholderMapping, len(candidates))
	mapped := make([]promptMemory, 0, len(candidates))
	for i, c := range candidates {
		tempID := strconv.Itoa(i)
		mapping[tempID] = c.id
		mapped = append(mapped, promptMemory{ID: tempID, Text: c.text})
	}
	return mapped, mapping
}

// reconcileItem is one entry of the model's reconciliation response. The
// text may arrive under "memory" or "text", and the ID may be a JSON
// string or number; both variations are tolerated.
type reconcileItem struct {
	ID        json.RawMessage `json:"id"`
	Event     string          `json:"event"`
	Memory    *string         `json:"memory"`
	Text      *string         `json:"text"`
	OldMemory *string         `json:"old_memory"`
}

func (it *reconcileItem) text() string {
	if it.Memory != nil {
		return *it.Memory
	}
	if it.Text != nil {
		return *it.Text
	}
	return ""
}

func (it *reconcileItem) id() string {
	if len(it.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(it.ID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(it.ID, &n); err == nil {
		return n.String()
	}
	return ""
}

// reconcile asks the model to compare new facts against the candidate
// memories and translates its decisions into operations on real records.
// A failed call or unparseable response degrades to no operations.
func (m *Manager) reconcile(ctx context.Context, candidates []candidate, facts []string) []Operation {
	mapped, mapping := remapCandidates(candidates)

	prompt, err := buildUpdateMemoryPrompt(mapped, facts)
	if err != nil {
		log.Printf("[MEMORY] failed to build reconciliation prompt: %v", err)
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, m.config.LLMTimeout)
	defer cancel()

	raw, err := m.llm.Complete(cctx, prompt, m.config.Temperature, m.config.Model)
	if err != nil {
		log.Printf("[MEMORY] reconciliation call failed: %v", err)
		return nil
	}

	var parsed struct {
		Memory []reconcileItem `json:"memory"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		log.Printf("[MEMORY] reconciliation returned malformed JSON: %v", err)
		return nil
	}

	var ops []Operation
	for _, item := range parsed.Memory {
		op := Operation{Event: item.Event, Text: item.text()}
		switch item.Event {
		case core.EventAdd, core.EventNone:
			// ADD carries a model-invented placeholder ID; it is
			// discarded and the executor assigns a real one.
		case core.EventUpdate, core.EventDelete:
			realID, ok := mapping[item.id()]
			if !ok {
				log.Printf("[MEMORY] %s references unknown memory id %q, skipping", item.Event, item.id())
				continue
			}
			op.RealID = realID
			if item.Event == core.EventUpdate && item.OldMemory != nil {
				op.PreviousText = *item.OldMemory
			}
		default:
			log.Printf("[MEMORY] unknown event type %q, skipping", item.Event)
			continue
		}
		ops = append(ops, op)
	}
	return ops
}
