package memory

import (
	"context"
	"log"
)

// candidate is an existing memory considered during reconciliation.
type candidate struct {
	id   string
	text string
}

// retrieveCandidates searches the vector index for memories related to any
// of the new facts. Facts are processed in order and results deduplicated
// by record ID, first occurrence wins, so the candidate list (and therefore
// the placeholder numbering) is deterministic for a given index state.
// A failed search for one fact is logged and skipped.
func (m *Manager) retrieveCandidates(ctx context.Context, facts []string, filters map[string]string) []candidate {
	var out []candidate
	seen := make(map[string]bool)

	for _, fact := range facts {
		vec, err := m.embedText(ctx, fact)
		if err != nil {
			log.Printf("[MEMORY] embedding failed for fact %q: %v", fact, err)
			continue
		}
		hits, err := m.index.Search(ctx, vec, m.config.TopK, filters)
		if err != nil {
			log.Printf("[MEMORY] candidate search failed for fact %q: %v", fact, err)
			continue
		}
		for _, hit := range hits {
			if seen[hit.ID] {
				continue
			}
			seen[hit.ID] = true
			out = append(out, candidate{id: hit.ID, text: hit.Metadata["content"]})
		}
	}

	log.Printf("[MEMORY] retrieved %d candidate memories for %d facts", len(out), len(facts))
	return out
}

func (m *Manager) embedText(ctx context.Context, text string) ([]float32, error) {
	cctx, cancel := context.WithTimeout(ctx, m.config.EmbedTimeout)
	defer cancel()
	return m.embedder.Embed(cctx, text)
}
