package memory

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/tap-top/recall/core"
)

// parseConversation flattens the non-system turns into a newline-joined
// transcript for the fact extraction prompt.
func parseConversation(messages []core.Message) string {
	var lines []string
	for _, msg := range messages {
		if msg.Role == core.RoleSystem || msg.Content == "" {
			continue
		}
		lines = append(lines, msg.Content)
	}
	return strings.Join(lines, "\n")
}

// extractFacts asks the model for the atomic facts in a conversation.
// Any failure (transport, malformed JSON, missing key) degrades to an
// empty fact list so the caller can skip the rest of the pipeline.
func (m *Manager) extractFacts(ctx context.Context, conversation string) []string {
	prompt := buildFactExtractionPrompt(conversation)

	cctx, cancel := context.WithTimeout(ctx, m.config.LLMTimeout)
	defer cancel()

	raw, err := m.llm.Complete(cctx, prompt, m.config.Temperature, m.config.Model)
	if err != nil {
		log.Printf("[MEMORY] fact extraction call failed: %v", err)
		return nil
	}

	var parsed struct {
		Facts []string `json:"facts"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		log.Printf("[MEMORY] fact extraction returned malformed JSON: %v", err)
		return nil
	}
	return parsed.Facts
}

// stripCodeFences removes markdown code fence markers the model sometimes
// wraps around JSON despite instructions not to.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
