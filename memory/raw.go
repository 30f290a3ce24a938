package memory

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tap-top/recall/core"
)

// ingestRaw stores each non-system message verbatim as its own memory,
// bypassing the inference pipeline. Used when the caller sets Infer=false,
// for transcripts that should be kept as-is.
func (m *Manager) ingestRaw(ctx context.Context, messages []core.Message, metadata map[string]string) []core.OperationResult {
	var results []core.OperationResult

	for _, msg := range messages {
		if msg.Role == "" || msg.Content == "" {
			log.Printf("[MEMORY] skipping malformed message (role=%q)", msg.Role)
			continue
		}
		if msg.Role == core.RoleSystem {
			continue
		}

		md := make(map[string]string, len(metadata)+3)
		for k, v := range metadata {
			md[k] = v
		}
		if msg.Name != "" {
			md["actor_name"] = msg.Name
		}
		md["role"] = msg.Role
		md["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)

		rec := &Record{
			ID:         uuid.New().String(),
			AppID:      metadata["app_id"],
			AgentID:    metadata["agent_id"],
			UserID:     metadata["user_id"],
			Content:    msg.Content,
			MemoryType: "fact",
			Version:    1,
			Metadata:   md,
		}
		if err := m.records.Create(ctx, rec); err != nil {
			log.Printf("[MEMORY] failed to store raw message: %v", err)
			continue
		}
		m.upsertVector(ctx, rec)

		results = append(results, core.OperationResult{
			ID:      rec.ID,
			Memory:  msg.Content,
			Event:   core.EventAdd,
			ActorID: msg.Name,
			Role:    msg.Role,
		})
	}
	return results
}
