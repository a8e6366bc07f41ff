package orchestrator

import (
	"encoding/json"
	"io"
	"time"

	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
)

// Snapshot is the serialized audit artifact: all registry agents plus the
// collected conversation log. Export only; the core never reads it back.
type Snapshot struct {
	Agents          []model.Agent          `json:"agents"`
	ConversationLog []model.ExchangeResult `json:"conversation_log"`
	Conversation    *model.Conversation    `json:"current_conversation,omitempty"`
	ExportedAt      time.Time              `json:"exported_at"`
}

// ExportSnapshot writes the current snapshot as indented JSON.
func (o *Orchestrator) ExportSnapshot(w io.Writer) error {
	snap := Snapshot{
		Agents:          o.registry.List(),
		ConversationLog: o.conversationLog,
		Conversation:    o.broker.Conversation(),
		ExportedAt:      time.Now(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
