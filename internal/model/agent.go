// Package model defines data structures for the agent conversation platform.
package model

import (
	"time"
)

// AgentStatus values used by the registry. Callers may set arbitrary tags
// through UpdateAgentRequest; these are the ones the system writes itself.
const (
	AgentStatusActive  = "active"
	AgentStatusUpdated = "updated"
)

// Agent is a synthetic conversation participant owned by the registry.
type Agent struct {
	ID                  string    `json:"id"`
	Role                string    `json:"role"`
	Expertise           string    `json:"expertise"`
	Personality         string    `json:"personality"`
	ConversationContext []string  `json:"conversation_context"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// AgentSpecification is the transient output of the specification parser.
// It is consumed immediately to materialize agents and never persisted.
type AgentSpecification struct {
	Role              string   `json:"role"`
	Expertise         string   `json:"expertise"`
	PersonalityTraits []string `json:"personality_traits,omitempty"`
}

// UpdateAgentRequest is a partial update applied to an agent. Nil fields
// are left untouched.
type UpdateAgentRequest struct {
	Role        *string `json:"role,omitempty"`
	Expertise   *string `json:"expertise,omitempty"`
	Personality *string `json:"personality,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// RoleSuggestion is an advisory role proposal for a topic.
type RoleSuggestion struct {
	Role      string `json:"role"`
	Expertise string `json:"expertise"`
	Reasoning string `json:"reasoning"`
}
