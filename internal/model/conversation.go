package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
)

// Conversation is a bounded, turn-based dialogue between agents.
// The agent roster is snapshotted at start; registry mutations after that
// do not change an in-flight conversation.
type Conversation struct {
	ID            string             `json:"conversation_id"`
	Topic         string             `json:"topic"`
	Context       string             `json:"context"`
	Goals         []string           `json:"goals"`
	Agents        []Agent            `json:"agents"`
	ExchangeCount int                `json:"exchange_count"`
	MaxExchanges  int                `json:"max_exchanges"`
	Status        ConversationStatus `json:"status"`
	History       []Exchange         `json:"exchanges"`
	Conclusion    string             `json:"conclusion,omitempty"`
	StartedAt     time.Time          `json:"start_time"`
	EndedAt       *time.Time         `json:"end_time,omitempty"`
}

// AgentResponse is one agent's contribution within an exchange.
type AgentResponse struct {
	AgentID   string    `json:"agent_id"`
	Role      string    `json:"agent_role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Exchange is one full round: every agent contributes exactly one message
// in roster order, followed by one broker analysis.
type Exchange struct {
	Number         int             `json:"exchange_number"`
	Responses      []AgentResponse `json:"agent_responses"`
	BrokerAnalysis string          `json:"broker_analysis"`
	Timestamp      time.Time       `json:"timestamp"`
}

// GoalProgress is a uniform per-goal completion estimate. Goals are not
// independently trackable; every goal advances with the exchange ratio.
type GoalProgress struct {
	Goal     string  `json:"goal"`
	Estimate float64 `json:"estimate"`
}

// Progress summarizes how far a conversation has advanced.
type Progress struct {
	ExchangesCompleted int            `json:"exchanges_completed"`
	MaxExchanges       int            `json:"max_exchanges"`
	ProgressPercentage float64        `json:"progress_percentage"`
	RemainingExchanges int            `json:"remaining_exchanges"`
	Goals              []GoalProgress `json:"goals,omitempty"`
}
