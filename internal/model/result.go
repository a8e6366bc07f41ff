package model

// ResultStatus is the closed set of operation result tags. Callers branch
// on this tag, never on error types.
type ResultStatus string

const (
	StatusStarted           ResultStatus = "started"
	StatusNeedsAgents       ResultStatus = "needs_agents"
	StatusExchangeCompleted ResultStatus = "exchange_completed"
	StatusConcluded         ResultStatus = "concluded"
	StatusError             ResultStatus = "error"
)

// StartResult is the outcome of starting a conversation.
//
// Status "started" populates ConversationID, AgentsCreated, BrokerMessage
// and Agents. Status "needs_agents" populates Message, Suggestions, Topic
// and Context; no conversation exists yet.
type StartResult struct {
	Status         ResultStatus     `json:"status"`
	ConversationID string           `json:"conversation_id,omitempty"`
	AgentsCreated  int              `json:"agents_created,omitempty"`
	BrokerMessage  string           `json:"broker_message,omitempty"`
	Agents         []Agent          `json:"agents,omitempty"`
	Message        string           `json:"message,omitempty"`
	Suggestions    []RoleSuggestion `json:"suggestions,omitempty"`
	Topic          string           `json:"topic,omitempty"`
	Context        string           `json:"context,omitempty"`
}

// ExchangeResult is the outcome of conducting one exchange. A call that
// lands on a concluded conversation carries Status "concluded" together
// with the conclusion fields instead of a new exchange.
type ExchangeResult struct {
	Status             ResultStatus    `json:"status"`
	ExchangeNumber     int             `json:"exchange_number,omitempty"`
	Responses          []AgentResponse `json:"agent_responses,omitempty"`
	BrokerAnalysis     string          `json:"broker_analysis,omitempty"`
	Progress           *Progress       `json:"progress,omitempty"`
	Conclusion         string          `json:"conclusion,omitempty"`
	TotalExchanges     int             `json:"total_exchanges,omitempty"`
	AgentsParticipated int             `json:"agents_participated,omitempty"`
	Message            string          `json:"message,omitempty"`
}

// SummaryResult is a read-only snapshot of broker state, valid in any
// state. NoConversation is the explicit marker for the empty state.
type SummaryResult struct {
	Status             ResultStatus       `json:"status"`
	NoConversation     bool               `json:"no_conversation,omitempty"`
	ConversationID     string             `json:"conversation_id,omitempty"`
	Topic              string             `json:"topic,omitempty"`
	ConversationState  ConversationStatus `json:"conversation_status,omitempty"`
	AgentsCount        int                `json:"agents_count"`
	ExchangesCompleted int                `json:"exchanges_completed"`
	MaxExchanges       int                `json:"max_exchanges"`
	Agents             []Agent            `json:"agents,omitempty"`
}

// FullConversationResult aggregates a start-to-conclusion run.
type FullConversationResult struct {
	Status         ResultStatus     `json:"status"`
	Topic          string           `json:"topic"`
	Context        string           `json:"context,omitempty"`
	TotalExchanges int              `json:"total_exchanges"`
	Exchanges      []ExchangeResult `json:"exchanges"`
	Agents         []Agent          `json:"agents"`
	Conclusion     string           `json:"conclusion,omitempty"`
	Message        string           `json:"message,omitempty"`
}
