// Package advisory defines the optional learned-intent capability. The
// broker may consult an Advisor for logging and telemetry, but absence or
// failure never changes conversation outcomes.
package advisory

import (
	"context"
	"strings"
)

// Prediction is an intent label with a confidence estimate.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Hints are advisory response-tuning suggestions.
type Hints struct {
	Style     string `json:"style"`
	Verbosity string `json:"verbosity"`
}

// Advisor is the capability interface for the learned-intent subsystem.
type Advisor interface {
	// PredictIntent classifies a free-text prompt.
	PredictIntent(ctx context.Context, text string) (Prediction, error)

	// Optimize suggests response tuning for a prompt with a known intent.
	Optimize(ctx context.Context, text, label string) (Hints, error)
}

// Intent labels emitted by the rule-based advisor.
const (
	IntentAgentCreation          = "agent_creation"
	IntentConversationManagement = "conversation_management"
	IntentHelpRequest            = "help_request"
	IntentStatusCheck            = "status_check"
	IntentGeneralConversation    = "general_conversation"
)

// RuleBased is a deterministic keyword advisor, usable when no trained
// model is deployed.
type RuleBased struct{}

// NewRuleBased creates a rule-based advisor.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// PredictIntent implements Advisor with fixed keyword tables.
func (a *RuleBased) PredictIntent(_ context.Context, text string) (Prediction, error) {
	lower := strings.ToLower(text)

	label := IntentGeneralConversation
	switch {
	case containsAny(lower, "create", "agent", "team", "build"):
		label = IntentAgentCreation
	case containsAny(lower, "exchange", "next", "continue"):
		label = IntentConversationManagement
	case containsAny(lower, "help", "what can you do"):
		label = IntentHelpRequest
	case containsAny(lower, "status", "system", "health"):
		label = IntentStatusCheck
	}

	return Prediction{Label: label, Confidence: 0.8}, nil
}

// Optimize implements Advisor with a fixed style table per intent.
func (a *RuleBased) Optimize(_ context.Context, _ string, label string) (Hints, error) {
	switch label {
	case IntentAgentCreation:
		return Hints{Style: "structured", Verbosity: "detailed"}, nil
	case IntentConversationManagement:
		return Hints{Style: "direct", Verbosity: "concise"}, nil
	case IntentHelpRequest:
		return Hints{Style: "explanatory", Verbosity: "detailed"}, nil
	default:
		return Hints{Style: "balanced", Verbosity: "moderate"}, nil
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
