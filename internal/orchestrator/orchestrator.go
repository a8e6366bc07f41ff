// Package orchestrator is the thin coordinating facade over the broker
// and registry. It defines the external call contract: every operation
// returns a tagged result callers branch on.
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/agent"
	"github.com/NicholasBelschner/Click2Leadmain/internal/broker"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// EventSink receives conversation audit events. Publishing is best-effort:
// sink failures are logged and never affect conversation outcomes.
type EventSink interface {
	ConversationStarted(ctx context.Context, conversationID string) error
	ExchangeCompleted(ctx context.Context, conversationID string, exchange *model.Exchange) error
	ConversationConcluded(ctx context.Context, conversationID, conclusion string, totalExchanges int) error
}

// Orchestrator exposes start/exchange/full-run/reset operations, delegating
// entirely to the broker and registry.
type Orchestrator struct {
	broker    *broker.Broker
	registry  *agent.Registry
	suggester *agent.Suggester
	events    EventSink
	logger    *logger.Logger

	conversationLog []model.ExchangeResult
}

// New creates an orchestrator. events may be nil.
func New(b *broker.Broker, registry *agent.Registry, suggester *agent.Suggester, events EventSink, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		broker:    b,
		registry:  registry,
		suggester: suggester,
		events:    events,
		logger:    log,
	}
}

// StartConversation starts a conversation with the given specifications,
// or requests them when none are supplied.
func (o *Orchestrator) StartConversation(ctx context.Context, topic, convContext string, specs []model.AgentSpecification) *model.StartResult {
	result, err := o.broker.Start(ctx, topic, convContext, specs)
	if err != nil {
		return &model.StartResult{Status: model.StatusError, Message: err.Error()}
	}

	if result.Status == model.StatusStarted {
		o.publishStarted(ctx, result.ConversationID)
	}
	return result
}

// CreateAgentsFromSpecification parses the free-text request and starts
// the conversation with the extracted roster.
func (o *Orchestrator) CreateAgentsFromSpecification(ctx context.Context, userSpec, topic, convContext string) *model.StartResult {
	result, err := o.broker.CreateFromUserSpecification(ctx, userSpec, topic, convContext)
	if err != nil {
		return &model.StartResult{Status: model.StatusError, Message: err.Error()}
	}

	if result.Status == model.StatusStarted {
		o.publishStarted(ctx, result.ConversationID)
	}
	return result
}

// ConductExchange runs one round of the active conversation.
func (o *Orchestrator) ConductExchange(ctx context.Context) *model.ExchangeResult {
	conv := o.broker.Conversation()

	result, err := o.broker.ConductExchange(ctx)
	if err != nil {
		// ErrInvalidState is already encoded in the result tag.
		return result
	}

	switch result.Status {
	case model.StatusExchangeCompleted:
		o.conversationLog = append(o.conversationLog, *result)
		if o.events != nil && conv != nil && len(conv.History) > 0 {
			last := conv.History[len(conv.History)-1]
			if err := o.events.ExchangeCompleted(ctx, conv.ID, &last); err != nil {
				o.logger.Warn("failed to publish exchange event", zap.Error(err))
			}
		}
	case model.StatusConcluded:
		if o.events != nil && conv != nil {
			if err := o.events.ConversationConcluded(ctx, conv.ID, result.Conclusion, result.TotalExchanges); err != nil {
				o.logger.Warn("failed to publish conclusion event", zap.Error(err))
			}
		}
	}
	return result
}

// ConductFullConversation drives a conversation from start to conclusion,
// collecting every round. The loop allows one extra call beyond the
// exchange limit because the limit check runs at the start of the next
// call; exactly one concluded result ends the run.
func (o *Orchestrator) ConductFullConversation(ctx context.Context, topic, convContext string, specs []model.AgentSpecification, maxExchanges int) *model.FullConversationResult {
	if maxExchanges <= 0 {
		maxExchanges = broker.DefaultMaxExchanges
	}
	o.broker.SetMaxExchanges(maxExchanges)

	start := o.StartConversation(ctx, topic, convContext, specs)
	if start.Status != model.StatusStarted {
		return &model.FullConversationResult{
			Status:  start.Status,
			Topic:   topic,
			Context: convContext,
			Message: start.Message,
		}
	}

	var exchanges []model.ExchangeResult
	var conclusion string
	for i := 0; i <= maxExchanges; i++ {
		result := o.ConductExchange(ctx)

		if result.Status == model.StatusConcluded {
			conclusion = result.Conclusion
			break
		}
		if result.Status != model.StatusExchangeCompleted {
			return &model.FullConversationResult{
				Status:  model.StatusError,
				Topic:   topic,
				Context: convContext,
				Message: result.Message,
			}
		}
		exchanges = append(exchanges, *result)
	}

	return &model.FullConversationResult{
		Status:         model.StatusConcluded,
		Topic:          topic,
		Context:        convContext,
		TotalExchanges: len(exchanges),
		Exchanges:      exchanges,
		Agents:         start.Agents,
		Conclusion:     conclusion,
	}
}

// GetStatus returns the conversation summary, with an explicit
// no-conversation marker when nothing is in flight.
func (o *Orchestrator) GetStatus() *model.SummaryResult {
	return o.broker.Summary()
}

// GetAllAgents lists every registry agent in insertion order.
func (o *Orchestrator) GetAllAgents() []model.Agent {
	return o.registry.List()
}

// GetAgent returns an agent by id.
func (o *Orchestrator) GetAgent(id string) (model.Agent, bool) {
	return o.registry.Get(id)
}

// UpdateAgent applies a partial update. Returns false for unknown ids.
func (o *Orchestrator) UpdateAgent(id string, req model.UpdateAgentRequest) bool {
	return o.registry.Update(id, req)
}

// DeleteAgent removes an agent. Returns false for unknown ids.
func (o *Orchestrator) DeleteAgent(id string) bool {
	return o.registry.Delete(id)
}

// GetAgentSuggestions proposes candidate roles for a topic.
func (o *Orchestrator) GetAgentSuggestions(ctx context.Context, topic, convContext string) []model.RoleSuggestion {
	return o.suggester.Suggest(ctx, topic, convContext)
}

// Reset discards the conversation and its log. Registry agents survive.
func (o *Orchestrator) Reset() {
	o.broker.Reset()
	o.conversationLog = nil
	o.logger.Info("conversation state reset")
}

func (o *Orchestrator) publishStarted(ctx context.Context, conversationID string) {
	if o.events == nil {
		return
	}
	if err := o.events.ConversationStarted(ctx, conversationID); err != nil {
		o.logger.Warn("failed to publish start event", zap.Error(err))
	}
}
