// Package broker owns the conversation state machine: round sequencing,
// progress tracking and forced conclusion at the exchange limit.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/advisory"
	"github.com/NicholasBelschner/Click2Leadmain/internal/agent"
	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

// ErrInvalidState is the only hard error class surfaced to callers: an
// operation was invoked in a state that cannot satisfy it. Everything else
// recovers through deterministic fallbacks.
var ErrInvalidState = errors.New("invalid conversation state")

// State is the broker lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateAwaitingAgents
	StateActive
	StateConcluded
)

func (s State) String() string {
	switch s {
	case StateAwaitingAgents:
		return "awaiting_agents"
	case StateActive:
		return "active"
	case StateConcluded:
		return "concluded"
	default:
		return "uninitialized"
	}
}

// DefaultMaxExchanges bounds a conversation when the caller sets no limit.
const DefaultMaxExchanges = 6

// Broker drives rounds by calling the registry in roster order, invokes
// the gateway for round analysis, and forces conclusion at the round
// limit. One broker handles one conversation at a time; the protocol
// within a round is strictly sequential because each response depends on
// its same-round predecessors.
type Broker struct {
	registry  *agent.Registry
	parser    *agent.SpecParser
	suggester *agent.Suggester
	gateway   llm.Completer
	advisor   advisory.Advisor
	logger    *logger.Logger

	state        State
	conv         *model.Conversation
	maxExchanges int
	lastConvUnix int64
}

// New creates a broker in the uninitialized state.
func New(registry *agent.Registry, parser *agent.SpecParser, suggester *agent.Suggester, gateway llm.Completer, log *logger.Logger) *Broker {
	return &Broker{
		registry:     registry,
		parser:       parser,
		suggester:    suggester,
		gateway:      gateway,
		logger:       log,
		maxExchanges: DefaultMaxExchanges,
	}
}

// SetAdvisor attaches the optional learned-intent advisor. A nil advisor
// is valid and changes nothing but logging.
func (b *Broker) SetAdvisor(a advisory.Advisor) {
	b.advisor = a
}

// SetMaxExchanges overrides the exchange limit for the next conversation.
func (b *Broker) SetMaxExchanges(n int) {
	if n > 0 {
		b.maxExchanges = n
	}
}

// State returns the current lifecycle state.
func (b *Broker) State() State {
	return b.state
}

// Conversation returns the in-flight conversation, or nil.
func (b *Broker) Conversation() *model.Conversation {
	return b.conv
}

// Start begins a conversation. Without specifications it transitions to
// AwaitingAgents and returns role suggestions with a prompt for input; no
// conversation is created yet. With specifications it materializes the
// roster, snapshots it, and opens the conversation.
func (b *Broker) Start(ctx context.Context, topic, convContext string, specs []model.AgentSpecification) (*model.StartResult, error) {
	if len(specs) == 0 {
		return b.requestAgentSpecification(ctx, topic, convContext), nil
	}

	roster := b.registry.CreateMultiple(ctx, specs)

	now := time.Now()
	b.conv = &model.Conversation{
		ID:      b.nextConversationID(now),
		Topic:   topic,
		Context: convContext,
		Goals: []string{
			fmt.Sprintf("Discuss and analyze: %s", topic),
			"Ensure all agents contribute meaningfully",
			"Reach actionable conclusions",
			"Maintain productive dialogue",
		},
		Agents:       roster,
		MaxExchanges: b.maxExchanges,
		Status:       model.ConversationActive,
		StartedAt:    now,
	}
	b.state = StateActive

	opening := b.openingMessage(ctx, topic, convContext, roster)

	b.logger.Info("conversation started",
		zap.String("conversation_id", b.conv.ID),
		zap.String("topic", topic),
		zap.Int("agents", len(roster)),
	)

	return &model.StartResult{
		Status:         model.StatusStarted,
		ConversationID: b.conv.ID,
		AgentsCreated:  len(roster),
		BrokerMessage:  opening,
		Agents:         roster,
	}, nil
}

// CreateFromUserSpecification parses the free-text request into
// specifications and starts the conversation with them.
func (b *Broker) CreateFromUserSpecification(ctx context.Context, userSpec, topic, convContext string) (*model.StartResult, error) {
	if b.advisor != nil {
		if pred, err := b.advisor.PredictIntent(ctx, userSpec); err == nil {
			b.logger.Debug("predicted intent",
				zap.String("label", pred.Label),
				zap.Float64("confidence", pred.Confidence),
			)
		}
	}

	specs := b.parser.Parse(ctx, userSpec, topic, convContext)
	return b.Start(ctx, topic, convContext, specs)
}

// ConductExchange runs one full round: every roster agent contributes one
// message in order, each seeing the accumulated responses of its
// same-round predecessors, then the broker analyzes the round.
//
// The limit check runs at the start of the call: a conversation that has
// already used its budget is routed to the forced conclusion instead, so
// the round that reaches the limit is itself delivered normally and the
// following call concludes.
func (b *Broker) ConductExchange(ctx context.Context) (*model.ExchangeResult, error) {
	switch b.state {
	case StateActive:
	case StateConcluded:
		return &model.ExchangeResult{
			Status:  model.StatusError,
			Message: "Conversation already concluded. Reset to start a new one.",
		}, fmt.Errorf("%w: conversation concluded", ErrInvalidState)
	default:
		return &model.ExchangeResult{
			Status:  model.StatusError,
			Message: "No active agents. Please create agents first.",
		}, fmt.Errorf("%w: no active conversation", ErrInvalidState)
	}

	if b.conv.ExchangeCount >= b.conv.MaxExchanges {
		return b.forceConclude(ctx)
	}

	b.conv.ExchangeCount++

	responses := make([]model.AgentResponse, 0, len(b.conv.Agents))
	prior := make([]string, 0, len(b.conv.Agents))
	for _, a := range b.conv.Agents {
		msg := b.registry.GenerateResponse(ctx, a.ID, b.conv.Topic, b.conv.Context, prior)
		responses = append(responses, model.AgentResponse{
			AgentID:   a.ID,
			Role:      a.Role,
			Message:   msg,
			Timestamp: time.Now(),
		})
		prior = append(prior, msg)
	}

	analysis := b.analyzeExchange(ctx, responses)

	exchange := model.Exchange{
		Number:         b.conv.ExchangeCount,
		Responses:      responses,
		BrokerAnalysis: analysis,
		Timestamp:      time.Now(),
	}
	b.conv.History = append(b.conv.History, exchange)

	metrics.ExchangesTotal.Inc()
	b.logger.Info("exchange completed",
		zap.String("conversation_id", b.conv.ID),
		zap.Int("exchange", exchange.Number),
	)

	return &model.ExchangeResult{
		Status:         model.StatusExchangeCompleted,
		ExchangeNumber: exchange.Number,
		Responses:      responses,
		BrokerAnalysis: analysis,
		Progress:       b.progress(),
	}, nil
}

// forceConclude ends the conversation once the exchange budget is spent.
// Exactly one conclusion event is produced per conversation.
func (b *Broker) forceConclude(ctx context.Context) (*model.ExchangeResult, error) {
	conclusion := b.concludingSummary(ctx)

	now := time.Now()
	b.conv.Status = model.ConversationCompleted
	b.conv.Conclusion = conclusion
	b.conv.EndedAt = &now
	b.state = StateConcluded

	metrics.ConversationsConcludedTotal.Inc()
	b.logger.Info("conversation concluded",
		zap.String("conversation_id", b.conv.ID),
		zap.Int("total_exchanges", b.conv.ExchangeCount),
	)

	return &model.ExchangeResult{
		Status:             model.StatusConcluded,
		Conclusion:         conclusion,
		TotalExchanges:     b.conv.ExchangeCount,
		AgentsParticipated: len(b.conv.Agents),
	}, nil
}

// Summary is a pure read, valid in any state.
func (b *Broker) Summary() *model.SummaryResult {
	if b.conv == nil {
		return &model.SummaryResult{
			Status:         model.StatusError,
			NoConversation: true,
			MaxExchanges:   b.maxExchanges,
			AgentsCount:    0,
		}
	}

	status := model.StatusStarted
	if b.state == StateConcluded {
		status = model.StatusConcluded
	}

	return &model.SummaryResult{
		Status:             status,
		ConversationID:     b.conv.ID,
		Topic:              b.conv.Topic,
		ConversationState:  b.conv.Status,
		AgentsCount:        len(b.conv.Agents),
		ExchangesCompleted: b.conv.ExchangeCount,
		MaxExchanges:       b.conv.MaxExchanges,
		Agents:             b.conv.Agents,
	}
}

// Reset discards the conversation and round counter. Registry agents are
// untouched.
func (b *Broker) Reset() {
	b.conv = nil
	b.state = StateUninitialized
	b.maxExchanges = DefaultMaxExchanges
}

// requestAgentSpecification handles the no-specs path: suggest roles and
// prompt the caller to specify participants.
func (b *Broker) requestAgentSpecification(ctx context.Context, topic, convContext string) *model.StartResult {
	suggestions := b.suggester.Suggest(ctx, topic, convContext)

	var sb strings.Builder
	fmt.Fprintf(&sb, "I'd be happy to help you start a conversation about %q.\n\n", topic)
	sb.WriteString("To create the most effective discussion, I need to know what types of agents would be most valuable for this topic.\n\n")
	fmt.Fprintf(&sb, "**Topic**: %s\n**Context**: %s\n\n**Suggested Agent Roles** (based on your topic):\n", topic, convContext)
	for i, s := range suggestions {
		fmt.Fprintf(&sb, "\n%d. **%s**\n   - Expertise: %s\n   - Why needed: %s\n", i+1, s.Role, s.Expertise, s.Reasoning)
	}
	sb.WriteString("\n**Please specify how many agents you'd like and their roles:**\n\n")
	sb.WriteString("**Examples:**\n")
	sb.WriteString("- \"Create 3 agents: Product Manager, Developer, and Designer\"\n")
	sb.WriteString("- \"I want 2 agents: one for strategy and one for technical implementation\"\n")
	sb.WriteString("- \"Just create 4 agents for this discussion\"\n")

	b.state = StateAwaitingAgents

	return &model.StartResult{
		Status:      model.StatusNeedsAgents,
		Message:     sb.String(),
		Suggestions: suggestions,
		Topic:       topic,
		Context:     convContext,
	}
}

// openingMessage synthesizes the broker's opening statement naming all
// participants, with a templated fallback.
func (b *Broker) openingMessage(ctx context.Context, topic, convContext string, roster []model.Agent) string {
	var list strings.Builder
	roles := make([]string, 0, len(roster))
	for _, a := range roster {
		fmt.Fprintf(&list, "- %s (Expertise: %s)\n", a.Role, a.Expertise)
		roles = append(roles, a.Role)
	}

	prompt := fmt.Sprintf(`You are starting a new multi-agent conversation. Generate a brief, professional opening message.

**Topic**: %s
**Context**: %s
**Participants**:
%s
Your message should:
1. Welcome all participants
2. Briefly state the topic and objectives
3. Set a collaborative tone
4. Invite the first round of perspectives

Keep it concise and professional.`, topic, convContext, list.String())

	content, err := b.gateway.Complete(ctx, prompt, 300, 0.7)
	if err != nil {
		metrics.RecordFallback("opening_message")
		return fmt.Sprintf("Welcome everyone! We're here to discuss %s. %s I'm excited to hear perspectives from our team: %s. Let's begin with your initial thoughts on this topic.", topic, convContext, strings.Join(roles, ", "))
	}
	return strings.TrimSpace(content)
}

// analyzeExchange summarizes a round, with a deterministic fallback.
func (b *Broker) analyzeExchange(ctx context.Context, responses []model.AgentResponse) string {
	var transcript strings.Builder
	roles := make([]string, 0, len(responses))
	for _, r := range responses {
		fmt.Fprintf(&transcript, "%s: %s\n\n", r.Role, r.Message)
		roles = append(roles, r.Role)
	}

	prompt := fmt.Sprintf(`As a conversation broker, analyze this exchange between agents and provide insights:

**Exchange #%d**

%s
Please provide a brief analysis that includes:
1. Key points raised by each agent
2. Areas of agreement or disagreement
3. Progress toward conversation goals
4. Suggestions for next steps

Keep it concise and actionable.`, b.conv.ExchangeCount, transcript.String())

	content, err := b.gateway.Complete(ctx, prompt, 400, 0.7)
	if err != nil {
		metrics.RecordFallback("exchange_analysis")
		return fmt.Sprintf("Excellent exchange! %s have provided valuable perspectives. I see good collaboration and thoughtful insights. Let's continue building on these ideas in our next exchange.", strings.Join(roles, ", "))
	}
	return strings.TrimSpace(content)
}

// concludingSummary requests a comprehensive wrap-up of the conversation.
func (b *Broker) concludingSummary(ctx context.Context) string {
	var history strings.Builder
	for _, ex := range b.conv.History {
		fmt.Fprintf(&history, "Exchange %d analysis: %s\n", ex.Number, ex.BrokerAnalysis)
	}

	prompt := fmt.Sprintf(`The conversation has reached the maximum number of exchanges (%d).

Please provide a comprehensive conclusion that includes:
1. Summary of key points discussed
2. Main decisions or agreements reached
3. Action items or next steps
4. Overall assessment of the conversation's effectiveness

Topic: %s

%s`, b.conv.MaxExchanges, b.conv.Topic, history.String())

	content, err := b.gateway.Complete(ctx, prompt, 500, 0.7)
	if err != nil {
		metrics.RecordFallback("conclusion")
		return "Conversation concluded. Thank you all for your participation."
	}
	return strings.TrimSpace(content)
}

// progress is a uniform function of the exchange ratio; goals have no
// independently trackable completion.
func (b *Broker) progress() *model.Progress {
	pct := float64(b.conv.ExchangeCount) / float64(b.conv.MaxExchanges) * 100
	if pct > 100 {
		pct = 100
	}

	goals := make([]model.GoalProgress, len(b.conv.Goals))
	for i, g := range b.conv.Goals {
		goals[i] = model.GoalProgress{Goal: g, Estimate: pct}
	}

	return &model.Progress{
		ExchangesCompleted: b.conv.ExchangeCount,
		MaxExchanges:       b.conv.MaxExchanges,
		ProgressPercentage: pct,
		RemainingExchanges: b.conv.MaxExchanges - b.conv.ExchangeCount,
		Goals:              goals,
	}
}

// nextConversationID derives an id from creation time, unique within the
// process even when two conversations start in the same second.
func (b *Broker) nextConversationID(now time.Time) string {
	unix := now.Unix()
	if unix <= b.lastConvUnix {
		unix = b.lastConvUnix + 1
	}
	b.lastConvUnix = unix
	return fmt.Sprintf("conv_%d", unix)
}
