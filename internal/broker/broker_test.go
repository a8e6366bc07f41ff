package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicholasBelschner/Click2Leadmain/internal/agent"
	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// recordingCompleter captures every prompt and can answer per call.
type recordingCompleter struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (c *recordingCompleter) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.fn != nil {
		return c.fn(prompt)
	}
	return "", &llm.UnavailableError{Reason: llm.ReasonTransport}
}

func newTestBroker(gw llm.Completer) *Broker {
	log := logger.NewNop()
	registry := agent.NewRegistry(gw, log)
	parser := agent.NewSpecParser(gw, log)
	suggester := agent.NewSuggester(gw, log)
	return New(registry, parser, suggester, gw, log)
}

func twoSpecs() []model.AgentSpecification {
	return []model.AgentSpecification{
		{Role: "Product Manager", Expertise: "Strategy"},
		{Role: "Developer", Expertise: "Backend"},
	}
}

func TestStart_WithSpecs(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	result, err := b.Start(context.Background(), "Q3 roadmap", "planning session", twoSpecs())

	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, result.Status)
	assert.Equal(t, 2, result.AgentsCreated)
	assert.NotEmpty(t, result.ConversationID)
	assert.NotEmpty(t, result.BrokerMessage)
	require.Len(t, result.Agents, 2)
	assert.Equal(t, StateActive, b.State())
}

func TestStart_NoSpecsRequestsAgents(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	result, err := b.Start(context.Background(), "Q3 roadmap", "planning", nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsAgents, result.Status)
	assert.NotEmpty(t, result.Suggestions, "suggestions are never empty")
	assert.Contains(t, result.Message, "Q3 roadmap")
	assert.Equal(t, "Q3 roadmap", result.Topic)
	assert.Equal(t, StateAwaitingAgents, b.State())
	assert.Nil(t, b.Conversation())
}

func TestConductExchange_BeforeStart(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	result, err := b.ConductExchange(context.Background())

	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, model.StatusError, result.Status)
	assert.NotEmpty(t, result.Message)
}

func TestConductExchange_RosterOrderAndPriorContext(t *testing.T) {
	gw := &recordingCompleter{}
	gw.fn = func(prompt string) (string, error) {
		if strings.Contains(prompt, "You are Product Manager") {
			return "pm-says-ship-it", nil
		}
		if strings.Contains(prompt, "You are Developer") {
			return "dev-agrees", nil
		}
		return "broker-text", nil
	}
	b := newTestBroker(gw)

	_, err := b.Start(context.Background(), "release", "", twoSpecs())
	require.NoError(t, err)

	result, err := b.ConductExchange(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.StatusExchangeCompleted, result.Status)
	assert.Equal(t, 1, result.ExchangeNumber)
	require.Len(t, result.Responses, 2)
	assert.Equal(t, "Product Manager", result.Responses[0].Role)
	assert.Equal(t, "Developer", result.Responses[1].Role)

	// The first speaker sees no same-round messages; the second sees the
	// first speaker's message.
	var pmPrompt, devPrompt string
	for _, p := range gw.prompts {
		if strings.Contains(p, "You are Product Manager") {
			pmPrompt = p
		}
		if strings.Contains(p, "You are Developer") {
			devPrompt = p
		}
	}
	require.NotEmpty(t, pmPrompt)
	require.NotEmpty(t, devPrompt)
	assert.NotContains(t, pmPrompt, "Recent messages")
	assert.Contains(t, devPrompt, "pm-says-ship-it")
}

func TestConductExchange_NumbersContiguous(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})
	b.SetMaxExchanges(3)

	_, err := b.Start(context.Background(), "topic", "", twoSpecs())
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		result, err := b.ConductExchange(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.StatusExchangeCompleted, result.Status)
		assert.Equal(t, want, result.ExchangeNumber)

		progress := result.Progress
		require.NotNil(t, progress)
		assert.Equal(t, want, progress.ExchangesCompleted)
		assert.Equal(t, 3, progress.MaxExchanges)
		assert.LessOrEqual(t, progress.ProgressPercentage, 100.0)
	}
}

func TestConductExchange_ConcludesAfterLimit(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})
	b.SetMaxExchanges(2)

	_, err := b.Start(context.Background(), "topic", "", twoSpecs())
	require.NoError(t, err)

	// The round that reaches the limit is delivered normally.
	for i := 0; i < 2; i++ {
		result, err := b.ConductExchange(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.StatusExchangeCompleted, result.Status)
	}

	// The next call forces the conclusion.
	result, err := b.ConductExchange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusConcluded, result.Status)
	assert.NotEmpty(t, result.Conclusion)
	assert.Equal(t, 2, result.TotalExchanges)
	assert.Equal(t, 2, result.AgentsParticipated)
	assert.Equal(t, StateConcluded, b.State())

	conv := b.Conversation()
	require.NotNil(t, conv)
	assert.Equal(t, model.ConversationCompleted, conv.Status)
	require.NotNil(t, conv.EndedAt)
	assert.Len(t, conv.History, 2)
}

func TestConductExchange_AfterConcluded(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})
	b.SetMaxExchanges(1)

	_, err := b.Start(context.Background(), "topic", "", twoSpecs())
	require.NoError(t, err)

	_, err = b.ConductExchange(context.Background())
	require.NoError(t, err)
	_, err = b.ConductExchange(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateConcluded, b.State())

	result, err := b.ConductExchange(context.Background())
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, model.StatusError, result.Status)
	assert.Contains(t, result.Message, "concluded")
}

func TestCreateFromUserSpecification(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	result, err := b.CreateFromUserSpecification(context.Background(),
		"Create 3 agents: Product Manager, Developer, and Designer", "launch", "")

	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, result.Status)
	assert.Equal(t, 3, result.AgentsCreated)
}

func TestSummary(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	empty := b.Summary()
	assert.True(t, empty.NoConversation)
	assert.Equal(t, model.StatusError, empty.Status)
	assert.Zero(t, empty.AgentsCount)

	_, err := b.Start(context.Background(), "topic", "", twoSpecs())
	require.NoError(t, err)
	_, err = b.ConductExchange(context.Background())
	require.NoError(t, err)

	s := b.Summary()
	assert.False(t, s.NoConversation)
	assert.Equal(t, model.StatusStarted, s.Status)
	assert.Equal(t, 2, s.AgentsCount)
	assert.Equal(t, 1, s.ExchangesCompleted)
	assert.Equal(t, DefaultMaxExchanges, s.MaxExchanges)
}

func TestReset(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})
	b.SetMaxExchanges(2)

	_, err := b.Start(context.Background(), "topic", "", twoSpecs())
	require.NoError(t, err)

	b.Reset()

	assert.Equal(t, StateUninitialized, b.State())
	assert.Nil(t, b.Conversation())
	assert.True(t, b.Summary().NoConversation)

	// A fresh conversation runs under the default limit again.
	result, err := b.Start(context.Background(), "next topic", "", twoSpecs())
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, result.Status)
	assert.Equal(t, DefaultMaxExchanges, b.Conversation().MaxExchanges)
}

func TestConversationIDsUnique(t *testing.T) {
	b := newTestBroker(&recordingCompleter{})

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		result, err := b.Start(context.Background(), fmt.Sprintf("topic %d", i), "", twoSpecs())
		require.NoError(t, err)
		assert.False(t, seen[result.ConversationID], "duplicate id %s", result.ConversationID)
		seen[result.ConversationID] = true
		b.Reset()
	}
}

func TestFallbackTextNeverEmpty(t *testing.T) {
	down := &recordingCompleter{fn: func(string) (string, error) {
		return "", errors.New("hard failure")
	}}
	b := newTestBroker(down)
	b.SetMaxExchanges(1)

	start, err := b.Start(context.Background(), "topic", "ctx", twoSpecs())
	require.NoError(t, err)
	assert.NotEmpty(t, start.BrokerMessage)

	exchange, err := b.ConductExchange(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, exchange.BrokerAnalysis)
	for _, r := range exchange.Responses {
		assert.NotEmpty(t, r.Message)
	}

	concluded, err := b.ConductExchange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Conversation concluded. Thank you all for your participation.", concluded.Conclusion)
}
