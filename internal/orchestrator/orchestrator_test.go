package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicholasBelschner/Click2Leadmain/internal/agent"
	"github.com/NicholasBelschner/Click2Leadmain/internal/broker"
	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// stubCompleter answers every prompt with the same text, or fails.
type stubCompleter struct {
	response string
	fail     bool
}

func (s *stubCompleter) Complete(context.Context, string, int, float64) (string, error) {
	if s.fail {
		return "", &llm.UnavailableError{Reason: llm.ReasonTransport}
	}
	return s.response, nil
}

// memorySink records published events in order.
type memorySink struct {
	started   []string
	exchanges []int
	concluded []string
}

func (m *memorySink) ConversationStarted(_ context.Context, conversationID string) error {
	m.started = append(m.started, conversationID)
	return nil
}

func (m *memorySink) ExchangeCompleted(_ context.Context, _ string, exchange *model.Exchange) error {
	m.exchanges = append(m.exchanges, exchange.Number)
	return nil
}

func (m *memorySink) ConversationConcluded(_ context.Context, conversationID, _ string, _ int) error {
	m.concluded = append(m.concluded, conversationID)
	return nil
}

func newTestOrchestrator(gw llm.Completer, sink EventSink) *Orchestrator {
	log := logger.NewNop()
	registry := agent.NewRegistry(gw, log)
	parser := agent.NewSpecParser(gw, log)
	suggester := agent.NewSuggester(gw, log)
	b := broker.New(registry, parser, suggester, gw, log)
	return New(b, registry, suggester, sink, log)
}

func testSpecs() []model.AgentSpecification {
	return []model.AgentSpecification{
		{Role: "Product Manager", Expertise: "Strategy"},
		{Role: "Developer", Expertise: "Backend"},
	}
}

func TestConductFullConversation(t *testing.T) {
	sink := &memorySink{}
	o := newTestOrchestrator(&stubCompleter{fail: true}, sink)

	result := o.ConductFullConversation(context.Background(), "sprint planning", "", testSpecs(), 3)

	assert.Equal(t, model.StatusConcluded, result.Status)
	assert.Equal(t, 3, result.TotalExchanges)
	require.Len(t, result.Exchanges, 3)
	for i, ex := range result.Exchanges {
		assert.Equal(t, model.StatusExchangeCompleted, ex.Status)
		assert.Equal(t, i+1, ex.ExchangeNumber)
	}
	assert.NotEmpty(t, result.Conclusion)
	require.Len(t, result.Agents, 2)

	// Exactly one start and one conclusion event, one event per exchange.
	assert.Len(t, sink.started, 1)
	assert.Equal(t, []int{1, 2, 3}, sink.exchanges)
	assert.Len(t, sink.concluded, 1)
}

func TestConductFullConversation_NoSpecs(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)

	result := o.ConductFullConversation(context.Background(), "topic", "", nil, 2)

	assert.Equal(t, model.StatusNeedsAgents, result.Status)
	assert.NotEmpty(t, result.Message)
	assert.Zero(t, result.TotalExchanges)
}

func TestConductExchange_ErrorTagWithoutConversation(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)

	result := o.ConductExchange(context.Background())

	assert.Equal(t, model.StatusError, result.Status)
	assert.NotEmpty(t, result.Message)
}

func TestReset_AgentsSurvive(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)

	start := o.StartConversation(context.Background(), "topic", "", testSpecs())
	require.Equal(t, model.StatusStarted, start.Status)
	o.ConductExchange(context.Background())

	o.Reset()

	status := o.GetStatus()
	assert.True(t, status.NoConversation)
	assert.Len(t, o.GetAllAgents(), 2, "registry agents survive a reset")
}

func TestAgentManagementPassthrough(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)
	start := o.StartConversation(context.Background(), "topic", "", testSpecs())
	require.Equal(t, model.StatusStarted, start.Status)

	agents := o.GetAllAgents()
	require.Len(t, agents, 2)

	got, ok := o.GetAgent(agents[0].ID)
	require.True(t, ok)
	assert.Equal(t, agents[0].Role, got.Role)

	role := "Tech Lead"
	assert.True(t, o.UpdateAgent(agents[1].ID, model.UpdateAgentRequest{Role: &role}))
	updated, _ := o.GetAgent(agents[1].ID)
	assert.Equal(t, "Tech Lead", updated.Role)

	assert.True(t, o.DeleteAgent(agents[0].ID))
	assert.Len(t, o.GetAllAgents(), 1)
	assert.False(t, o.DeleteAgent(agents[0].ID))
}

func TestGetAgentSuggestions_NeverEmpty(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)

	suggestions := o.GetAgentSuggestions(context.Background(), "topic", "")

	assert.NotEmpty(t, suggestions)
}

func TestExportSnapshot(t *testing.T) {
	o := newTestOrchestrator(&stubCompleter{fail: true}, nil)
	start := o.StartConversation(context.Background(), "export test", "", testSpecs())
	require.Equal(t, model.StatusStarted, start.Status)
	o.ConductExchange(context.Background())

	var buf bytes.Buffer
	require.NoError(t, o.ExportSnapshot(&buf))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Len(t, snap.Agents, 2)
	assert.Len(t, snap.ConversationLog, 1)
	require.NotNil(t, snap.Conversation)
	assert.Equal(t, "export test", snap.Conversation.Topic)
	assert.False(t, snap.ExportedAt.IsZero())
}
