package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// stubCompleter is a deterministic Completer for tests. When fn is set it
// decides the response per prompt; otherwise the fixed response/err pair is
// returned. All prompts are recorded.
type stubCompleter struct {
	response string
	err      error
	fn       func(prompt string) (string, error)
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.fn != nil {
		return s.fn(prompt)
	}
	return s.response, s.err
}

func failingCompleter() *stubCompleter {
	return &stubCompleter{err: &llm.UnavailableError{Reason: llm.ReasonTransport}}
}

func TestRegistryCreate_GatewayDown(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())

	a := r.Create(context.Background(), "Product Manager", "Product strategy", nil)

	assert.Equal(t, "agent_0", a.ID)
	assert.Equal(t, "Product Manager", a.Role)
	assert.Equal(t, model.AgentStatusActive, a.Status)
	assert.NotEmpty(t, a.Personality, "personality must fall back to a template")
	assert.Contains(t, a.Personality, "Product strategy")
}

func TestRegistryCreate_GatewayUp(t *testing.T) {
	stub := &stubCompleter{response: "A thoughtful strategist."}
	r := NewRegistry(stub, logger.NewNop())

	a := r.Create(context.Background(), "Developer", "Go services", nil)

	assert.Equal(t, "A thoughtful strategist.", a.Personality)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Developer")
	assert.Contains(t, stub.prompts[0], "Go services")
}

func TestRegistryCreateMultiple_PreservesOrder(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())

	specs := []model.AgentSpecification{
		{Role: "Product Manager", Expertise: "Strategy"},
		{Role: "Developer", Expertise: "Backend"},
		{Role: "Designer", Expertise: "UX"},
	}
	created := r.CreateMultiple(context.Background(), specs)

	require.Len(t, created, 3)
	assert.Equal(t, "Product Manager", created[0].Role)
	assert.Equal(t, "Developer", created[1].Role)
	assert.Equal(t, "Designer", created[2].Role)

	listed := r.List()
	require.Len(t, listed, 3)
	for i := range created {
		assert.Equal(t, created[i].ID, listed[i].ID)
	}
}

func TestRegistryCreateMultiple_EmptyFieldsDefaulted(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())

	created := r.CreateMultiple(context.Background(), []model.AgentSpecification{{}})

	require.Len(t, created, 1)
	assert.Equal(t, "Team Member", created[0].Role)
	assert.Equal(t, "General", created[0].Expertise)
}

func TestRegistryUpdate(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())
	a := r.Create(context.Background(), "Developer", "Backend", nil)

	role := "Senior Developer"
	require.True(t, r.Update(a.ID, model.UpdateAgentRequest{Role: &role}))

	got, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "Senior Developer", got.Role)
	assert.Equal(t, "Backend", got.Expertise)
	assert.Equal(t, model.AgentStatusUpdated, got.Status)

	assert.False(t, r.Update("agent_999", model.UpdateAgentRequest{Role: &role}))
}

func TestRegistryDelete_IDsNotReused(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())
	a := r.Create(context.Background(), "Developer", "Backend", nil)

	require.True(t, r.Delete(a.ID))
	assert.False(t, r.Delete(a.ID))

	b := r.Create(context.Background(), "Designer", "UX", nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGenerateResponse_UnknownAgent(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())

	msg := r.GenerateResponse(context.Background(), "agent_42", "roadmap", "", nil)

	assert.Equal(t, ResponseAgentNotFound, msg)
}

func TestGenerateResponse_FallbackOnUnavailable(t *testing.T) {
	r := NewRegistry(failingCompleter(), logger.NewNop())
	a := r.Create(context.Background(), "Developer", "Backend", nil)

	msg := r.GenerateResponse(context.Background(), a.ID, "API redesign", "", nil)

	assert.NotEmpty(t, msg)
	assert.NotEqual(t, ResponseAgentNotFound, msg)
	assert.Contains(t, msg, "API redesign")
}

func TestGenerateResponse_PromptIncludesLastThreePriors(t *testing.T) {
	stub := &stubCompleter{response: "my take"}
	r := NewRegistry(stub, logger.NewNop())
	a := r.Create(context.Background(), "Analyst", "Metrics", nil)
	stub.prompts = nil

	priors := []string{"first", "second", "third", "fourth"}
	msg := r.GenerateResponse(context.Background(), a.ID, "topic", "ctx", priors)

	assert.Equal(t, "my take", msg)
	require.Len(t, stub.prompts, 1)
	prompt := stub.prompts[0]
	assert.NotContains(t, prompt, "first")
	assert.Contains(t, prompt, "second")
	assert.Contains(t, prompt, "third")
	assert.Contains(t, prompt, "fourth")
}

func TestFallbackPersonality_RoleFamilies(t *testing.T) {
	p := fallbackPersonality("Senior Product Manager", "roadmaps")
	assert.Contains(t, p, "Product Manager")
	assert.Contains(t, p, "roadmaps")

	generic := fallbackPersonality("Archivist", "records")
	assert.Contains(t, generic, "Archivist")
	assert.Contains(t, generic, "records")
}
