// Package agent provides the agent registry, specification parsing and
// role suggestions.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

// ResponseAgentNotFound is the soft-failure sentinel returned from
// GenerateResponse for unknown agent ids. Callers must handle it; the
// registry never raises for this case.
const ResponseAgentNotFound = "Agent not found."

// Registry stores agent records and generates personality text and
// per-turn responses through the gateway, with deterministic fallbacks.
// All mutation is serialized behind a single lock; reads return copies.
type Registry struct {
	mu      sync.RWMutex
	agents  map[string]*model.Agent
	order   []string
	counter int

	gateway llm.Completer
	logger  *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(gateway llm.Completer, log *logger.Logger) *Registry {
	return &Registry{
		agents:  make(map[string]*model.Agent),
		gateway: gateway,
		logger:  log,
	}
}

// Create allocates the next agent id and synthesizes a personality for the
// role. It never fails: when the gateway is unavailable the personality
// comes from the role-keyword template table.
func (r *Registry) Create(ctx context.Context, role, expertise string, traits []string) model.Agent {
	personality := r.generatePersonality(ctx, role, expertise, traits)

	r.mu.Lock()
	id := fmt.Sprintf("agent_%d", r.counter)
	r.counter++

	a := &model.Agent{
		ID:                  id,
		Role:                role,
		Expertise:           expertise,
		Personality:         personality,
		ConversationContext: []string{},
		Status:              model.AgentStatusActive,
		CreatedAt:           time.Now(),
	}
	r.agents[id] = a
	r.order = append(r.order, id)
	r.mu.Unlock()

	metrics.AgentsCreatedTotal.Inc()
	r.logger.Info("agent created",
		zap.String("agent_id", id),
		zap.String("role", role),
	)

	return *a
}

// CreateMultiple applies Create per specification, preserving input order.
// A gateway failure on one item never aborts the batch.
func (r *Registry) CreateMultiple(ctx context.Context, specs []model.AgentSpecification) []model.Agent {
	created := make([]model.Agent, 0, len(specs))
	for _, spec := range specs {
		role := spec.Role
		if role == "" {
			role = "Team Member"
		}
		expertise := spec.Expertise
		if expertise == "" {
			expertise = "General"
		}
		created = append(created, r.Create(ctx, role, expertise, spec.PersonalityTraits))
	}
	return created
}

// Get returns a copy of the agent, if present.
func (r *Registry) Get(id string) (model.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return model.Agent{}, false
	}
	return *a, true
}

// List returns copies of all agents in insertion order.
func (r *Registry) List() []model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Agent, 0, len(r.order))
	for _, id := range r.order {
		if a, ok := r.agents[id]; ok {
			out = append(out, *a)
		}
	}
	return out
}

// Update merges non-nil fields into the agent. Returns false for unknown ids.
func (r *Registry) Update(id string, req model.UpdateAgentRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return false
	}

	if req.Role != nil {
		a.Role = *req.Role
	}
	if req.Expertise != nil {
		a.Expertise = *req.Expertise
	}
	if req.Personality != nil {
		a.Personality = *req.Personality
	}
	if req.Status != nil {
		a.Status = *req.Status
	} else {
		a.Status = model.AgentStatusUpdated
	}
	return true
}

// Delete removes an agent. Returns false for unknown ids. Ids are never
// reused afterwards.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return false
	}
	delete(r.agents, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// GenerateResponse produces one agent's contribution for a round. The
// prompt embeds at most the last 3 same-round predecessor messages, never
// the whole conversation history. Unknown ids return the sentinel string.
func (r *Registry) GenerateResponse(ctx context.Context, agentID, topic, convContext string, priorMessages []string) string {
	a, ok := r.Get(agentID)
	if !ok {
		return ResponseAgentNotFound
	}

	prompt := buildResponsePrompt(&a, topic, convContext, priorMessages)

	content, err := r.gateway.Complete(ctx, prompt, 500, 0.7)
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			r.logger.Error("unexpected generation error", zap.Error(err))
		}
		metrics.RecordFallback("agent_response")
		return fallbackResponse(a.Role, a.Expertise, topic)
	}
	return strings.TrimSpace(content)
}

func (r *Registry) generatePersonality(ctx context.Context, role, expertise string, traits []string) string {
	traitsText := "Professional, collaborative, knowledgeable"
	if len(traits) > 0 {
		traitsText = strings.Join(traits, ", ")
	}

	prompt := fmt.Sprintf(`Create a professional personality for an AI agent with the following specifications:

Role: %s
Expertise: %s
Personality Traits: %s

Please create a detailed personality description that includes:
1. Professional background and experience
2. Communication style and approach
3. Key strengths and areas of expertise
4. How they typically approach problems and collaboration
5. Their role in team discussions and decision-making

Make it realistic, professional, and suitable for workplace conversations. Keep it concise but comprehensive.`, role, expertise, traitsText)

	content, err := r.gateway.Complete(ctx, prompt, 500, 0.7)
	if err != nil {
		metrics.RecordFallback("personality")
		return fallbackPersonality(role, expertise)
	}
	return strings.TrimSpace(content)
}

// buildResponsePrompt assembles the per-turn prompt. Only the trailing 3
// prior messages from the current round are included, so late speakers see
// their same-round predecessors without unbounded context growth.
func buildResponsePrompt(a *model.Agent, topic, convContext string, priorMessages []string) string {
	parts := []string{
		fmt.Sprintf("You are %s with expertise in %s.", a.Role, a.Expertise),
		fmt.Sprintf("Your personality: %s", a.Personality),
		fmt.Sprintf("Current topic: %s", topic),
		fmt.Sprintf("Context: %s", convContext),
	}

	if len(priorMessages) > 0 {
		recent := priorMessages
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		parts = append(parts, "Recent messages from other team members:")
		for i, msg := range recent {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, msg))
		}
	}

	parts = append(parts, "\nPlease provide your professional perspective on this topic, considering your role and expertise.")
	return strings.Join(parts, "\n")
}
