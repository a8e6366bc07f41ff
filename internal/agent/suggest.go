package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

// Suggester proposes candidate roles for a topic. Advisory only: it feeds
// the "no agents specified" path.
type Suggester struct {
	gateway llm.Completer
	logger  *logger.Logger
}

// NewSuggester creates a suggester over the gateway.
func NewSuggester(gateway llm.Completer, log *logger.Logger) *Suggester {
	return &Suggester{gateway: gateway, logger: log}
}

// defaultSuggestions is returned on any failure. Callers never see an
// empty list.
func defaultSuggestions() []model.RoleSuggestion {
	return []model.RoleSuggestion{
		{
			Role:      "Project Manager",
			Expertise: "Project planning and coordination",
			Reasoning: "To oversee the overall discussion and ensure objectives are met",
		},
		{
			Role:      "Technical Specialist",
			Expertise: "Technical implementation and feasibility",
			Reasoning: "To provide technical insights and address implementation concerns",
		},
	}
}

// Suggest returns 3-5 candidate roles for the topic, or the fixed default
// pair when the gateway fails or its output is malformed.
func (s *Suggester) Suggest(ctx context.Context, topic, convContext string) []model.RoleSuggestion {
	prompt := fmt.Sprintf(`Given the following topic and context, suggest 3-5 appropriate agent roles that would be valuable for this discussion:

Topic: %s
Context: %s

For each role, provide:
1. Role title
2. Key expertise areas
3. Why this role is important for this topic

Format your response as a JSON array of objects with 'role', 'expertise', and 'reasoning' fields.`, topic, convContext)

	content, err := s.gateway.Complete(ctx, prompt, 800, 0.7)
	if err != nil {
		metrics.RecordFallback("suggestions")
		return defaultSuggestions()
	}

	raw := extractJSONArray(content)
	if raw == "" {
		metrics.RecordFallback("suggestions")
		return defaultSuggestions()
	}

	var suggestions []model.RoleSuggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil || len(suggestions) == 0 {
		s.logger.Warn("malformed suggestion output, using defaults", zap.Error(err))
		metrics.RecordFallback("suggestions")
		return defaultSuggestions()
	}
	return suggestions
}
