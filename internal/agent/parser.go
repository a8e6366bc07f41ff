package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/NicholasBelschner/Click2Leadmain/internal/llm"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

// SpecParser turns a free-text participant request into an ordered list of
// agent specifications. The primary path is a few-shot prompt to the
// gateway; malformed output or an unavailable gateway falls back to the
// deterministic rule-based extraction.
type SpecParser struct {
	gateway llm.Completer
	logger  *logger.Logger
}

// NewSpecParser creates a parser over the gateway.
func NewSpecParser(gateway llm.Completer, log *logger.Logger) *SpecParser {
	return &SpecParser{gateway: gateway, logger: log}
}

// Parse extracts agent specifications from the user's free-text request.
// It always returns at least one specification.
func (p *SpecParser) Parse(ctx context.Context, userSpec, topic, convContext string) []model.AgentSpecification {
	prompt := buildParsePrompt(userSpec, topic, convContext)

	content, err := p.gateway.Complete(ctx, prompt, 800, 0.7)
	if err != nil {
		metrics.RecordFallback("spec_parser")
		return p.RuleBasedExtract(userSpec, topic, convContext)
	}

	specs, err := decodeSpecArray(content)
	if err != nil {
		p.logger.Warn("malformed specification output, using rule-based extraction",
			zap.Error(err),
		)
		metrics.RecordFallback("spec_parser")
		return p.RuleBasedExtract(userSpec, topic, convContext)
	}
	return specs
}

// keywordGroup is one domain keyword family. Each group contributes at
// most one specification, in table order, regardless of how many of its
// keywords matched.
type keywordGroup struct {
	keywords  [][]string // outer OR of inner ANDs
	role      string
	expertise string
}

var keywordGroups = []keywordGroup{
	{[][]string{{"workout"}, {"fitness"}}, "Workout Specialist", "Fitness training and exercise program design"},
	{[][]string{{"nutrition"}, {"eating"}, {"drinking"}}, "Nutrition Specialist", "Nutrition planning and dietary optimization"},
	{[][]string{{"align"}, {"coordinate"}}, "Fitness Coordinator", "Integration of workouts and nutrition for optimal performance"},
	{[][]string{{"product", "manager"}}, "Product Manager", "Product strategy and project management"},
	{[][]string{{"developer"}, {"technical"}}, "Developer", "Technical implementation and coding"},
	{[][]string{{"designer"}, {"design"}}, "Designer", "User interface and user experience design"},
	{[][]string{{"marketing"}}, "Marketing Manager", "Marketing strategy and campaign management"},
	{[][]string{{"data", "analyst"}}, "Data Analyst", "Data analysis and insights"},
}

// RuleBasedExtract is the pure, deterministic fallback: no network calls,
// no randomness. Keyword-derived specifications are truncated (never
// padded) to the requested count; when no keywords match, generic team
// members fill the count.
func (p *SpecParser) RuleBasedExtract(userSpec, topic, convContext string) []model.AgentSpecification {
	lower := strings.ToLower(userSpec)

	count := 2
	for _, n := range []int{3, 4, 5} {
		if strings.Contains(lower, fmt.Sprintf("%d employees", n)) || strings.Contains(lower, fmt.Sprintf("%d agents", n)) {
			count = n
			break
		}
	}

	var specs []model.AgentSpecification
	for _, g := range keywordGroups {
		for _, conj := range g.keywords {
			all := true
			for _, kw := range conj {
				if !strings.Contains(lower, kw) {
					all = false
					break
				}
			}
			if all {
				specs = append(specs, model.AgentSpecification{Role: g.role, Expertise: g.expertise})
				break
			}
		}
	}

	if len(specs) > 0 {
		if len(specs) > count {
			specs = specs[:count]
		}
		return specs
	}

	generic := make([]model.AgentSpecification, count)
	for i := range generic {
		generic[i] = model.AgentSpecification{
			Role:      fmt.Sprintf("Team Member %d", i+1),
			Expertise: "General expertise",
		}
	}
	return generic
}

func buildParsePrompt(userSpec, topic, convContext string) string {
	return fmt.Sprintf(`Parse the following user specification to extract agent roles and expertise. Return a JSON array of agent specifications.

User specification: %q
Topic: %s
Context: %s

Examples:

User: "Create 3 agents: Product Manager, Developer, and Designer"
Output: [
    {"role": "Product Manager", "expertise": "Product strategy and project management"},
    {"role": "Developer", "expertise": "Technical implementation and coding"},
    {"role": "Designer", "expertise": "User interface and user experience design"}
]

User: "I want a Marketing Manager and Data Analyst"
Output: [
    {"role": "Marketing Manager", "expertise": "Marketing strategy and campaign management"},
    {"role": "Data Analyst", "expertise": "Data analysis and insights"}
]

User: "Just create 2 agents for strategy and technical"
Output: [
    {"role": "Strategy Specialist", "expertise": "Strategic planning and business analysis"},
    {"role": "Technical Specialist", "expertise": "Technical implementation and feasibility"}
]

User: "I would like 3 employees working for me. I would like one to be in charge of my workouts and then another to be in charge of my nutrition I am eating/drinking, and then another to make sure that the workouts align with my nutrients and my nutrients aligns with my workouts"
Output: [
    {"role": "Workout Specialist", "expertise": "Fitness training and exercise program design"},
    {"role": "Nutrition Specialist", "expertise": "Nutrition planning and dietary optimization"},
    {"role": "Fitness Coordinator", "expertise": "Integration of workouts and nutrition for optimal performance"}
]

Please parse the user specification and return only the JSON array.`, userSpec, topic, convContext)
}

// decodeSpecArray parses a JSON array of specifications from generated
// text, tolerating surrounding prose and code fences.
func decodeSpecArray(content string) ([]model.AgentSpecification, error) {
	raw := extractJSONArray(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in output")
	}

	var specs []model.AgentSpecification
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("decode specifications: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty specification array")
	}
	for _, s := range specs {
		if s.Role == "" {
			return nil, fmt.Errorf("specification missing role")
		}
	}
	return specs, nil
}

// extractJSONArray returns the outermost [...] slice of the text, or "".
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
