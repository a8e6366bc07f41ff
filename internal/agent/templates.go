package agent

import (
	"fmt"
	"strings"
)

// Deterministic fallback text, used whenever the generation service is
// unavailable. These are pure functions of their inputs: no network, no
// randomness. They are the last line of defense, so they must always
// return non-empty text.

// personalityTemplates maps role families to personality text. Matching is
// a case-insensitive substring check against the agent's role, in order.
var personalityTemplates = []struct {
	family   string
	template string
}{
	{"product manager", "A seasoned Product Manager with expertise in %s. Known for strategic thinking, excellent communication skills, and ability to bridge technical and business requirements. Collaborative leader who focuses on user needs and market opportunities."},
	{"developer", "A skilled Developer specializing in %s. Technical problem-solver with attention to detail and passion for clean, efficient code. Values collaboration and enjoys explaining complex technical concepts in accessible terms."},
	{"designer", "A creative Designer with expertise in %s. User-centered approach with strong visual and interaction design skills. Collaborative team player who advocates for user experience and design consistency."},
	{"marketing", "A strategic Marketing Manager with expertise in %s. Data-driven decision maker with strong analytical skills and creative thinking. Excellent communicator who understands both customer needs and business objectives."},
	{"analyst", "A detail-oriented Data Analyst specializing in %s. Strong analytical and statistical skills with ability to translate complex data into actionable insights. Collaborative team member who helps drive data-informed decisions."},
	{"project manager", "An experienced Project Manager with expertise in %s. Organized and methodical approach with strong leadership and communication skills. Focuses on delivering results while maintaining team collaboration and stakeholder satisfaction."},
}

// fallbackPersonality returns templated personality text for a role.
func fallbackPersonality(role, expertise string) string {
	roleLower := strings.ToLower(role)
	for _, t := range personalityTemplates {
		if strings.Contains(roleLower, t.family) {
			return fmt.Sprintf(t.template, expertise)
		}
	}
	return fmt.Sprintf("A professional %s with expertise in %s. Collaborative, knowledgeable, and focused on achieving results through effective communication and problem-solving. Brings valuable perspective to team discussions and decision-making processes.", role, expertise)
}

// fallbackResponse returns a templated per-turn response, keyed by coarse
// role category.
func fallbackResponse(role, expertise, topic string) string {
	roleLower := strings.ToLower(role)

	switch {
	case strings.Contains(roleLower, "product") || strings.Contains(roleLower, "manager"):
		return fmt.Sprintf("As a %s, I believe we should approach this %s systematically. From my expertise in %s, I see several key considerations we need to address. We should focus on user needs, market opportunities, and ensuring our solution aligns with business objectives. What are your thoughts on the technical feasibility and timeline?", role, topic, expertise)

	case strings.Contains(roleLower, "developer") || strings.Contains(roleLower, "technical") || strings.Contains(roleLower, "engineer"):
		return fmt.Sprintf("From a technical perspective on %s, I can see both opportunities and challenges. My expertise in %s suggests we need to consider implementation complexity, scalability, and maintainability. I'd recommend we start with a proof of concept to validate our approach. How does this align with your strategic vision?", topic, expertise)

	case strings.Contains(roleLower, "designer") || strings.Contains(roleLower, "ux") || strings.Contains(roleLower, "creative"):
		return fmt.Sprintf("As a %s, I'm excited about the %s opportunity. My expertise in %s tells me we need to prioritize user experience and design consistency. I suggest we conduct user research to understand pain points and create intuitive solutions. How can we balance user needs with technical constraints?", role, topic, expertise)

	case strings.Contains(roleLower, "marketing") || strings.Contains(roleLower, "analyst") || strings.Contains(roleLower, "data"):
		return fmt.Sprintf("Looking at %s through the lens of %s, I see several data points we should consider. We need to understand our target audience, measure performance metrics, and optimize based on results. I recommend we establish clear KPIs and track progress systematically. What are your thoughts on the strategic direction?", topic, expertise)

	default:
		return fmt.Sprintf("As a %s with expertise in %s, I have some valuable insights on %s. I believe we should consider multiple perspectives and ensure our approach is well-rounded. Collaboration will be key to success here. What aspects should we prioritize first?", role, expertise, topic)
	}
}
