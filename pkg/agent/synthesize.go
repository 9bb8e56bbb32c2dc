package agent

import (
	"fmt"
	"strings"

	"github.com/agentcore-dev/agentcore/pkg/message"
)

// recentToolResultLimit caps the fallback reduction to the most recent
// N tool results when no assistant-role content is available.
const recentToolResultLimit = 5

// synthesizeResponse picks a final response when the model loop ends
// without an explicit answer: the most recent assistant-role message's
// content if non-empty; otherwise a deterministic reduction over the
// most recent tool-role messages; otherwise a canned fallback naming
// the original prompt.
func synthesizeResponse(snapshot []message.Message, prompt string) string {
	for i := len(snapshot) - 1; i >= 0; i-- {
		m := snapshot[i]
		if m.Role == message.RoleAssistant && strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}

	var toolResults []message.Message
	for i := len(snapshot) - 1; i >= 0 && len(toolResults) < recentToolResultLimit; i-- {
		if snapshot[i].Role == message.RoleTool {
			toolResults = append(toolResults, snapshot[i])
		}
	}
	if len(toolResults) > 0 {
		var b strings.Builder
		b.WriteString("Based on tool results:\n")
		for i := len(toolResults) - 1; i >= 0; i-- {
			m := toolResults[i]
			b.WriteString(fmt.Sprintf("[%s] %s\n", m.Name, m.Content))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf("Unable to produce a final answer for: %s", prompt)
}
