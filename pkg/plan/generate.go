package plan

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/agentcore-dev/agentcore/pkg/llm"
	"github.com/agentcore-dev/agentcore/pkg/message"
)

// fallbackSteps is the generic plan synthesized when both LLM
// generation and regex extraction fail, so create() always hands the
// caller something executable.
var fallbackSteps = []string{
	"Analyze the task and gather relevant context",
	"Implement the solution",
	"Test the implementation",
	"Finalize and document the result",
}

// numberedLine matches "Step N: ..." or "N. ..." / "N) ..." prefixes,
// the shapes a non-JSON-compliant model tends to fall back to.
var numberedLine = regexp.MustCompile(`(?i)^\s*(?:step\s*)?(\d+)[.):]\s*(.+)$`)

// GenerateSteps asks gen to break task into an ordered list of step
// descriptions. It tries, in order: a JSON array parsed from the
// model's response, a regex extraction of numbered lines from the raw
// text, and finally the generic fallbackSteps, so a plan always comes
// back with something executable.
func GenerateSteps(ctx context.Context, gen llm.Generator, task string) ([]string, error) {
	if gen == nil {
		return append([]string(nil), fallbackSteps...), nil
	}

	resp, err := gen.Complete(ctx, llm.Request{
		Messages: []message.Message{
			{
				Role: message.RoleUser,
				Content: "Break the following task into a JSON array of short, ordered step " +
					"descriptions (strings only, no numbering, no prose outside the array). " +
					"Task: " + task,
			},
		},
	})
	if err != nil || resp.Content == "" {
		return append([]string(nil), fallbackSteps...), nil
	}

	if steps, ok := parseJSONSteps(resp.Content); ok && len(steps) > 0 {
		return steps, nil
	}
	if steps := parseNumberedSteps(resp.Content); len(steps) > 0 {
		return steps, nil
	}
	return append([]string(nil), fallbackSteps...), nil
}

func parseJSONSteps(raw string) ([]string, bool) {
	raw = extractJSONArray(raw)
	if raw == "" {
		return nil, false
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

// extractJSONArray pulls the first top-level [...] substring out of a
// response that may wrap it in prose or a code fence.
func extractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func parseNumberedSteps(raw string) []string {
	var steps []string
	for _, line := range strings.Split(raw, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if desc := strings.TrimSpace(m[2]); desc != "" {
			steps = append(steps, desc)
		}
	}
	return steps
}
