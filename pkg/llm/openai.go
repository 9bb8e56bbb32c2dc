package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/httpclient"
	"github.com/agentcore-dev/agentcore/pkg/message"
)

func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// endpointSuffixes are the chat-completions path variants an
// OpenAI-compatible server might expose, tried in order until one
// responds with HTTP 200. Carried over from
// fixed_lm_studio_client.py's self.endpoints list, which exists
// because local inference servers (LM Studio, ollama, vLLM, etc.)
// disagree on whether /v1 is required.
var endpointSuffixes = []string{
	"/v1/chat/completions",
	"/chat/completions",
	"/api/chat/completions",
	"/v1/completions",
	"/completions",
}

// OpenAICompatibleClient talks to any server implementing (a dialect
// of) the OpenAI chat-completions API: OpenAI itself, LM Studio,
// ollama's compatibility layer, vLLM, etc.
type OpenAICompatibleClient struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *httpclient.Client
	log         *slog.Logger
	resolvedIdx int // -1 until one endpoint suffix is confirmed working
}

// NewOpenAICompatibleClient builds a client against baseURL (no
// trailing slash assumed; it is trimmed). apiKey may be empty for
// servers that don't require authentication.
func NewOpenAICompatibleClient(baseURL, apiKey, model string, log *slog.Logger) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpclient.New(httpclient.WithMaxRetries(2),httpclient.WithBaseDelay(time.Second), httpclient.WithMaxDelay(8*time.Second)),
		log:        log,
		resolvedIdx: -1,
	}
}

func (c *OpenAICompatibleClient) Close() error { return nil }

type chatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	ToolCalls  []chatToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Complete tries each endpoint suffix in turn (once one succeeds, it
// is pinned for subsequent calls) and parses the response under
// several known response shapes before giving up.
func (c *OpenAICompatibleClient) Complete(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model:       firstNonEmpty(req.Model, c.model),
		Messages:    toChatMessages(req.Messages),
		Tools:       toChatTools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	order := c.endpointOrder()
	var lastErr error
	for _, idx := range order {
		url := c.baseURL + endpointSuffixes[idx]
		resp, err := c.httpClient.Do(ctx, func() (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", "application/json")
			if c.apiKey != "" {
				r.Header.Set("Authorization", "Bearer "+c.apiKey)
			}
			return r, nil
		})
		if err != nil {
			lastErr = err
			if c.log != nil {
				c.log.DebugContext(ctx, "llm endpoint attempt failed", "url", url, "error", err)
			}
			continue
		}

		raw, readErr := readAndClose(resp)
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("llm: %s returned status %d: %s", url, resp.StatusCode, truncate(string(raw), 300))
			continue
		}

		parsed, ok := parseChatResponse(raw)
		if !ok {
			lastErr = fmt.Errorf("llm: %s returned an unrecognized response shape", url)
			continue
		}

		c.resolvedIdx = idx
		return parsed, nil
	}

	return Response{}, fmt.Errorf("llm: all endpoint variants failed: %w", lastErr)
}

// endpointOrder returns the suffix indices to try, starting from a
// previously-resolved index if one exists.
func (c *OpenAICompatibleClient) endpointOrder() []int {
	if c.resolvedIdx < 0 {
		order := make([]int, len(endpointSuffixes))
		for i := range order {
			order[i] = i
		}
		return order
	}
	order := []int{c.resolvedIdx}
	for i := range endpointSuffixes {
		if i != c.resolvedIdx {
			order = append(order, i)
		}
	}
	return order
}

// rawChatResponse covers the standard OpenAI choices[].message shape.
type rawChatResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// parseChatResponse tries the standard choices[].message shape first,
// then falls back to a handful of bare-field shapes
// ("text"/"content"/"output"/"response"/"generation") some
// non-conformant local servers return directly at the top level —
// mirroring fixed_lm_studio_client.py's response-field fallback loop.
func parseChatResponse(raw []byte) (Response, bool) {
	var std rawChatResponse
	if err := json.Unmarshal(raw, &std); err == nil {
		if std.Error != nil {
			return Response{}, false
		}
		if len(std.Choices) > 0 {
			choice := std.Choices[0]
			if len(choice.Message.ToolCalls) > 0 {
				return Response{
					ToolCalls: fromChatToolCalls(choice.Message.ToolCalls),
					Tokens:    std.Usage.TotalTokens,
				}, true
			}
			return Response{Content: choice.Message.Content, Tokens: std.Usage.TotalTokens}, true
		}
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return Response{}, false
	}
	for _, key := range []string{"text", "content", "output", "response", "generation"} {
		if v, ok := loose[key].(string); ok && v != "" {
			return Response{Content: v}, true
		}
	}
	return Response{}, false
}

func fromChatToolCalls(calls []chatToolCall) []message.ToolCall {
	out := make([]message.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, message.ToolCall{
			ID:           c.ID,
			FunctionName: normalizeToolName(c.Function.Name),
			Arguments:    c.Function.Arguments,
		})
	}
	return out
}

// normalizeToolName trims whitespace and lower-cases the function name
// some providers emit with inconsistent casing, so the invocation
// layer's registry lookup isn't sensitive to it.
func normalizeToolName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func toChatMessages(msgs []message.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			ct := chatToolCall{ID: tc.ID, Type: "function"}
			ct.Function.Name = tc.FunctionName
			ct.Function.Arguments = string(args)
			cm.ToolCalls = append(cm.ToolCalls, ct)
		}
		out = append(out, cm)
	}
	return out
}

func toChatTools(defs []ToolDefinition) []chatTool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(defs))
	for _, d := range defs {
		t := chatTool{Type: "function"}
		t.Function.Name = d.Name
		t.Function.Description = d.Description
		t.Function.Parameters = d.Parameters
		out = append(out, t)
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
