package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentcore-dev/agentcore/pkg/message"
)

// sanitizeToolName maps a tool name to the character set Anthropic's
// API accepts (letters, digits, underscore, hyphen; max 64 chars),
// grounded on goadesign-goa-ai's client.go isProviderSafeToolName /
// sanitizeToolName pair, trimmed down since our tool names are flat
// (no dotted toolset-namespace prefix to strip).
func sanitizeToolName(name string) string {
	if isProviderSafeToolName(name) {
		return name
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) > 64 {
		out = out[:64]
	}
	return string(out)
}

func isProviderSafeToolName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			continue
		}
		return false
	}
	return true
}

// messagesClient is the subset of the Anthropic SDK this adapter uses,
// narrowed so tests can substitute a fake, grounded on
// goadesign-goa-ai's features/model/anthropic.MessagesClient.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient implements Client on top of the Claude Messages API.
type AnthropicClient struct {
	msg          messagesClient
	defaultModel string
	maxTokens    int
}

// NewAnthropicClient constructs a client from an API key and default
// model identifier (e.g. "claude-sonnet-4-5-20250929").
func NewAnthropicClient(apiKey, defaultModel string, maxTokens int) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: anthropic api key is required")
	}
	if defaultModel == "" {
		return nil, errors.New("llm: anthropic default model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{msg: &c.Messages, defaultModel: defaultModel, maxTokens: maxTokens}, nil
}

func (c *AnthropicClient) Close() error { return nil }

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	params, toolNames, err := c.prepareParams(req)
	if err != nil {
		return Response{}, err
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: anthropic messages.new: %w", err)
	}

	return translateMessage(msg, toolNames), nil
}

func (c *AnthropicClient) prepareParams(req Request) (sdk.MessageNewParams, map[string]string, error) {
	if len(req.Messages) == 0 {
		return sdk.MessageNewParams{}, nil, errors.New("llm: at least one message is required")
	}

	model := firstNonEmpty(req.Model, c.defaultModel)
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	msgs, system, err := encodeAnthropicMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, nil, err
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, nil, errors.New("llm: at least one user/assistant message is required")
	}

	tools, toolNames, err := encodeAnthropicTools(req.Tools)
	if err != nil {
		return sdk.MessageNewParams{}, nil, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return params, toolNames, nil
}

func encodeAnthropicMessages(msgs []message.Message) ([]sdk.MessageParam, string, error) {
	var system string
	out := make([]sdk.MessageParam, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case message.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case message.RoleUser:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case message.RoleAssistant:
			blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				input, err := toolCallInput(tc)
				if err != nil {
					return nil, "", err
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, sanitizeToolName(tc.FunctionName)))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case message.RoleTool:
			out = append(out, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return out, system, nil
}

func toolCallInput(tc message.ToolCall) (any, error) {
	switch v := tc.Arguments.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("llm: tool call %q arguments are not valid JSON: %w", tc.FunctionName, err)
		}
		return decoded, nil
	default:
		return v, nil
	}
}

func encodeAnthropicTools(defs []ToolDefinition) ([]sdk.ToolUnionParam, map[string]string, error) {
	if len(defs) == 0 {
		return nil, nil, nil
	}
	tools := make([]sdk.ToolUnionParam, 0, len(defs))
	// names maps the sanitized name sent to Anthropic back to the
	// canonical registry name, so translateMessage can restore it.
	names := make(map[string]string, len(defs))
	for _, d := range defs {
		sanitized := sanitizeToolName(d.Name)
		schema := sdk.ToolInputSchemaParam{ExtraFields: d.Parameters}
		u := sdk.ToolUnionParamOfTool(schema, sanitized)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(d.Description)
		}
		tools = append(tools, u)
		names[sanitized] = d.Name
	}
	return tools, names, nil
}

func translateMessage(msg *sdk.Message, toolNames map[string]string) Response {
	var resp Response
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			name := block.Name
			if canonical, ok := toolNames[name]; ok {
				name = canonical
			}
			raw, _ := json.Marshal(block.Input)
			resp.ToolCalls = append(resp.ToolCalls, message.ToolCall{
				ID:           block.ID,
				FunctionName: normalizeToolName(name),
				Arguments:    string(raw),
			})
		}
	}
	resp.Tokens = int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return resp
}
