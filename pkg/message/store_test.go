package message_test

import (
	"testing"

	"github.com/agentcore-dev/agentcore/pkg/message"
)

func TestStore_AppendOrdering(t *testing.T) {
	s := message.New(10_000)
	_ = s.Append(message.Message{Role: message.RoleUser, Content: "hi"})
	_ = s.Append(message.Message{Role: message.RoleAssistant, Content: "hello"})

	got := s.Snapshot()
	if len(got) != 2 || got[0].Content != "hi" || got[1].Content != "hello" {
		t.Fatalf("unexpected snapshot order: %+v", got)
	}
}

func TestStore_M1_RejectsDanglingToolResult(t *testing.T) {
	s := message.New(10_000)
	err := s.Append(message.Message{Role: message.RoleTool, ToolCallID: "nope", Content: "4"})
	if err == nil {
		t.Fatalf("expected error appending a tool message with no prior matching tool call")
	}
}

func TestStore_M1_AcceptsMatchingToolResult(t *testing.T) {
	s := message.New(10_000)
	_ = s.Append(message.Message{
		Role: message.RoleAssistant,
		ToolCalls: []message.ToolCall{
			{ID: "c1", FunctionName: "bash", Arguments: "echo hi"},
		},
	})
	if err := s.Append(message.Message{Role: message.RoleTool, ToolCallID: "c1", Content: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_SystemMessageNeverEvicted(t *testing.T) {
	s := message.New(40) // tiny budget
	_ = s.SetSystem(message.Message{Content: "you are an assistant"})

	for i := 0; i < 20; i++ {
		_ = s.Append(message.Message{Role: message.RoleUser, Content: "filler message to force eviction"})
	}

	sys, ok := s.System()
	if !ok || sys.Content != "you are an assistant" {
		t.Fatalf("system message was evicted or lost: %+v ok=%v", sys, ok)
	}
}

func TestStore_EvictsAtomicToolCallGroup(t *testing.T) {
	s := message.New(80)
	_ = s.SetSystem(message.Message{Content: "sys"})

	_ = s.Append(message.Message{
		Role: message.RoleAssistant,
		ToolCalls: []message.ToolCall{
			{ID: "c1", FunctionName: "bash", Arguments: "echo 1"},
			{ID: "c2", FunctionName: "bash", Arguments: "echo 2"},
		},
	})
	_ = s.Append(message.Message{Role: message.RoleTool, ToolCallID: "c1", Content: "1"})
	_ = s.Append(message.Message{Role: message.RoleTool, ToolCallID: "c2", Content: "2"})

	// Push enough filler to force the assistant+2-tool-results block out.
	for i := 0; i < 10; i++ {
		_ = s.Append(message.Message{Role: message.RoleUser, Content: "padding padding padding padding"})
	}

	for _, m := range s.Snapshot() {
		if m.Role == message.RoleTool && (m.ToolCallID == "c1" || m.ToolCallID == "c2") {
			t.Fatalf("expected the (assistant, tool results) block to be evicted atomically, found leftover %+v", m)
		}
	}
	// P-M2: no dangling tool-role message should remain.
	assertNoDangling(t, s)
}

func assertNoDangling(t *testing.T, s *message.Store) {
	t.Helper()
	seen := map[string]bool{}
	for _, m := range s.Snapshot() {
		if m.Role == message.RoleAssistant {
			for _, tc := range m.ToolCalls {
				seen[tc.ID] = true
			}
		}
	}
	for _, m := range s.Snapshot() {
		if m.Role == message.RoleTool && !seen[m.ToolCallID] {
			t.Errorf("dangling tool-role message references evicted tool call %q", m.ToolCallID)
		}
	}
}

func TestStore_TokenCountMonotone(t *testing.T) {
	a := message.EstimateTokens(message.Message{Content: "hi"})
	b := message.EstimateTokens(message.Message{Content: "a longer message than the first one"})
	if b <= a {
		t.Errorf("EstimateTokens should be monotone in content length: a=%d b=%d", a, b)
	}
}

func TestStore_Clear(t *testing.T) {
	s := message.New(10_000)
	_ = s.SetSystem(message.Message{Content: "sys"})
	_ = s.Append(message.Message{Role: message.RoleUser, Content: "hi"})
	s.Clear()

	if len(s.Snapshot()) != 1 {
		t.Fatalf("Clear() should drop non-system messages only")
	}
}
