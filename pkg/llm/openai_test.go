package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/agentcore-dev/agentcore/pkg/message"
)

func TestOpenAICompatibleClient_Complete_FailsOverToWorkingSuffix(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path != "/api/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hi there"}},
			},
			"usage": map[string]any{"total_tokens": 7},
		})
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(srv.URL, "", "test-model", nil)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []message.Message{{Role: message.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hi there" || resp.Tokens != 7 {
		t.Fatalf("resp = %+v", resp)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 probed suffixes up to and including the working one, got %v", hits)
	}
	if client.resolvedIdx < 0 || endpointSuffixes[client.resolvedIdx] != "/api/chat/completions" {
		t.Fatalf("resolvedIdx = %d, want the index of /api/chat/completions", client.resolvedIdx)
	}

	// A second call should go straight to the resolved suffix.
	hits = nil
	if _, err := client.Complete(context.Background(), Request{
		Messages: []message.Message{{Role: message.RoleUser, Content: "again"}},
	}); err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if len(hits) != 1 || hits[0] != "/api/chat/completions" {
		t.Fatalf("expected the pinned suffix to be tried first, got %v", hits)
	}
}

func TestOpenAICompatibleClient_Complete_AllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(srv.URL, "", "test-model", nil)
	if _, err := client.Complete(context.Background(), Request{
		Messages: []message.Message{{Role: message.RoleUser, Content: "hi"}},
	}); err == nil {
		t.Fatal("expected an error when every endpoint suffix fails")
	}
}

func TestOpenAICompatibleClient_Complete_ToolCallNamesAreNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"tool_calls": []map[string]any{
						{
							"id":   "call_1",
							"type": "function",
							"function": map[string]any{
								"name":      "  Web.Search  ",
								"arguments": `{"query":"go"}`,
							},
						},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(srv.URL, "", "test-model", nil)
	resp, err := client.Complete(context.Background(), Request{
		Messages: []message.Message{{Role: message.RoleUser, Content: "search for go"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].FunctionName != "web.search" {
		t.Fatalf("function name = %q, want %q", resp.ToolCalls[0].FunctionName, "web.search")
	}
}

func TestParseChatResponse_NonStandardShapesFallBack(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare text", `{"text":"a"}`, "a"},
		{"bare content", `{"content":"b"}`, "b"},
		{"bare output", `{"output":"c"}`, "c"},
		{"bare response", `{"response":"d"}`, "d"},
		{"bare generation", `{"generation":"e"}`, "e"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, ok := parseChatResponse([]byte(tc.body))
			if !ok {
				t.Fatalf("parseChatResponse(%q) reported no match", tc.body)
			}
			if resp.Content != tc.want {
				t.Fatalf("content = %q, want %q", resp.Content, tc.want)
			}
		})
	}
}

func TestParseChatResponse_ErrorFieldRejectsStandardShape(t *testing.T) {
	if _, ok := parseChatResponse([]byte(`{"error":{"message":"boom"}}`)); ok {
		t.Fatal("expected an error-carrying standard response to be rejected")
	}
}

func TestParseChatResponse_UnrecognizedShapeFails(t *testing.T) {
	if _, ok := parseChatResponse([]byte(`{"unrelated":123}`)); ok {
		t.Fatal("expected an unrecognized shape to fail")
	}
	if _, ok := parseChatResponse([]byte(`not json`)); ok {
		t.Fatal("expected invalid JSON to fail")
	}
}

func TestNormalizeToolName(t *testing.T) {
	cases := map[string]string{
		"  Bash  ":   "bash",
		"Web.Search": "web.search",
		"terminate":  "terminate",
	}
	for in, want := range cases {
		if got := normalizeToolName(in); got != want {
			t.Errorf("normalizeToolName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAICompatibleClient_Complete_SendsAuthorizationHeader(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(srv.URL, "sk-test-key", "test-model", nil)
	if _, err := client.Complete(context.Background(), Request{
		Messages: []message.Message{{Role: message.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := gotAuth.Load(); got != "Bearer sk-test-key" {
		t.Fatalf("Authorization header = %q, want %q", got, "Bearer sk-test-key")
	}
}
