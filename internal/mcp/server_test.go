package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

type fakeResponder struct {
	gotThreshold float64
	gotLimit     int
	matchErr     error
}

func (f *fakeResponder) Reply(_ context.Context, q string) chat.Reply {
	return chat.Reply{Text: "answer: " + q, Matched: true}
}

func (f *fakeResponder) Match(_ context.Context, q string, threshold float64, limit int) (chat.MatchResult, error) {
	f.gotThreshold, f.gotLimit = threshold, limit
	if f.matchErr != nil {
		return chat.MatchResult{}, f.matchErr
	}
	entry := chat.RankedEntry{Entry: store.FAQEntry{Question: "Q?", Answer: "A"}, Score: 88}
	return chat.MatchResult{Query: q, Threshold: 70, Best: &entry, Results: []chat.RankedEntry{entry}}, nil
}

func callRequest(name string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// extractTextContent concatenates all text content from a CallToolResult.
func extractTextContent(result *mcpgo.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcpgo.TextContent:
			parts = append(parts, v.Text)
		case *mcpgo.TextContent:
			parts = append(parts, v.Text)
		default:
			parts = append(parts, fmt.Sprintf("[non-text content: %T]", c))
		}
	}
	return strings.Join(parts, "\n")
}

func TestHandleMatch(t *testing.T) {
	f := &fakeResponder{}
	h := &handlers{responder: f}

	res, err := h.handleMatch(context.Background(), callRequest(ToolMatch, map[string]any{
		"query": "fees", "threshold": 60.0, "limit": 2.0,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextContent(res))
	}
	if f.gotThreshold != 60 || f.gotLimit != 2 {
		t.Errorf("forwarded threshold/limit = %v/%d, want 60/2", f.gotThreshold, f.gotLimit)
	}

	var mr chat.MatchResult
	if err := json.Unmarshal([]byte(extractTextContent(res)), &mr); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if mr.Best == nil || mr.Best.Score != 88 {
		t.Errorf("best = %+v", mr.Best)
	}
}

func TestHandleMatchDefaultsAndErrors(t *testing.T) {
	f := &fakeResponder{}
	h := &handlers{responder: f}
	ctx := context.Background()

	if _, err := h.handleMatch(ctx, callRequest(ToolMatch, map[string]any{"query": "x"})); err != nil {
		t.Fatal(err)
	}
	if f.gotLimit != defaultMatchLimit || f.gotThreshold != 0 {
		t.Errorf("defaults = %v/%d", f.gotThreshold, f.gotLimit)
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"blank query", map[string]any{"query": "  "}},
		{"bad threshold", map[string]any{"query": "x", "threshold": 101.0}},
	}
	for _, tt := range tests {
		res, err := h.handleMatch(ctx, callRequest(ToolMatch, tt.args))
		if err != nil || !res.IsError {
			t.Errorf("%s: want tool error, got %v / %+v", tt.name, err, res)
		}
	}

	f.matchErr = errors.New("catalog unavailable")
	res, _ := h.handleMatch(ctx, callRequest(ToolMatch, map[string]any{"query": "x"}))
	if !res.IsError || !strings.Contains(extractTextContent(res), "catalog unavailable") {
		t.Errorf("match error result = %+v", res)
	}
}

func TestHandleAnswer(t *testing.T) {
	h := &handlers{responder: &fakeResponder{}}
	res, err := h.handleAnswer(context.Background(), callRequest(ToolAnswer, map[string]any{"question": "hours?"}))
	if err != nil {
		t.Fatal(err)
	}
	if got := extractTextContent(res); got != "answer: hours?" {
		t.Errorf("answer = %q", got)
	}

	res, _ = h.handleAnswer(context.Background(), callRequest(ToolAnswer, nil))
	if !res.IsError {
		t.Error("missing question should be a tool error")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(&fakeResponder{}, "test")
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{ToolMatch, ToolAnswer} {
		if !strings.Contains(string(data), `"name":"`+name+`"`) {
			t.Errorf("tool %s not listed in %s", name, data)
		}
	}
}
