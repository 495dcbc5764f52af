// Package mcp exposes the FAQ matcher as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
)

// Tool names.
const (
	ToolMatch  = "faq_match"
	ToolAnswer = "faq_answer"
)

const defaultMatchLimit = 5

// Responder is the subset of *chat.Responder the tools need.
type Responder interface {
	Reply(ctx context.Context, query string) chat.Reply
	Match(ctx context.Context, query string, threshold float64, limit int) (chat.MatchResult, error)
}

type handlers struct {
	responder Responder
}

// NewServer builds an MCP server with the faq_match and faq_answer tools.
func NewServer(responder Responder, version string) *server.MCPServer {
	s := server.NewMCPServer("faqclaw", version, server.WithToolCapabilities(false))
	h := &handlers{responder: responder}

	s.AddTool(mcpgo.NewTool(ToolMatch,
		mcpgo.WithDescription("Rank knowledge-base questions by similarity to a query. Returns JSON with the best match above the threshold and the top results."),
		mcpgo.WithString("query", mcpgo.Required(), mcpgo.Description("The user's question")),
		mcpgo.WithNumber("threshold", mcpgo.Description("Minimum score (0-100) for the best match; omit for the configured default")),
		mcpgo.WithNumber("limit", mcpgo.Description("Maximum number of ranked results (default 5)")),
	), h.handleMatch)

	s.AddTool(mcpgo.NewTool(ToolAnswer,
		mcpgo.WithDescription("Answer a question from the FAQ knowledge base, exactly as the chat bot would."),
		mcpgo.WithString("question", mcpgo.Required(), mcpgo.Description("The user's question")),
	), h.handleAnswer)

	return s
}

// ServeStdio serves s over stdin/stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) handleMatch(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcpgo.NewToolResultError("query is required"), nil
	}
	threshold := req.GetFloat("threshold", 0)
	if threshold < 0 || threshold > 100 {
		return mcpgo.NewToolResultError("threshold must be within [0, 100]"), nil
	}
	limit := req.GetInt("limit", defaultMatchLimit)
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	res, err := h.responder.Match(ctx, query, threshold, limit)
	if err != nil {
		return mcpgo.NewToolResultError(fmt.Sprintf("match failed: %v", err)), nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal match result: %w", err)
	}
	return mcpgo.NewToolResultText(string(data)), nil
}

func (h *handlers) handleAnswer(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcpgo.NewToolResultError("question is required"), nil
	}
	reply := h.responder.Reply(ctx, question)
	return mcpgo.NewToolResultText(reply.Text), nil
}
