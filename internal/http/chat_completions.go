package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
)

// DefaultModel is reported when the request does not name a model.
const DefaultModel = "faqclaw"

// ChatCompletionsHandler handles POST /v1/chat/completions (OpenAI-compatible).
// The last user message is answered from the FAQ; earlier turns are ignored.
type ChatCompletionsHandler struct {
	responder *chat.Responder
	guard     guard
}

// NewChatCompletionsHandler creates a handler for the chat completions endpoint.
func NewChatCompletionsHandler(responder *chat.Responder, token string) *ChatCompletionsHandler {
	return &ChatCompletionsHandler{responder: responder, guard: guard{token: token}}
}

// SetRateLimiter sets the rate limiter function for HTTP requests.
func (h *ChatCompletionsHandler) SetRateLimiter(fn func(string) bool) {
	h.guard.rateLimiter = fn
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	User     string        `json:"user,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	FAQ     *faqMeta     `json:"faq,omitempty"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	Delta        *chatMessage `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

// faqMeta exposes match details next to the OpenAI fields.
type faqMeta struct {
	Matched     bool              `json:"matched"`
	Score       float64           `json:"score"`
	EntryID     string            `json:"entryId,omitempty"`
	Suggestions []chat.Suggestion `json:"suggestions,omitempty"`
}

func (h *ChatCompletionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	h.guard.wrap(h.serve)(w, r)
}

func (h *ChatCompletionsHandler) serve(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("Invalid JSON: %s", err))
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "messages is required")
		return
	}

	var lastMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastMessage = req.Messages[i].Content
			break
		}
	}
	if lastMessage == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "No user message found")
		return
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	id := "chatcmpl-" + uuid.NewString()[:8]

	slog.Info("chat completions request", "stream", req.Stream, "user", req.User)
	reply := h.responder.Reply(r.Context(), lastMessage)
	meta := &faqMeta{Matched: reply.Matched, Score: reply.Score, Suggestions: reply.Suggestions}
	if reply.Entry != nil {
		meta.EntryID = reply.Entry.ID.String()
	}

	if req.Stream {
		h.handleStream(w, id, model, reply.Text)
		return
	}

	stop := "stop"
	writeJSON(w, http.StatusOK, chatCompletionsResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []chatChoice{{
			Index:        0,
			Message:      &chatMessage{Role: "assistant", Content: reply.Text},
			FinishReason: &stop,
		}},
		FAQ: meta,
	})
}

func (h *ChatCompletionsHandler) handleStream(w http.ResponseWriter, id, model, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "server_error", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSEChunk(w, flusher, id, model, &chatMessage{Role: "assistant"}, "")
	writeSSEChunk(w, flusher, id, model, &chatMessage{Content: text}, "stop")

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeSSEChunk(w http.ResponseWriter, flusher http.Flusher, id, model string, delta *chatMessage, finishReason string) {
	choice := chatChoice{Index: 0, Delta: delta}
	if finishReason != "" {
		choice.FinishReason = &finishReason
	}
	chunk := chatCompletionsResponse{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []chatChoice{choice},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
