package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

// MethodHandler processes a single RPC method request.
type MethodHandler func(ctx context.Context, client *Client, req *protocol.RequestFrame)

// MethodRouter maps method names to handlers.
type MethodRouter struct {
	handlers map[string]MethodHandler
	server   *Server
}

func NewMethodRouter(server *Server) *MethodRouter {
	r := &MethodRouter{
		handlers: make(map[string]MethodHandler),
		server:   server,
	}
	r.registerDefaults()
	return r
}

// Register adds a method handler.
func (r *MethodRouter) Register(method string, handler MethodHandler) {
	r.handlers[method] = handler
}

// Handle dispatches a request to the appropriate handler.
func (r *MethodRouter) Handle(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	handler, ok := r.handlers[req.Method]
	if !ok {
		slog.Warn("unknown method", "method", req.Method, "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrMethodNotFound, "unknown method: "+req.Method))
		return
	}

	if req.Method != protocol.MethodConnect && req.Method != protocol.MethodPing {
		key := "ws:" + client.id
		if client.userID != "" {
			key = "user:" + client.userID
		}
		if !r.server.rateLimiter.Allow(key) {
			resp := protocol.NewErrorResponse(req.ID, protocol.ErrResourceExhausted, "rate limit exceeded")
			resp.Error.Retryable = true
			resp.Error.RetryAfterMs = 1000
			client.SendResponse(resp)
			return
		}
	}

	slog.Debug("handling method", "method", req.Method, "client", client.id, "req_id", req.ID)
	if client.userID != "" {
		ctx = store.WithUserID(ctx, client.userID)
	}
	handler(store.WithChannel(ctx, "ws"), client, req)
}

func (r *MethodRouter) registerDefaults() {
	r.Register(protocol.MethodConnect, r.handleConnect)
	r.Register(protocol.MethodPing, r.handlePing)
	r.Register(protocol.MethodChatSend, r.handleChatSend)
	r.Register(protocol.MethodFAQMatch, r.handleFAQMatch)
	r.Register(protocol.MethodFAQList, r.handleFAQList)
}

// decodeParams unmarshals req.Params into v, replying with an error on failure.
func decodeParams(client *Client, req *protocol.RequestFrame, v any) bool {
	if len(req.Params) == 0 {
		return true
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid params: "+err.Error()))
		return false
	}
	return true
}

// --- Built-in handlers ---

func (r *MethodRouter) handleConnect(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params protocol.ConnectParams
	if !decodeParams(client, req, &params) {
		return
	}
	if params.Version != 0 && params.Version != protocol.ProtocolVersion {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "unsupported protocol version"))
		return
	}

	if token := r.server.token; token != "" &&
		subtle.ConstantTimeCompare([]byte(params.Token), []byte(token)) != 1 {
		slog.Warn("security.ws_unauthorized", "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrUnauthorized, "invalid token"))
		return
	}
	if err := store.ValidateUserID(params.UserID); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, err.Error()))
		return
	}

	client.authenticated.Store(true)
	client.userID = params.UserID
	slog.Info("websocket client connected", "client", client.id, "user", params.UserID, "app", params.Client)

	client.SendResponse(protocol.NewOKResponse(req.ID, protocol.ConnectResult{
		Version:   protocol.ProtocolVersion,
		SessionID: client.id,
		Entries:   r.server.catalog.Len(),
	}))
}

func (r *MethodRouter) handlePing(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]string{"pong": uuid.NewString()}))
}

func (r *MethodRouter) handleChatSend(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params protocol.ChatSendParams
	if !decodeParams(client, req, &params) {
		return
	}
	if strings.TrimSpace(params.Message) == "" {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "message is required"))
		return
	}
	reply := r.server.responder.Reply(ctx, params.Message)
	client.SendResponse(protocol.NewOKResponse(req.ID, reply))
}

func (r *MethodRouter) handleFAQMatch(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params protocol.MatchParams
	if !decodeParams(client, req, &params) {
		return
	}
	if strings.TrimSpace(params.Query) == "" {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "query is required"))
		return
	}
	if params.Threshold < 0 || params.Threshold > 100 {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "threshold must be within [0, 100]"))
		return
	}
	res, err := r.server.responder.Match(ctx, params.Query, params.Threshold, params.Limit)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrUnavailable, err.Error()))
		return
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, res))
}

func (r *MethodRouter) handleFAQList(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	entries := r.server.catalog.Entries()
	if entries == nil {
		entries = []store.FAQEntry{}
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{
		"entries": entries,
		"count":   len(entries),
	}))
}
