package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/internal/faq"
	httpapi "github.com/nextlevelbuilder/faqclaw/internal/http"
	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

// Server hosts the HTTP API and the WebSocket RPC endpoint on one listener.
type Server struct {
	addr           string
	token          string
	allowedOrigins []string
	version        string

	responder   *chat.Responder
	catalog     *faq.Catalog
	router      *MethodRouter
	rateLimiter *RateLimiter
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
	seq     atomic.Int64

	handler http.Handler
}

// NewServer wires handlers from the gateway config. Token and rate limits
// are fixed for the server's lifetime.
func NewServer(cfg config.GatewayConfig, responder *chat.Responder, catalog *faq.Catalog, version string) *Server {
	s := &Server{
		addr:           cfg.Addr(),
		token:          cfg.Token,
		allowedOrigins: cfg.AllowedOrigins,
		version:        version,
		responder:      responder,
		catalog:        catalog,
		rateLimiter:    NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst),
		clients:        make(map[string]*Client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = NewMethodRouter(s)
	s.handler = s.buildMux()
	return s
}

func (s *Server) buildMux() http.Handler {
	mux := http.NewServeMux()

	chatHandler := httpapi.NewChatCompletionsHandler(s.responder, s.token)
	matchHandler := httpapi.NewMatchHandler(s.responder, s.token)
	faqHandler := httpapi.NewFAQHandler(s.catalog, s.token)
	if s.rateLimiter.Enabled() {
		chatHandler.SetRateLimiter(s.rateLimiter.Allow)
		matchHandler.SetRateLimiter(s.rateLimiter.Allow)
		faqHandler.SetRateLimiter(s.rateLimiter.Allow)
	}

	mux.Handle("/v1/chat/completions", chatHandler)
	mux.Handle("/v1/match", matchHandler)
	faqHandler.RegisterRoutes(mux)
	mux.Handle("GET /health", httpapi.NewHealthHandler(s.catalog, s.version))
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Handler returns the root HTTP handler (also served on extra listeners
// such as Tailscale).
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// checkOrigin accepts requests without an Origin header (CLI and server
// clients) and browser origins from the allow-list. An empty allow-list
// accepts every origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return true
	}
	if slices.Contains(s.allowedOrigins, origin) {
		return true
	}
	slog.Warn("security.ws_origin_rejected", "origin", origin)
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s)
	s.mu.Lock()
	s.clients[client.id] = client
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client.id)
		s.mu.Unlock()
		client.Close()
		slog.Debug("websocket client disconnected", "client", client.id)
	}()

	client.Run(r.Context())
}

// BroadcastEvent pushes an event to every authenticated client.
func (s *Server) BroadcastEvent(event string, payload any) {
	frame := protocol.NewEvent(event, payload)
	frame.Seq = s.seq.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.authenticated.Load() {
			c.SendEvent(frame)
		}
	}
}

// closeClients drops hijacked WebSocket connections, which Shutdown does
// not track.
func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}

// ClientCount returns the number of open WebSocket connections.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.BroadcastEvent(protocol.EventShutdown, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeClients()
	s.rateLimiter.Stop()
	slog.Info("gateway stopped")
	return err
}
