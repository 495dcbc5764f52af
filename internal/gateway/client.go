package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

const (
	// Larger frames make gorilla close the connection with ErrReadLimit.
	maxFrameBytes = 64 * 1024

	// Frames queued for a client that is not reading. A client that falls
	// this far behind is disconnected.
	outboxSize = 128

	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Client is one WebSocket connection. Requests are handled in order on the
// read goroutine; a separate goroutine drains the outbox.
type Client struct {
	id            string
	conn          *websocket.Conn
	server        *Server
	authenticated atomic.Bool
	userID        string // set by connect, read only on the read goroutine

	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, server *Server) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		server: server,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

// Run serves the connection until the peer goes away or Close is called.
func (c *Client) Run(ctx context.Context) {
	go c.writeLoop()
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(maxFrameBytes)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(readTimeout)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		_ = extend("")
		c.handleFrame(ctx, data)
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind    = websocket.TextMessage
			payload []byte
		)
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload = <-c.outbox:
		case <-ping.C:
			kind = websocket.PingMessage
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			c.Close()
			return
		}
	}
}

// handleFrame accepts only request frames, and only connect until the
// handshake succeeds.
func (c *Client) handleFrame(ctx context.Context, data []byte) {
	frameType, err := protocol.ParseFrameType(data)
	if err != nil {
		c.sendError("", protocol.ErrInvalidRequest, "invalid frame: "+err.Error())
		return
	}
	if frameType != protocol.FrameTypeRequest {
		c.sendError("", protocol.ErrInvalidRequest, "unexpected frame type: "+frameType)
		return
	}

	var req protocol.RequestFrame
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", protocol.ErrInvalidRequest, "malformed request: "+err.Error())
		return
	}
	if !c.authenticated.Load() && req.Method != protocol.MethodConnect {
		c.sendError(req.ID, protocol.ErrUnauthorized, "first request must be 'connect'")
		return
	}
	c.server.router.Handle(ctx, c, &req)
}

func (c *Client) SendResponse(resp *protocol.ResponseFrame) { c.write(resp) }

func (c *Client) SendEvent(event *protocol.EventFrame) { c.write(event) }

func (c *Client) sendError(id, code, message string) {
	c.write(protocol.NewErrorResponse(id, code, message))
}

// write queues a frame. A full outbox closes the client.
func (c *Client) write(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("marshal frame failed", "client", c.id, "error", err)
		return
	}
	select {
	case <-c.done:
	case c.outbox <- data:
	default:
		slog.Warn("security.ws_slow_consumer", "client", c.id, "queued", len(c.outbox))
		c.Close()
	}
}

func (c *Client) ID() string { return c.id }

// UserID returns the user ID sent with connect.
func (c *Client) UserID() string { return c.userID }

// Close stops both loops. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
