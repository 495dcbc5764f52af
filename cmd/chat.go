package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/internal/faq"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

func chatCmd() *cobra.Command {
	var (
		message    string
		standalone bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively or send a one-shot message",
		Long: `Chat with the FAQ bot via the running gateway (WebSocket client mode).
Falls back to in-process matching if the gateway is not running.

REPL commands:
  /threshold N     set the match threshold (0-100)
  /rank <query>    show the ranked candidates for a query
  /reload          reload the knowledge base
  exit             quit

Examples:
  faqclaw chat
  faqclaw chat -m "What are the school hours?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), message, standalone)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "one-shot message (omit for interactive mode)")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "skip the gateway and match in-process")
	return cmd
}

// chatBackend answers REPL input either through the gateway or in-process.
type chatBackend interface {
	Reply(ctx context.Context, message string) (chat.Reply, error)
	Rank(ctx context.Context, query string, limit int) (chat.MatchResult, error)
	SetThreshold(threshold float64) error
	Reload(ctx context.Context) (int, error)
	Close() error
}

func runChat(ctx context.Context, message string, standalone bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var backend chatBackend
	if !standalone {
		addr := clientAddr(cfg.Gateway)
		if isGatewayRunning(addr) {
			b, err := dialGateway(ctx, addr, cfg.Gateway.Token)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Gateway connect failed: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Connected to gateway at %s\n", addr)
				backend = b
			}
		}
	}
	if backend == nil {
		if !standalone {
			fmt.Fprintf(os.Stderr, "Gateway not running, using standalone mode\n")
		}
		b, err := newLocalBackend(ctx, cfg)
		if err != nil {
			return err
		}
		backend = b
	}
	defer backend.Close()

	if message != "" {
		reply, err := backend.Reply(ctx, message)
		if err != nil {
			return err
		}
		fmt.Println(reply.Text)
		return nil
	}

	fmt.Fprintf(os.Stderr, "\nfaqclaw interactive chat\n")
	fmt.Fprintf(os.Stderr, "Type \"exit\" to quit, \"/rank <query>\" to see candidates\n\n")
	return runREPL(ctx, backend, os.Stdin, os.Stdout, os.Stderr)
}

// runREPL reads lines from in until EOF or "exit".
func runREPL(ctx context.Context, b chatBackend, in io.Reader, out, prompt io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, "You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(prompt, "Goodbye!")
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := runSlashCommand(ctx, b, input, out); err != nil {
				fmt.Fprintf(out, "Error: %v\n\n", err)
			}
			continue
		}

		reply, err := b.Reply(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", reply.Text)
	}
}

var errUnknownCommand = errors.New("unknown command (try /threshold, /rank, /reload)")

// parseSlashCommand splits "/cmd args..." with shell quoting rules.
func parseSlashCommand(line string) (string, []string, error) {
	words, err := shellwords.Parse(line)
	if err != nil {
		return "", nil, fmt.Errorf("parse command: %w", err)
	}
	if len(words) == 0 {
		return "", nil, errUnknownCommand
	}
	return strings.ToLower(words[0]), words[1:], nil
}

func runSlashCommand(ctx context.Context, b chatBackend, line string, out io.Writer) error {
	name, args, err := parseSlashCommand(line)
	if err != nil {
		return err
	}
	switch name {
	case "/threshold":
		if len(args) != 1 {
			return fmt.Errorf("usage: /threshold N")
		}
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil || t < 0 || t > 100 {
			return fmt.Errorf("threshold must be a number within [0, 100]")
		}
		if err := b.SetThreshold(t); err != nil {
			return err
		}
		fmt.Fprintf(out, "Threshold set to %g\n\n", t)

	case "/rank":
		if len(args) == 0 {
			return fmt.Errorf("usage: /rank <query>")
		}
		res, err := b.Rank(ctx, strings.Join(args, " "), 5)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderMatchTable(res, 60))
		fmt.Fprintln(out)

	case "/reload":
		n, err := b.Reload(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Knowledge base reloaded: %d entries\n\n", n)

	default:
		return errUnknownCommand
	}
	return nil
}

// --- Gateway detection ---

// clientAddr maps a wildcard listen host to loopback.
func clientAddr(g config.GatewayConfig) string {
	host := g.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(g.Port))
}

func isGatewayRunning(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ============================================================
// STANDALONE MODE: in-process catalog and responder
// ============================================================

type localBackend struct {
	responder *chat.Responder
	catalog   *faq.Catalog
	store     store.FAQStore
}

func newLocalBackend(ctx context.Context, cfg *config.Config) (*localBackend, error) {
	responder, catalog, s, err := openResponder(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	return &localBackend{responder: responder, catalog: catalog, store: s}, nil
}

func (b *localBackend) Reply(ctx context.Context, message string) (chat.Reply, error) {
	return b.responder.Reply(store.WithChannel(ctx, "cli"), message), nil
}

func (b *localBackend) Rank(ctx context.Context, query string, limit int) (chat.MatchResult, error) {
	return b.responder.Match(ctx, query, 0, limit)
}

func (b *localBackend) SetThreshold(threshold float64) error {
	opts := b.responder.Options()
	opts.Match.Threshold = threshold
	return b.responder.UpdateOptions(opts)
}

func (b *localBackend) Reload(ctx context.Context) (int, error) {
	if err := b.catalog.Reload(ctx); err != nil {
		return 0, err
	}
	return b.catalog.Len(), nil
}

func (b *localBackend) Close() error { return b.store.Close() }

// ============================================================
// CLIENT MODE: running gateway via WebSocket
// ============================================================

type wsBackend struct {
	conn      *websocket.Conn
	baseURL   string
	token     string
	threshold float64
}

func dialGateway(ctx context.Context, addr, token string) (*wsBackend, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		return nil, err
	}
	b := &wsBackend{conn: conn, baseURL: "http://" + addr, token: token}
	var res protocol.ConnectResult
	params := protocol.ConnectParams{
		Version: protocol.ProtocolVersion,
		Token:   token,
		UserID:  "cli",
		Client:  "faqclaw-cli",
	}
	if err := b.call(protocol.MethodConnect, params, &res); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gateway auth failed: %w", err)
	}
	return b, nil
}

// call sends a request and waits for its response. Events that arrive in
// between are reported on stderr.
func (b *wsBackend) call(method string, params, out any) error {
	reqID := uuid.NewString()[:8]
	req, err := protocol.NewRequest(reqID, method, params)
	if err != nil {
		return err
	}
	if err := b.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		frameType, _ := protocol.ParseFrameType(raw)
		switch frameType {
		case protocol.FrameTypeEvent:
			var evt protocol.EventFrame
			if json.Unmarshal(raw, &evt) == nil {
				handleCLIEvent(evt)
			}
		case protocol.FrameTypeResponse:
			var resp struct {
				ID      string               `json:"id"`
				OK      bool                 `json:"ok"`
				Payload json.RawMessage      `json:"payload"`
				Error   *protocol.ErrorShape `json:"error"`
			}
			if err := json.Unmarshal(raw, &resp); err != nil || resp.ID != reqID {
				continue
			}
			if !resp.OK {
				if resp.Error != nil {
					return resp.Error
				}
				return fmt.Errorf("%s failed", method)
			}
			if out != nil && len(resp.Payload) > 0 {
				return json.Unmarshal(resp.Payload, out)
			}
			return nil
		}
	}
}

func handleCLIEvent(evt protocol.EventFrame) {
	switch evt.Event {
	case protocol.EventCatalogReloaded:
		fmt.Fprintln(os.Stderr, "  [knowledge base reloaded]")
	case protocol.EventShutdown:
		fmt.Fprintln(os.Stderr, "  [gateway shutting down]")
	}
}

func (b *wsBackend) Reply(_ context.Context, message string) (chat.Reply, error) {
	var reply chat.Reply
	err := b.call(protocol.MethodChatSend, protocol.ChatSendParams{Message: message}, &reply)
	return reply, err
}

func (b *wsBackend) Rank(_ context.Context, query string, limit int) (chat.MatchResult, error) {
	var res chat.MatchResult
	err := b.call(protocol.MethodFAQMatch, protocol.MatchParams{Query: query, Threshold: b.threshold, Limit: limit}, &res)
	return res, err
}

// SetThreshold applies to /rank only; replies use the gateway's threshold.
func (b *wsBackend) SetThreshold(threshold float64) error {
	b.threshold = threshold
	return nil
}

func (b *wsBackend) Reload(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/faq/reload", nil)
	if err != nil {
		return 0, err
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("reload failed: %s", resp.Status)
	}
	var body struct {
		Entries int `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Entries, nil
}

func (b *wsBackend) Close() error { return b.conn.Close() }
