package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/bus"
	"github.com/nextlevelbuilder/faqclaw/internal/channels"
	"github.com/nextlevelbuilder/faqclaw/internal/channels/discord"
	"github.com/nextlevelbuilder/faqclaw/internal/channels/slack"
	"github.com/nextlevelbuilder/faqclaw/internal/channels/telegram"
	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/internal/faq"
	"github.com/nextlevelbuilder/faqclaw/internal/gateway"
	"github.com/nextlevelbuilder/faqclaw/internal/store/file"
	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway: HTTP API, WebSocket RPC and chat channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(ctx, cfg)
	defer shutdownTracing()

	responder, catalog, s, err := openResponder(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer s.Close()

	server := gateway.NewServer(cfg.Gateway, responder, catalog, Version)
	catalog.OnReload(func(n int) {
		server.BroadcastEvent(protocol.EventCatalogReloaded, protocol.CatalogReloadedPayload{Entries: n})
	})

	if fs, ok := s.(*file.FAQFileStore); ok && cfg.Knowledge.Watch {
		go func() {
			err := fs.Watch(ctx, func() {
				if err := catalog.Reload(ctx); err != nil {
					slog.Error("faq file reload failed", "error", err)
				}
			})
			if err != nil {
				slog.Warn("faq file watcher unavailable", "error", err)
			}
		}()
	}
	if cfg.Knowledge.Refresh != "" {
		if err := catalog.StartRefresh(ctx, cfg.Knowledge.Refresh); err != nil {
			return err
		}
	}

	if stopWatch := watchConfig(cfg, responder, catalog, server); stopWatch != nil {
		defer stopWatch()
	}

	if stopChannels := startChannels(ctx, cfg, responder, catalog); stopChannels != nil {
		defer stopChannels()
	}

	if stopTS := initTailscale(ctx, cfg, server.Handler()); stopTS != nil {
		defer stopTS()
	}

	slog.Info("faqclaw starting", "version", Version, "entries", catalog.Len(), "source", cfg.Knowledge.Source)
	err = server.Start(ctx)
	// Channels and watchers wind down on ctx, which a listen error leaves open.
	stop()
	return err
}

// watchConfig applies matcher, reply, filter and log changes from the
// config file without a restart.
func watchConfig(cfg *config.Config, responder *chat.Responder, catalog *faq.Catalog, server *gateway.Server) func() {
	w, err := config.NewWatcher(resolveConfigPath(), cfg)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
		return nil
	}
	w.OnChange(func(ch config.Change) {
		if ch.Log {
			setupLogger(os.Stderr, ch.New.Log)
		}
		if ch.Match || ch.Replies {
			if err := responder.UpdateOptions(responderOptions(ch.New)); err != nil {
				slog.Error("config reload: matcher options rejected", "error", err)
				return
			}
		}
		if ch.Filter {
			if err := catalog.SetFilter(ch.New.Knowledge.Filter); err != nil {
				slog.Error("config reload: filter rejected", "error", err)
			} else if err := catalog.Reload(context.Background()); err != nil {
				slog.Error("config reload: catalog reload failed", "error", err)
			}
		}
		server.BroadcastEvent(protocol.EventConfigReloaded, nil)
	})
	if err := w.Start(); err != nil {
		slog.Warn("config watcher unavailable", "error", err)
		return nil
	}
	return w.Stop
}

// startChannels registers the enabled chat channels and the dispatcher
// that answers them.
func startChannels(ctx context.Context, cfg *config.Config, responder *chat.Responder, catalog *faq.Catalog) func() {
	if !cfg.Channels.AnyEnabled() {
		return nil
	}
	msgBus := bus.New()
	mgr := channels.NewManager(msgBus)

	if tc := cfg.Channels.Telegram; tc.Enabled {
		if ch, err := telegram.New(tc, msgBus, catalog.Topics); err != nil {
			slog.Error("telegram channel disabled", "error", err)
		} else {
			mgr.Register(ch)
		}
	}
	if dc := cfg.Channels.Discord; dc.Enabled {
		if ch, err := discord.New(dc, msgBus); err != nil {
			slog.Error("discord channel disabled", "error", err)
		} else {
			mgr.Register(ch)
		}
	}
	if sc := cfg.Channels.Slack; sc.Enabled {
		if ch, err := slack.New(sc, msgBus); err != nil {
			slog.Error("slack channel disabled", "error", err)
		} else {
			mgr.Register(ch)
		}
	}
	if len(mgr.Names()) == 0 {
		return nil
	}

	if err := mgr.StartAll(ctx); err != nil {
		slog.Warn("some channels failed to start", "error", err)
	}
	dispatcher := channels.NewDispatcher(msgBus, responder, time.Duration(cfg.Channels.DebounceMs)*time.Millisecond)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Run(ctx)
	}()

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.StopAll(stopCtx)
		<-done
	}
}
