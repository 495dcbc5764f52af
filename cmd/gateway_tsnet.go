//go:build tsnet

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

// initTailscale starts an additional Tailscale listener alongside the main
// gateway, sharing its handler. Only compiled with -tags tsnet.
func initTailscale(ctx context.Context, cfg *config.Config, handler http.Handler) func() {
	tc := cfg.Tailscale
	if tc.Hostname == "" {
		slog.Debug("Tailscale available but not configured (set tailscale.hostname or FAQCLAW_TSNET_HOSTNAME)")
		return nil
	}

	srv := &tsnet.Server{
		Hostname:  tc.Hostname,
		AuthKey:   tc.AuthKey,
		Ephemeral: tc.Ephemeral,
	}
	if tc.StateDir != "" {
		srv.Dir = config.ExpandHome(tc.StateDir)
	}

	var (
		ln   net.Listener
		err  error
		port = ":80"
	)
	if tc.EnableTLS {
		ln, err = srv.ListenTLS("tcp", ":443")
		port = ":443 (TLS)"
	} else {
		ln, err = srv.Listen("tcp", ":80")
	}
	if err != nil {
		slog.Warn("Tailscale listener failed to start", "error", err)
		srv.Close()
		return nil
	}
	slog.Info("Tailscale listener started", "hostname", tc.Hostname, "port", port)

	httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Tailscale HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	return func() {
		httpSrv.Close()
		ln.Close()
		srv.Close()
		slog.Info("Tailscale listener stopped")
	}
}
