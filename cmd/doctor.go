package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, knowledge base and channel health",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			runDoctor(ctx, os.Stdout)
		},
	}
}

func runDoctor(ctx context.Context, w io.Writer) {
	fmt.Fprintln(w, "faqclaw doctor")
	fmt.Fprintf(w, "  Version:  %s (protocol %d)\n", Version, protocol.ProtocolVersion)
	fmt.Fprintf(w, "  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Go:       %s\n", runtime.Version())
	fmt.Fprintln(w)

	cfgPath := resolveConfigPath()
	fmt.Fprintf(w, "  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Fprintln(w, " (NOT FOUND, using defaults)")
	} else {
		fmt.Fprintln(w, " (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(w, "  Config load error: %s\n", err)
		return
	}

	// Knowledge base
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Knowledge base:")
	source := cfg.Knowledge.Source
	if source == "" {
		source = "file"
	}
	fmt.Fprintf(w, "    %-12s %s\n", "Source:", source)
	if cfg.Knowledge.Path != "" {
		fmt.Fprintf(w, "    %-12s %s\n", "Path:", cfg.Knowledge.Path)
	}
	catalog, s, err := openCatalog(ctx, cfg, true)
	if err != nil {
		fmt.Fprintf(w, "    %-12s FAILED: %s\n", "Load:", err)
	} else {
		fmt.Fprintf(w, "    %-12s %d entries\n", "Load:", catalog.Len())
		s.Close()
	}
	if cfg.Knowledge.Filter != "" {
		fmt.Fprintf(w, "    %-12s %s\n", "Filter:", cfg.Knowledge.Filter)
	}
	if cfg.Knowledge.Refresh != "" {
		fmt.Fprintf(w, "    %-12s %s\n", "Refresh:", cfg.Knowledge.Refresh)
	}

	// Channels
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Channels:")
	ch := cfg.Channels
	checkChannel(w, "Telegram", ch.Telegram.Enabled, ch.Telegram.Token != "")
	checkChannel(w, "Discord", ch.Discord.Enabled, ch.Discord.Token != "")
	checkChannel(w, "Slack", ch.Slack.Enabled, ch.Slack.BotToken != "" && ch.Slack.AppToken != "")

	// Gateway
	fmt.Fprintln(w)
	addr := clientAddr(cfg.Gateway)
	fmt.Fprintf(w, "  Gateway:  %s", addr)
	if isGatewayRunning(addr) {
		fmt.Fprintln(w, " (running)")
	} else {
		fmt.Fprintln(w, " (not running)")
	}
	if cfg.Gateway.Token == "" {
		fmt.Fprintln(w, "  Warning:  gateway.token is empty, clients are not authenticated")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor check complete.")
}

func checkChannel(w io.Writer, name string, enabled, hasCredentials bool) {
	status := "disabled"
	if enabled && hasCredentials {
		status = "enabled"
	} else if enabled {
		status = "enabled (missing credentials)"
	}
	fmt.Fprintf(w, "    %-12s %s\n", name+":", status)
}
