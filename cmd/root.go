// Package cmd implements the faqclaw command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "0.1.0-dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "faqclaw",
	Short: "FAQ answering gateway: fuzzy question matching over HTTP, WebSocket and chat channels",
	Long: `faqclaw answers user questions from a knowledge base of FAQ entries.
Questions are matched with a combined edit-distance and keyword-overlap score.

Running faqclaw without a subcommand starts the gateway (same as "faqclaw serve").`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $FAQCLAW_CONFIG or "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(faqCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(onboardCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	return config.ResolvePath(cfgFile)
}

// loadConfig loads the config and installs the logger it describes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	setupLogger(os.Stderr, cfg.Log)
	return cfg, nil
}

// setupLogger installs the default slog logger. --verbose forces debug.
func setupLogger(w io.Writer, lc config.LogConfig) {
	slog.SetDefault(slog.New(newLogHandler(w, lc, verbose)))
}

func newLogHandler(w io.Writer, lc config.LogConfig, debug bool) slog.Handler {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the faqclaw version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("faqclaw %s\n", Version)
		},
	}
}
