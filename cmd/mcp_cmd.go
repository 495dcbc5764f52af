package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the knowledge base as MCP tools over stdio",
		Long: `Run an MCP server on stdin/stdout exposing two tools:
  faq_match   rank entries against a query
  faq_answer  answer a question the way the chat channels do

Logs go to stderr so they do not corrupt the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			responder, _, s, err := openResponder(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()
			return mcp.ServeStdio(mcp.NewServer(responder, Version))
		},
	}
}
