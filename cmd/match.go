package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
)

var (
	bestStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3fb950"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
)

func matchCmd() *cobra.Command {
	var (
		threshold float64
		limit     int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "match <query>",
		Short: "Rank knowledge base entries against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 100 {
				return fmt.Errorf("--threshold must be within [0, 100]")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			responder, _, s, err := openResponder(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := responder.Match(cmd.Context(), strings.Join(args, " "), threshold, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Println(renderMatchTable(res, 60))
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "match threshold (0 uses the configured value)")
	cmd.Flags().IntVar(&limit, "limit", 10, "max results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// renderMatchTable formats a ranking. Questions wider than width terminal
// cells are truncated.
func renderMatchTable(res chat.MatchResult, width int) string {
	if len(res.Results) == 0 {
		return mutedStyle.Render("No entries in the knowledge base.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SCORE", "QUESTION", "CATEGORY")
	for i, r := range res.Results {
		rank := strconv.Itoa(i + 1)
		if res.Best != nil && r.Index == res.Best.Index {
			rank += "*"
		}
		t.Row(rank, fmt.Sprintf("%.2f", r.Score), runewidth.Truncate(r.Entry.Question, width, "…"), r.Entry.Category)
	}

	var sb strings.Builder
	sb.WriteString(t.String())
	sb.WriteString("\n")
	if res.Best != nil {
		sb.WriteString(bestStyle.Render(fmt.Sprintf("* best match above threshold %g", res.Threshold)))
	} else {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("no entry scored above threshold %g", res.Threshold)))
	}
	return sb.String()
}
