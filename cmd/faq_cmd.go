package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/internal/store/file"
	"github.com/nextlevelbuilder/faqclaw/internal/store/open"
)

func faqCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "List and edit knowledge base entries",
	}
	cmd.AddCommand(faqListCmd())
	cmd.AddCommand(faqAddCmd())
	cmd.AddCommand(faqRemoveCmd())
	cmd.AddCommand(faqImportCmd())
	cmd.AddCommand(faqExportCmd())
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(s store.FAQStore) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := open.Store(ctx, cfg.Knowledge.StoreConfig())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func faqListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s store.FAQStore) error {
				entries, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					data, _ := json.MarshalIndent(entries, "", "  ")
					fmt.Println(string(data))
					return nil
				}
				if len(entries) == 0 {
					fmt.Println("No entries found.")
					return nil
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "ID\tCATEGORY\tQUESTION\n")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Category, runewidth.Truncate(e.Question, 60, "..."))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func faqAddCmd() *cobra.Command {
	var (
		answer   string
		category string
		tags     []string
	)
	cmd := &cobra.Command{
		Use:   "add <question>",
		Short: "Add an entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := &store.FAQEntry{
				Question: strings.Join(args, " "),
				Answer:   answer,
				Category: category,
				Tags:     tags,
			}
			return withStore(cmd.Context(), func(s store.FAQStore) error {
				if err := s.Put(cmd.Context(), e); err != nil {
					return err
				}
				fmt.Printf("Added entry %s\n", e.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "answer text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}

func faqRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry by ID",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[0], err)
			}
			return withStore(cmd.Context(), func(s store.FAQStore) error {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Removed entry %s\n", id)
				return nil
			})
		},
	}
}

// replacer is implemented by stores that can overwrite their whole content.
type replacer interface {
	ReplaceAll(ctx context.Context, entries []store.FAQEntry) error
}

func faqImportCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from a JSON5 or YAML document",
		Long: `Import entries into the configured store. Entries whose ID already
exists are replaced in place; the rest are appended. With --replace the
store content is overwritten (file source only).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := file.Decode(data, file.FormatFromPath(args[0]))
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(s store.FAQStore) error {
				n, err := importEntries(cmd.Context(), s, entries, replace)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d entries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite the store instead of merging")
	return cmd
}

func importEntries(ctx context.Context, s store.FAQStore, entries []store.FAQEntry, replace bool) (int, error) {
	if replace {
		r, ok := s.(replacer)
		if !ok {
			return 0, fmt.Errorf("--replace is only supported by the file source")
		}
		if err := r.ReplaceAll(ctx, entries); err != nil {
			return 0, err
		}
		return len(entries), nil
	}
	for i := range entries {
		if err := s.Put(ctx, &entries[i]); err != nil {
			return i, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}

func faqExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s store.FAQStore) error {
				entries, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				format := file.FormatJSON
				if output != "" {
					format = file.FormatFromPath(output)
				}
				data, err := file.Encode(entries, format)
				if err != nil {
					return err
				}
				if output == "" {
					_, err = os.Stdout.Write(data)
					return err
				}
				if err := file.WriteFileAtomic(output, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", len(entries), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json or .yaml); stdout if empty")
	return cmd
}
