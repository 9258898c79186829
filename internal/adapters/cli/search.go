package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

const snippetRunes = 160

func newSearchCommand(services Services, opts *options) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank indexed chunks against a query",
		Long: `Scores chunks by word-set Jaccard similarity.
With --project only that project is searched; otherwise every project the
owner holds contributes its best matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("top-k") && opts.project == "" {
				return errors.New("--top-k requires --project")
			}
			if topK <= 0 {
				topK = services.TopK
			}
			var (
				results []domain.RetrievalResult
				err     error
			)
			if opts.project != "" {
				results, err = services.Searcher.SearchProject(cmd.Context(), args[0], opts.owner, opts.project, topK)
			} else {
				results, err = services.Searcher.SearchAll(cmd.Context(), args[0], opts.owner)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, results)
			}
			printResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "restrict the search to one project id")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "maximum results, requires --project")
	return cmd
}

func printResults(cmd *cobra.Command, results []domain.RetrievalResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Metadata.SourceName(), r.Similarity)
		cmd.Printf("      %s\n", snippet(r.Content))
	}
}

func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= snippetRunes {
		return content
	}
	return string(runes[:snippetRunes]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
