package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memorial life stories",
		Long: `Finds approved memorials whose biographies are closest in meaning to the
query. Requires OPENAI_API_KEY and a running Qdrant.

Examples:
  memora search "served as a nurse in the war"
  memora search "fisherman from Nova Scotia" --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withDeps(cmd.Context(), func(d *Deps) error {
				results, err := d.Search.Search(cmd.Context(), query, limit)
				if err != nil {
					return fmt.Errorf("searching stories: %w", err)
				}
				if len(results) == 0 {
					fmt.Println("No results found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SCORE\tID\tNAME\tBIOGRAPHY")
				for _, r := range results {
					fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
						r.Score, r.Memorial.ID, r.Memorial.FullName, truncate(r.Memorial.Biography, 60))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	cmd.AddCommand(newReindexCmd())
	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed every approved memorial's story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				n, err := d.Search.Reindex(cmd.Context())
				if err != nil {
					return fmt.Errorf("reindexing stories: %w", err)
				}
				fmt.Printf("Indexed %d memorial(s)\n", n)
				return nil
			})
		},
	}
}
