package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/domain/entities"
)

func newMatchesCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "matches <memorial-id>",
		Short: "Find likely relatives of a memorial",
		Long: `Scores approved memorials by other creators against the given memorial on
name, lifespan, place and story, and prints those above the threshold.
Nothing is stored; use "memora suggestions generate" for that.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				if !cmd.Flags().Changed("limit") && d.Config.Matching.Limit > 0 {
					limit = d.Config.Matching.Limit
				}
				matches, err := d.Matching.FindMatches(cmd.Context(), args[0], limit)
				if err != nil {
					return fmt.Errorf("finding matches: %w", err)
				}
				if format == "json" {
					return writeJSON(os.Stdout, matches)
				}
				if len(matches) == 0 {
					fmt.Println("No matches found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SCORE\tID\tNAME\tREASONS")
				for _, m := range matches {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
						m.Score, m.Memorial.ID, m.Memorial.FullName, strings.Join(m.Reasons, "; "))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 5, "Maximum number of matches")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json")

	return cmd
}

func newSuggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "suggestions",
		Aliases: []string{"sug"},
		Short:   "Manage smart match suggestions",
	}

	cmd.AddCommand(
		newSuggestionsListCmd(),
		newSuggestionsGenerateCmd(),
		newSuggestionsAcceptCmd(),
		newSuggestionsDismissCmd(),
		newSuggestionsArchiveCmd(),
	)
	return cmd
}

func newSuggestionsListCmd() *cobra.Command {
	var status, format string

	cmd := &cobra.Command{
		Use:   "list <memorial-id>",
		Short: "List suggestions for a memorial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				sugs, err := d.SuggestionHandler.HandleList(cmd.Context(), args[0], status)
				if err != nil {
					return fmt.Errorf("listing suggestions: %w", err)
				}
				if format == "json" {
					return writeJSON(os.Stdout, sugs)
				}
				return writeSuggestions(sugs)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, accepted, dismissed, archived")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json")
	return cmd
}

func writeSuggestions(sugs []entities.Suggestion) error {
	if len(sugs) == 0 {
		fmt.Println("No suggestions found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSUGGESTED\tSTATUS\tREASONS")
	for _, s := range sugs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			s.ConfidenceScore, s.SuggestedMemorialID, s.Status, strings.Join(s.Reasons, "; "))
	}
	return w.Flush()
}

func newSuggestionsGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <memorial-id>",
		Short: "Run matching and store new suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				created, err := d.Suggestions.Generate(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("generating suggestions: %w", err)
				}
				fmt.Printf("Created %d suggestion(s)\n", len(created))
				return writeSuggestions(created)
			})
		},
	}
}

func newSuggestionsAcceptCmd() *cobra.Command {
	var relType string

	cmd := &cobra.Command{
		Use:   "accept <memorial-id> <suggested-id>",
		Short: "Accept a suggestion",
		Long: `Marks a suggestion accepted. With --as the matching relationship is
proposed as well.

Example:
  memora suggestions accept <john-id> <jon-id> --as sibling`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.SuggestionHandler.HandleAccept(cmd.Context(), args[0], args[1], relType, user)
				if err != nil {
					return fmt.Errorf("accepting suggestion: %w", err)
				}
				fmt.Printf("Accepted suggestion %s\n", res.Suggestion.ID)
				if res.Relationship != nil {
					printSuggestResult(res.Relationship)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&relType, "as", "", "Also propose a relationship of this type")
	return cmd
}

func newSuggestionsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <memorial-id> <suggested-id>",
		Short: "Dismiss a suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				sug, err := d.Suggestions.Dismiss(cmd.Context(), args[0], args[1], user)
				if err != nil {
					return fmt.Errorf("dismissing suggestion: %w", err)
				}
				fmt.Printf("Dismissed suggestion %s\n", sug.ID)
				return nil
			})
		},
	}
}

func newSuggestionsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <memorial-id>",
		Short: "Archive every pending suggestion of a memorial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				n, err := d.Suggestions.ArchiveAll(cmd.Context(), args[0], user)
				if err != nil {
					return fmt.Errorf("archiving suggestions: %w", err)
				}
				fmt.Printf("Archived %d suggestion(s)\n", n)
				return nil
			})
		},
	}
}

func newRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate suggestions for every approved memorial",
		Long:  "Runs matching for all approved memorials with matching.workers jobs in parallel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Scheduler.RegenerateAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("regenerating suggestions: %w", err)
				}
				fmt.Printf("Processed %d memorial(s), created %d suggestion(s)\n", res.Memorials, res.Created)
				return nil
			})
		},
	}
}
