package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var (
		depth  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree <memorial-id>",
		Short: "Show a family tree",
		Long: `Builds the family tree rooted at a memorial from approved relationships.
Each relative appears once, under its closest connection.

Examples:
  memora tree <john-id>
  memora tree <john-id> --depth 1 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 0 {
				return errors.New("depth must not be negative")
			}
			if format != "tree" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid: tree, json)", format)
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				if !cmd.Flags().Changed("depth") && d.Config.Tree.MaxDepth > 0 {
					depth = d.Config.Tree.MaxDepth
				}
				root, err := d.Tree.Build(cmd.Context(), args[0], depth)
				if err != nil {
					return fmt.Errorf("building tree: %w", err)
				}
				if format == "json" {
					return writeJSON(os.Stdout, root)
				}
				writeTree(os.Stdout, root)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 3, "Generations to traverse (0 = root only)")
	cmd.Flags().StringVar(&format, "format", "tree", "Output format: tree, json")

	return cmd
}
