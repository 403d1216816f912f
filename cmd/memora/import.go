package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/application/handlers"
)

type importFlags struct {
	format     string
	dryRun     bool
	approveAll bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import memorials from JSON or CSV",
		Long: `Imports memorials owned by --user from a structured file. Rows matching an
existing memorial of yours (same name and dates) are skipped.

CSV columns: full_name (required), date_of_birth, date_of_death, country,
region, biography, image_ref, approved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().BoolVar(&flags.approveAll, "approve", false, "Publish every imported memorial (admin)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, filePath, user, handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			ApproveAll: flags.approveAll,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d memorials would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d memorials", result.Imported)
		}
		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (already exist)", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}
		fmt.Println()

		return nil
	})
}
