package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/domain/services"
)

func newMemorialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memorials",
		Aliases: []string{"memorial", "m"},
		Short:   "Manage memorials",
	}

	cmd.AddCommand(
		newMemorialsAddCmd(),
		newMemorialsListCmd(),
		newMemorialsShowCmd(),
		newMemorialsApproveCmd(),
	)
	return cmd
}

type addFlags struct {
	input   services.MemorialInput
	approve bool
}

func newMemorialsAddCmd() *cobra.Command {
	var flags addFlags

	cmd := &cobra.Command{
		Use:   "add <full-name>",
		Short: "Create a memorial",
		Long: `Creates a memorial owned by --user. New memorials are unapproved unless
--approve is given.

Examples:
  memora memorials add "John Smith" --born 1950-01-01 --died 2020-03-04 --country US
  memora memorials add "Jane Doe" --country CA --region Ontario --approve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			flags.input.FullName = args[0]
			flags.input.Approved = flags.approve

			return withDeps(cmd.Context(), func(d *Deps) error {
				m, err := d.Memorials.Create(cmd.Context(), flags.input, user)
				if err != nil {
					return fmt.Errorf("creating memorial: %w", err)
				}
				fmt.Printf("Created memorial %s (%s)\n", m.ID, m.FullName)
				if !m.Approved {
					fmt.Println("Pending approval.")
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.input.DateOfBirth, "born", "", "Date of birth (YYYY-MM-DD)")
	f.StringVar(&flags.input.DateOfDeath, "died", "", "Date of death (YYYY-MM-DD)")
	f.StringVar(&flags.input.Country, "country", "", "Country")
	f.StringVar(&flags.input.Region, "region", "", "State, province or other region")
	f.StringVar(&flags.input.Biography, "bio", "", "Biography or life story")
	f.StringVar(&flags.input.ImageRef, "image", "", "Image reference")
	f.BoolVar(&flags.approve, "approve", false, "Publish immediately")

	return cmd
}

type listFlags struct {
	mine   bool
	all    bool
	limit  int
	offset int
	format string
}

func newMemorialsListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memorials",
		Long:  "Lists approved memorials. --mine lists your own memorials, approved or not.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(flags.format); err != nil {
				return err
			}
			filter := ports.MemorialFilter{
				ApprovedOnly: !flags.all,
				Limit:        flags.limit,
				Offset:       flags.offset,
			}
			if flags.mine {
				user, err := requireUser()
				if err != nil {
					return err
				}
				filter.CreatedBy = user
				filter.ApprovedOnly = false
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				memorials, err := d.Memorials.List(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("listing memorials: %w", err)
				}
				if flags.format == "json" {
					return writeJSON(os.Stdout, memorials)
				}
				if len(memorials) == 0 {
					fmt.Println("No memorials found.")
					return nil
				}
				return writeMemorialTable(os.Stdout, memorials)
			})
		},
	}

	cmd.Flags().BoolVar(&flags.mine, "mine", false, "Only memorials created by --user")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Include unapproved memorials")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultListLimit, "Maximum number of memorials")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Number of memorials to skip")
	cmd.Flags().StringVar(&flags.format, "format", "table", "Output format: table, json")

	return cmd
}

func newMemorialsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <memorial-id>",
		Short: "Show a memorial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				m, err := d.Memorials.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(os.Stdout, m)
			})
		},
	}
}

func newMemorialsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <memorial-id>",
		Short: "Approve a memorial (admin)",
		Long: "Publishes a memorial so it takes part in relationships, trees and matching. " +
			"Match generation for it starts in the background.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				m, err := d.Memorials.Approve(cmd.Context(), args[0], globalUser)
				if err != nil {
					return fmt.Errorf("approving memorial: %w", err)
				}
				fmt.Printf("Approved memorial %s (%s)\n", m.ID, m.FullName)
				return nil
			})
		},
	}
}
