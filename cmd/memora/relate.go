package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/application/handlers"
	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/services"
)

func relationTypeNames() string {
	names := make([]string, len(entities.RelationTypes))
	for i, t := range entities.RelationTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func newRelateCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "relate <memorial-a> <type> <memorial-b>",
		Short: "Propose a relationship between two memorials",
		Long: `Proposes that memorial-a is <type> of memorial-b. You must own one of the
two memorials. When both share a creator the edge is approved immediately;
otherwise the other creator is asked to approve it.

Valid types: ` + relationTypeNames() + `

Examples:
  memora relate <john-id> parent <mary-id>
  memora relate <john-id> spouse <jane-id> --note "Married 1975"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.RelationshipHandler.HandleSuggest(cmd.Context(), handlers.SuggestRequest{
					PersonAID: args[0],
					Type:      args[1],
					PersonBID: args[2],
					Note:      note,
				}, user)
				if err != nil {
					return fmt.Errorf("proposing relationship: %w", err)
				}
				printSuggestResult(res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note for the other creator")

	cmd.AddCommand(
		newRelateDecideCmd("approve", "Approve a pending relationship"),
		newRelateDecideCmd("reject", "Reject a pending relationship"),
		newRelatePendingCmd(),
	)
	return cmd
}

func printSuggestResult(res *handlers.SuggestResult) {
	rel := res.Relationship
	if !res.Created {
		fmt.Printf("Relationship already exists: %s (%s)\n", rel.ID, rel.Status)
		return
	}
	fmt.Printf("Created relationship %s: %s is %s of %s [%s, %s]\n",
		rel.ID, rel.PersonAID, rel.Type.Label(), rel.PersonBID, rel.Status, rel.Verification.Badge())
}

func newRelateDecideCmd(decision, short string) *cobra.Command {
	return &cobra.Command{
		Use:   decision + " <relationship-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				rel, err := d.RelationshipHandler.HandleDecide(cmd.Context(), args[0], decision, user)
				if err != nil {
					return fmt.Errorf("%s relationship: %w", decision, err)
				}
				fmt.Printf("Relationship %s is now %s\n", rel.ID, rel.Status)
				return nil
			})
		},
	}
}

func newRelatePendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List relationships waiting for your approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				pending, err := d.RelationshipHandler.HandlePending(cmd.Context(), user)
				if err != nil {
					return fmt.Errorf("listing pending relationships: %w", err)
				}
				if len(pending) == 0 {
					fmt.Println("No pending relationships.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tFROM\tTYPE\tTO\tNOTE")
				for _, rel := range pending {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						rel.ID, rel.PersonAID, rel.Type, rel.PersonBID, truncate(rel.Note, 40))
				}
				return w.Flush()
			})
		},
	}
}

type relationsFlags struct {
	relType string
	status  string
	format  string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations <memorial-id>",
		Short: "List a memorial's relatives",
		Long: `Shows every relative of a memorial, labelled from its point of view.

Examples:
  memora relations <john-id>
  memora relations <john-id> --type sibling
  memora relations <john-id> --status pending --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flags.format); err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				neighbors, err := d.RelationshipHandler.HandleList(cmd.Context(), args[0], handlers.ListOptions{
					Status: flags.status,
					Type:   flags.relType,
				})
				if err != nil {
					return fmt.Errorf("listing relationships: %w", err)
				}
				if flags.format == "json" {
					return writeJSON(os.Stdout, neighbors)
				}
				if len(neighbors) == 0 {
					fmt.Printf("No relationships found for memorial: %s\n", args[0])
					return nil
				}
				return writeNeighbors(neighbors)
			})
		},
	}

	cmd.Flags().StringVar(&flags.relType, "type", "", "Filter by relationship label")
	cmd.Flags().StringVar(&flags.status, "status", "", "Edge status: approved (default), pending, rejected")
	cmd.Flags().StringVar(&flags.format, "format", "table", "Output format: table, json")

	return cmd
}

func writeNeighbors(neighbors []services.Neighbor) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RELATIVE\tNAME\tLIFESPAN\tVERIFIED")
	for _, n := range neighbors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			n.Label.Label(), n.Memorial.FullName,
			lifespan(n.Memorial.BirthYear(), n.Memorial.DeathYear()),
			n.Relationship.Verification.Badge())
	}
	return w.Flush()
}
