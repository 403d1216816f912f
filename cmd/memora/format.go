package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ersonp/memora/internal/domain/entities"
)

func validateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("invalid format: %s (valid: table, json)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// lifespan renders "1950-2020", "b. 1950", "d. 2020" or "".
func lifespan(birth, death int) string {
	switch {
	case birth != 0 && death != 0:
		return fmt.Sprintf("%d-%d", birth, death)
	case birth != 0:
		return "b. " + strconv.Itoa(birth)
	case death != 0:
		return "d. " + strconv.Itoa(death)
	default:
		return ""
	}
}

func writeMemorialTable(w io.Writer, memorials []*entities.Memorial) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLIFESPAN\tCOUNTRY\tAPPROVED")
	for _, m := range memorials {
		approved := "no"
		if m.Approved {
			approved = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, truncate(m.FullName, 40), lifespan(m.BirthYear(), m.DeathYear()), m.Country, approved)
	}
	return tw.Flush()
}

// writeTree renders a family tree as an indented outline.
func writeTree(w io.Writer, root *entities.TreeNode) {
	root.Walk(func(n *entities.TreeNode, depth int) {
		line := strings.Repeat("  ", depth) + n.Name
		if span := lifespan(n.BirthYear, n.DeathYear); span != "" {
			line += " (" + span + ")"
		}
		if n.RelationshipLabel != "" {
			line += " [" + n.RelationshipLabel + "]"
		}
		fmt.Fprintln(w, line)
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
