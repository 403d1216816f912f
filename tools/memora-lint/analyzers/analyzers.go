// Package analyzers collects memora's custom static analyzers.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/memora/tools/memora-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
	}
}
