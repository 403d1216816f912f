// Package loopcall reports single-record store and embedder lookups made
// inside loops where a batch variant exists.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports per-item lookups inside loops.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "reports single-record graph store and embedder calls inside loops that have a batch variant",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// batchAlternatives maps a per-item method to the batch method to use instead.
var batchAlternatives = map[string]string{
	"FindMemorialByID": "FindMemorialsByIDs",
	"Embed":            "EmbedBatch",
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	loops := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	insp.Preorder(loops, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Goroutines started in a loop run concurrently; not our concern.
			if _, ok := n.(*ast.GoStmt); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if batch, ok := batchAlternatives[sel.Sel.Name]; ok {
				pass.Reportf(call.Pos(), "%s called inside loop: use %s", sel.Sel.Name, batch)
			}
			return true
		})
	})

	return nil, nil
}
