// memora-lint runs memora's custom static analyzers.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/memora/tools/memora-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
