// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"idlbind/internal/engine/classify"
	"idlbind/internal/engine/symtab"
)

type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

// Symbols renders one row per bound name. Unresolved aliases keep an empty
// Canonical column.
func (t *TSVGenerator) Symbols(records []symtab.Record) (string, error) {
	var buf strings.Builder

	buf.WriteString("Path\tKind\tVisibility\tCanonical\tFile\tLine\n")
	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%d\n",
			rec.Path, rec.Kind, rec.Visibility(), rec.Canonical, rec.File, rec.Line))
	}
	return buf.String(), nil
}

// BoundaryTypes renders the classified payload types in id order.
func (t *TSVGenerator) BoundaryTypes(types []classify.BoundaryType) (string, error) {
	var buf strings.Builder

	buf.WriteString("ID\tType\n")
	for i, bt := range types {
		if bt.ID != i {
			return "", fmt.Errorf("boundary type %q has id %d at position %d", bt.Key, bt.ID, i)
		}
		buf.WriteString(fmt.Sprintf("%d\t%s\n", bt.ID, bt.Key))
	}
	return buf.String(), nil
}
