package output

import (
	"fmt"
	"strings"

	"idlbind/internal/engine/syntax"
)

// InterfaceView is one interface in the two forms downstream generators
// consume.
type InterfaceView struct {
	Path      string // canonical path of the trait, e.g. crate::pci::Pci
	Canonical *syntax.TraitDecl
	Rewritten *syntax.TraitDecl
}

type RustGenerator struct {
	from, to string
}

func NewRustGenerator(from, to string) *RustGenerator {
	return &RustGenerator{from: from, to: to}
}

// Generate prints every interface canonically and then with its leading
// qualifier rewritten, each under a comment naming its source path.
func (g *RustGenerator) Generate(views []InterfaceView) (string, error) {
	var buf strings.Builder
	buf.WriteString("// Interface declarations with canonical type paths.\n")
	buf.WriteString(fmt.Sprintf("// Rewritten copies map %s:: to %s::.\n", g.from, g.to))

	for _, v := range views {
		if v.Canonical == nil || v.Rewritten == nil {
			return "", fmt.Errorf("interface %s is missing a rendered form", v.Path)
		}
		buf.WriteString(fmt.Sprintf("\n// %s (canonical)\n", v.Path))
		buf.WriteString(syntax.FormatTrait(v.Canonical))
		buf.WriteString(fmt.Sprintf("\n// %s (%s)\n", v.Path, g.to))
		buf.WriteString(syntax.FormatTrait(v.Rewritten))
	}
	return buf.String(), nil
}
