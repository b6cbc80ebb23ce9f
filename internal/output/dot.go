// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"idlbind/internal/engine/symtab"
)

type DOTGenerator struct {
	tree *symtab.Tree
}

func NewDOTGenerator(t *symtab.Tree) *DOTGenerator {
	return &DOTGenerator{tree: t}
}

// Generate renders the module tree. Public modules are solid, private ones
// dashed; each label carries the number of names bound in the module.
func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")

	modules := d.tree.Modules()
	for _, m := range modules {
		style := "rounded"
		if entry := d.tree.ModuleEntry(m.ID); entry != nil && !entry.Public {
			style = "rounded,dashed"
		}
		label := fmt.Sprintf("%s\\n(%d names)", m.Name, m.Declared())
		buf.WriteString(fmt.Sprintf("  %q [label=%q, style=%q];\n", m.PathString(), label, style))
	}
	buf.WriteString("\n")

	for _, m := range modules {
		for _, child := range m.Children {
			buf.WriteString(fmt.Sprintf("  %q -> %q;\n", m.PathString(), d.tree.Module(child).PathString()))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
