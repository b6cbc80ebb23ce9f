// Package rewrite swaps the leading qualifier of type paths in a cloned
// interface declaration. No resolution happens here.
package rewrite

import "idlbind/internal/engine/syntax"

// Trait returns a deep copy of d in which every type path whose first
// segment is from starts with to instead.
func Trait(d *syntax.TraitDecl, from, to string) *syntax.TraitDecl {
	out := syntax.CloneTrait(d)
	for _, m := range out.Methods {
		for _, p := range m.Params {
			rewriteInPlace(p.Type, from, to)
		}
		rewriteInPlace(m.Result, from, to)
	}
	return out
}

// Type returns a rewritten deep copy of t.
func Type(t syntax.Type, from, to string) syntax.Type {
	out := syntax.CloneType(t)
	rewriteInPlace(out, from, to)
	return out
}

func rewriteInPlace(t syntax.Type, from, to string) {
	syntax.Inspect(t, func(node syntax.Type) bool {
		switch n := node.(type) {
		case *syntax.PathType:
			rewritePath(n, from, to)
			for _, seg := range n.Segments {
				for _, arg := range seg.Args {
					if arg.Const != nil && arg.Const.Path != nil {
						rewritePath(arg.Const.Path, from, to)
					}
				}
			}
		case *syntax.ArrayType:
			if n.Len != nil && n.Len.Path != nil {
				rewritePath(n.Len.Path, from, to)
			}
		}
		return true
	})
}

func rewritePath(p *syntax.PathType, from, to string) {
	if p.Leading || len(p.Segments) == 0 {
		return
	}
	if p.Segments[0].Name == from {
		p.Segments[0].Name = to
	}
}
