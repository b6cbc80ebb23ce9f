// Package classify finds the types that cross an isolation boundary in
// interface signatures and numbers them in discovery order.
package classify

import (
	"log/slog"
	"strings"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/resolver"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
)

// DefaultWrappers are the boundary-transfer marker wrappers used when none are
// configured.
var DefaultWrappers = []string{"rref::RRef"}

// BoundaryType is one distinct payload type, in canonical form. ID is its
// 0-based discovery index; Key is the canonical rendering used for equality.
type BoundaryType struct {
	ID   int
	Type syntax.Type
	Key  string
}

// Classifier walks interface signatures of a resolved tree.
type Classifier struct {
	res      *resolver.Resolver
	wrappers []string

	index map[string]int
	found []BoundaryType
}

// NewClassifier returns a classifier recognizing the given wrappers. A
// wrapper is a canonical path such as "rref::RRef", or a bare name that
// matches any path ending in it.
func NewClassifier(res *resolver.Resolver, wrappers []string) *Classifier {
	if len(wrappers) == 0 {
		wrappers = DefaultWrappers
	}
	return &Classifier{
		res:      res,
		wrappers: append([]string(nil), wrappers...),
		index:    make(map[string]int),
	}
}

// Classify is the convenience form of NewClassifier(...).Run().
func Classify(res *resolver.Resolver, wrappers []string) ([]BoundaryType, error) {
	return NewClassifier(res, wrappers).Run()
}

// Run classifies every interface in population order, method arguments
// before results. The first invalid type aborts the pass.
func (c *Classifier) Run() ([]BoundaryType, error) {
	for _, iface := range c.res.Tree().Interfaces() {
		if err := c.ClassifyInterface(iface); err != nil {
			return nil, err
		}
	}
	slog.Debug("boundary types classified", "count", len(c.found))
	return c.Result(), nil
}

// Result returns the boundary types found so far.
func (c *Classifier) Result() []BoundaryType {
	return append([]BoundaryType(nil), c.found...)
}

// ClassifyInterface classifies every method signature of one interface.
func (c *Classifier) ClassifyInterface(iface symtab.Interface) error {
	for _, m := range iface.Decl.Methods {
		scope := resolver.MethodScope(iface, m)
		for _, p := range m.Params {
			if err := c.classify(scope, p.Type); err != nil {
				return methodError(err, iface, m)
			}
		}
		if m.Result != nil {
			if err := c.classify(scope, m.Result); err != nil {
				return methodError(err, iface, m)
			}
		}
	}
	return nil
}

func (c *Classifier) classify(scope resolver.Scope, t syntax.Type) error {
	switch t := t.(type) {
	case *syntax.PathType:
		return c.classifyPath(scope, t)
	case *syntax.ArrayType:
		if _, err := c.res.CanonicalConst(scope, t.Len); err != nil {
			return invalid(err, t, "array length")
		}
		return c.classify(scope, t.Elem)
	case *syntax.TupleType:
		for _, elem := range t.Elems {
			if err := c.classify(scope, elem); err != nil {
				return err
			}
		}
		return nil
	case *syntax.TraitObjectType:
		if t.Impl {
			return unsupported(t, "impl trait types")
		}
		for _, bound := range t.Bounds {
			if _, err := c.res.ResolveTypePath(scope, bound); err != nil {
				return invalid(err, t, "trait object bound")
			}
			if err := c.classifyArgs(scope, bound); err != nil {
				return err
			}
		}
		return nil
	case *syntax.RefType:
		return unsupported(t, "references")
	case *syntax.PtrType:
		return unsupported(t, "raw pointers")
	case *syntax.FnType:
		return unsupported(t, "bare function types")
	case *syntax.SliceType:
		return unsupported(t, "unsized slices")
	case *syntax.NeverType:
		return unsupported(t, "the never type")
	case nil:
		return nil
	default:
		return unsupported(t, "this type form")
	}
}

func (c *Classifier) classifyPath(scope resolver.Scope, p *syntax.PathType) error {
	if scope.IsParameter(p) {
		return unsupported(p, "generic parameters and Self")
	}
	entry, err := c.res.ResolveTypePath(scope, p)
	if err != nil {
		return invalid(err, p, "type path")
	}
	switch entry.Kind {
	case symtab.KindModule:
		return unsupported(p, "module paths")
	case symtab.KindDefinition:
		if !entry.Def.Kind.IsType() {
			return unsupported(p, entry.Def.Kind.String()+" paths")
		}
	}

	if c.isWrapper(entry) {
		last := p.Last()
		if len(last.Args) != 1 || last.Args[0].Type == nil {
			return errors.Newf(errors.CodeInvalidTypeUsage, "%s takes exactly one type argument", p).
				WithContext(errors.CtxPath, p.String())
		}
		payload, err := c.res.CanonicalType(scope, last.Args[0].Type)
		if err != nil {
			return invalid(err, p, "wrapper payload")
		}
		c.register(payload)
	}
	return c.classifyArgs(scope, p)
}

func (c *Classifier) classifyArgs(scope resolver.Scope, p *syntax.PathType) error {
	for _, seg := range p.Segments {
		for _, arg := range seg.Args {
			if arg.Const != nil {
				if _, err := c.res.CanonicalConst(scope, arg.Const); err != nil {
					return invalid(err, p, "const argument")
				}
				continue
			}
			if err := c.classify(scope, arg.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Classifier) register(payload syntax.Type) {
	key := payload.String()
	if _, seen := c.index[key]; seen {
		return
	}
	id := len(c.found)
	c.index[key] = id
	c.found = append(c.found, BoundaryType{ID: id, Type: payload, Key: key})
	slog.Debug("boundary type discovered", "id", id, "type", key)
}

func (c *Classifier) isWrapper(entry *symtab.Entry) bool {
	canonical := entry.CanonicalString()
	last := ""
	if n := len(entry.Canonical); n > 0 {
		last = entry.Canonical[n-1]
	}
	for _, w := range c.wrappers {
		if w == canonical {
			return true
		}
		bare := !strings.Contains(w, "::")
		if bare && w == last {
			return true
		}
		// A builtin wrapper is seeded under its bare name.
		if entry.Kind == symtab.KindBuiltin && lastSegment(w) == last {
			return true
		}
	}
	return false
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

func unsupported(t syntax.Type, what string) error {
	return errors.Newf(errors.CodeInvalidTypeUsage, "%s cannot appear in interface signatures: %s", what, t).
		WithContext(errors.CtxPath, t.String())
}

func invalid(err error, t syntax.Type, what string) error {
	if errors.IsCode(err, errors.CodeInvalidTypeUsage) {
		return err
	}
	return errors.Wrap(err, errors.CodeInvalidTypeUsage, "invalid "+what+" "+t.String())
}

func methodError(err error, iface symtab.Interface, m *syntax.Method) error {
	err = errors.AddContext(err, errors.CtxMethod, iface.Decl.Name+"::"+m.Name)
	if m.Pos.File != "" {
		err = errors.AddContext(err, errors.CtxFile, m.Pos.File)
		err = errors.AddContext(err, errors.CtxLine, m.Pos.Line)
	}
	return err
}
