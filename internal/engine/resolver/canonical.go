package resolver

import (
	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
)

// Scope is where a type expression was written: the declaring module plus
// the generic parameter names in force.
type Scope struct {
	Module   symtab.ModuleID
	Generics []string
}

// HasGeneric reports whether name is a generic parameter in s.
func (s Scope) HasGeneric(name string) bool {
	for _, g := range s.Generics {
		if g == name {
			return true
		}
	}
	return false
}

// IsParameter reports whether p names a generic parameter or `Self` rather
// than a declared type.
func (s Scope) IsParameter(p *syntax.PathType) bool {
	if p.Leading || len(p.Segments) != 1 {
		return false
	}
	name := p.Segments[0].Name
	return name == "Self" || s.HasGeneric(name)
}

// ResolveTypePath resolves the named part of a type path (generic arguments
// are ignored) to its terminal entry.
func (r *Resolver) ResolveTypePath(scope Scope, p *syntax.PathType) (*symtab.Entry, error) {
	entry, err := r.ResolvePath(scope.Module, p.Names(), p.Leading)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, p.String())
	}
	return entry, nil
}

// CanonicalType returns a deep copy of t with every path replaced by the
// canonical absolute path it resolves to. Generic arguments follow the last
// segment. Generic parameters, `Self` and opaque types are kept as written;
// array lengths naming constants are canonicalized too.
func (r *Resolver) CanonicalType(scope Scope, t syntax.Type) (syntax.Type, error) {
	switch t := t.(type) {
	case nil:
		return nil, nil
	case *syntax.PathType:
		return r.canonicalPath(scope, t)
	case *syntax.ArrayType:
		elem, err := r.CanonicalType(scope, t.Elem)
		if err != nil {
			return nil, err
		}
		length, err := r.CanonicalConst(scope, t.Len)
		if err != nil {
			return nil, err
		}
		return &syntax.ArrayType{Elem: elem, Len: length}, nil
	case *syntax.SliceType:
		elem, err := r.CanonicalType(scope, t.Elem)
		if err != nil {
			return nil, err
		}
		return &syntax.SliceType{Elem: elem}, nil
	case *syntax.TupleType:
		elems, err := r.canonicalTypes(scope, t.Elems)
		if err != nil {
			return nil, err
		}
		return &syntax.TupleType{Elems: elems}, nil
	case *syntax.RefType:
		elem, err := r.CanonicalType(scope, t.Elem)
		if err != nil {
			return nil, err
		}
		return &syntax.RefType{Mut: t.Mut, Elem: elem}, nil
	case *syntax.PtrType:
		elem, err := r.CanonicalType(scope, t.Elem)
		if err != nil {
			return nil, err
		}
		return &syntax.PtrType{Mut: t.Mut, Elem: elem}, nil
	case *syntax.FnType:
		params, err := r.canonicalTypes(scope, t.Params)
		if err != nil {
			return nil, err
		}
		result, err := r.CanonicalType(scope, t.Result)
		if err != nil {
			return nil, err
		}
		return &syntax.FnType{Params: params, Result: result}, nil
	case *syntax.TraitObjectType:
		bounds := make([]*syntax.PathType, len(t.Bounds))
		for i, bound := range t.Bounds {
			canonical, err := r.canonicalPath(scope, bound)
			if err != nil {
				return nil, err
			}
			bounds[i] = canonical
		}
		return &syntax.TraitObjectType{Impl: t.Impl, Bounds: bounds}, nil
	default:
		return syntax.CloneType(t), nil
	}
}

func (r *Resolver) canonicalTypes(scope Scope, types []syntax.Type) ([]syntax.Type, error) {
	if types == nil {
		return nil, nil
	}
	out := make([]syntax.Type, len(types))
	for i, t := range types {
		canonical, err := r.CanonicalType(scope, t)
		if err != nil {
			return nil, err
		}
		out[i] = canonical
	}
	return out, nil
}

func (r *Resolver) canonicalPath(scope Scope, p *syntax.PathType) (*syntax.PathType, error) {
	if scope.IsParameter(p) {
		return syntax.ClonePath(p), nil
	}
	entry, err := r.ResolveTypePath(scope, p)
	if err != nil {
		return nil, err
	}
	out := syntax.NewPath(entry.Canonical...)
	last := p.Last()
	if last == nil || len(last.Args) == 0 {
		return out, nil
	}
	args := make([]syntax.GenericArg, len(last.Args))
	for i, arg := range last.Args {
		if arg.Const != nil {
			c, err := r.CanonicalConst(scope, arg.Const)
			if err != nil {
				return nil, err
			}
			args[i] = syntax.GenericArg{Const: c}
			continue
		}
		typ, err := r.CanonicalType(scope, arg.Type)
		if err != nil {
			return nil, err
		}
		args[i] = syntax.GenericArg{Type: typ}
	}
	out.Last().Args = args
	return out, nil
}

// CanonicalConst resolves a const expression. Literals are kept; a path must
// name a constant definition (or something external).
func (r *Resolver) CanonicalConst(scope Scope, c *syntax.ConstExpr) (*syntax.ConstExpr, error) {
	if c == nil {
		return nil, nil
	}
	if c.Path == nil {
		return &syntax.ConstExpr{Literal: c.Literal}, nil
	}
	if scope.IsParameter(c.Path) {
		return &syntax.ConstExpr{Path: syntax.ClonePath(c.Path)}, nil
	}
	entry, err := r.ResolveTypePath(scope, c.Path)
	if err != nil {
		return nil, err
	}
	isLiteral := entry.Kind == symtab.KindDefinition && entry.Def.Kind == symtab.DefLiteral
	if !isLiteral && entry.Kind != symtab.KindForeign {
		return nil, errors.Newf(errors.CodeInvalidTypeUsage, "%s is a %s, not a constant", c.Path, Describe(entry)).
			WithContext(errors.CtxPath, c.Path.String()).
			WithContext(errors.CtxModule, r.tree.Module(scope.Module).PathString())
	}
	return &syntax.ConstExpr{Path: syntax.NewPath(entry.Canonical...)}, nil
}

// CanonicalizeTrait returns a copy of iface with every type in every method
// signature in canonical form.
func (r *Resolver) CanonicalizeTrait(iface symtab.Interface) (*syntax.TraitDecl, error) {
	out := syntax.CloneTrait(iface.Decl)
	for _, m := range out.Methods {
		scope := MethodScope(iface, m)
		for _, p := range m.Params {
			canonical, err := r.CanonicalType(scope, p.Type)
			if err != nil {
				return nil, methodContext(err, iface, m)
			}
			p.Type = canonical
		}
		result, err := r.CanonicalType(scope, m.Result)
		if err != nil {
			return nil, methodContext(err, iface, m)
		}
		m.Result = result
	}
	return out, nil
}

// MethodScope is the scope method signatures of iface are written in.
func MethodScope(iface symtab.Interface, m *syntax.Method) Scope {
	generics := make([]string, 0, len(iface.Decl.Generics)+len(m.Generics))
	generics = append(generics, iface.Decl.Generics...)
	generics = append(generics, m.Generics...)
	return Scope{Module: iface.Module, Generics: generics}
}

func methodContext(err error, iface symtab.Interface, m *syntax.Method) error {
	err = errors.AddContext(err, errors.CtxMethod, iface.Decl.Name+"::"+m.Name)
	if m.Pos.File != "" {
		err = errors.AddContext(err, errors.CtxFile, m.Pos.File)
		err = errors.AddContext(err, errors.CtxLine, m.Pos.Line)
	}
	return err
}
