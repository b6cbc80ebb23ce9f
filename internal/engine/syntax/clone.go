package syntax

// CloneType returns a deep copy of t.
func CloneType(t Type) Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *PathType:
		return ClonePath(t)
	case *ArrayType:
		return &ArrayType{Elem: CloneType(t.Elem), Len: cloneConst(t.Len)}
	case *SliceType:
		return &SliceType{Elem: CloneType(t.Elem)}
	case *TupleType:
		return &TupleType{Elems: cloneTypes(t.Elems)}
	case *RefType:
		return &RefType{Mut: t.Mut, Elem: CloneType(t.Elem)}
	case *PtrType:
		return &PtrType{Mut: t.Mut, Elem: CloneType(t.Elem)}
	case *FnType:
		return &FnType{Params: cloneTypes(t.Params), Result: CloneType(t.Result)}
	case *TraitObjectType:
		bounds := make([]*PathType, len(t.Bounds))
		for i, bound := range t.Bounds {
			bounds[i] = ClonePath(bound)
		}
		return &TraitObjectType{Impl: t.Impl, Bounds: bounds}
	case *NeverType:
		return &NeverType{}
	case *OpaqueType:
		return &OpaqueType{Text: t.Text}
	}
	panic("syntax: unknown type node")
}

// ClonePath returns a deep copy of p.
func ClonePath(p *PathType) *PathType {
	if p == nil {
		return nil
	}
	out := &PathType{Leading: p.Leading, Segments: make([]PathSegment, len(p.Segments))}
	for i, seg := range p.Segments {
		out.Segments[i] = PathSegment{Name: seg.Name}
		if len(seg.Args) > 0 {
			out.Segments[i].Args = make([]GenericArg, len(seg.Args))
			for j, arg := range seg.Args {
				out.Segments[i].Args[j] = GenericArg{Type: CloneType(arg.Type), Const: cloneConst(arg.Const)}
			}
		}
	}
	return out
}

// CloneTrait returns a deep copy of an interface declaration.
func CloneTrait(d *TraitDecl) *TraitDecl {
	if d == nil {
		return nil
	}
	out := &TraitDecl{
		Name:     d.Name,
		Vis:      d.Vis,
		Generics: append([]string(nil), d.Generics...),
		Pos:      d.Pos,
		Methods:  make([]*Method, len(d.Methods)),
	}
	for i, m := range d.Methods {
		out.Methods[i] = CloneMethod(m)
	}
	return out
}

// CloneMethod returns a deep copy of a method signature.
func CloneMethod(m *Method) *Method {
	if m == nil {
		return nil
	}
	out := &Method{
		Name:     m.Name,
		Receiver: m.Receiver,
		Generics: append([]string(nil), m.Generics...),
		Result:   CloneType(m.Result),
		Pos:      m.Pos,
		Params:   make([]*Param, len(m.Params)),
	}
	for i, p := range m.Params {
		out.Params[i] = &Param{Name: p.Name, Type: CloneType(p.Type)}
	}
	return out
}

// Inspect traverses t in pre-order, calling fn for every type node. Generic
// arguments are visited after their path. If fn returns false the children of
// that node are skipped.
func Inspect(t Type, fn func(Type) bool) {
	if t == nil || !fn(t) {
		return
	}
	switch t := t.(type) {
	case *PathType:
		for _, seg := range t.Segments {
			for _, arg := range seg.Args {
				Inspect(arg.Type, fn)
			}
		}
	case *ArrayType:
		Inspect(t.Elem, fn)
	case *SliceType:
		Inspect(t.Elem, fn)
	case *TupleType:
		for _, elem := range t.Elems {
			Inspect(elem, fn)
		}
	case *RefType:
		Inspect(t.Elem, fn)
	case *PtrType:
		Inspect(t.Elem, fn)
	case *FnType:
		for _, param := range t.Params {
			Inspect(param, fn)
		}
		Inspect(t.Result, fn)
	case *TraitObjectType:
		for _, bound := range t.Bounds {
			Inspect(bound, fn)
		}
	}
}

func cloneTypes(types []Type) []Type {
	if types == nil {
		return nil
	}
	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = CloneType(t)
	}
	return out
}

func cloneConst(c *ConstExpr) *ConstExpr {
	if c == nil {
		return nil
	}
	return &ConstExpr{Literal: c.Literal, Path: ClonePath(c.Path)}
}
