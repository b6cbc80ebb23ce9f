package syntax

import "strings"

// Type is a type expression as it appears in a signature. String renders the
// expression in Rust syntax; two types are structurally equal exactly when
// their renderings are equal.
type Type interface {
	String() string
	typeNode()
}

// PathType is a (possibly generic) named type such as `crate::net::Packet` or
// `RRef<[u8; 4]>`. Generic arguments hang off the segment they follow.
type PathType struct {
	Leading  bool
	Segments []PathSegment
}

// PathSegment is one `::`-separated component of a path.
type PathSegment struct {
	Name string
	Args []GenericArg
}

// GenericArg is a type argument or a const argument; exactly one is set.
type GenericArg struct {
	Type  Type
	Const *ConstExpr
}

// ConstExpr is an array length or const generic argument. Either a literal
// (Literal set) or a path naming a constant (Path set).
type ConstExpr struct {
	Literal string
	Path    *PathType
}

// ArrayType is `[Elem; Len]`.
type ArrayType struct {
	Elem Type
	Len  *ConstExpr
}

// SliceType is `[Elem]`.
type SliceType struct {
	Elem Type
}

// TupleType is `(A, B, ...)`; an empty element list is the unit type.
type TupleType struct {
	Elems []Type
}

// RefType is `&T` or `&mut T`.
type RefType struct {
	Mut  bool
	Elem Type
}

// PtrType is `*const T` or `*mut T`.
type PtrType struct {
	Mut  bool
	Elem Type
}

// FnType is a bare function type `fn(A) -> R`.
type FnType struct {
	Params []Type
	Result Type
}

// TraitObjectType is `dyn A + B`, or `impl A + B` when Impl is set.
type TraitObjectType struct {
	Impl   bool
	Bounds []*PathType
}

// NeverType is `!`.
type NeverType struct{}

// OpaqueType is any type shape the frontend does not model (macros, qualified
// self types, and the like).
type OpaqueType struct {
	Text string
}

func (*PathType) typeNode()        {}
func (*ArrayType) typeNode()       {}
func (*SliceType) typeNode()       {}
func (*TupleType) typeNode()       {}
func (*RefType) typeNode()         {}
func (*PtrType) typeNode()         {}
func (*FnType) typeNode()          {}
func (*TraitObjectType) typeNode() {}
func (*NeverType) typeNode()       {}
func (*OpaqueType) typeNode()      {}

// NewPath builds a non-generic path type from its segment names.
func NewPath(names ...string) *PathType {
	p := &PathType{Segments: make([]PathSegment, len(names))}
	for i, name := range names {
		p.Segments[i] = PathSegment{Name: name}
	}
	return p
}

// Generic builds `name<args...>` as a single-segment path.
func Generic(name string, args ...Type) *PathType {
	seg := PathSegment{Name: name}
	for _, arg := range args {
		seg.Args = append(seg.Args, GenericArg{Type: arg})
	}
	return &PathType{Segments: []PathSegment{seg}}
}

// Unit returns the empty tuple.
func Unit() *TupleType { return &TupleType{} }

// Names returns the segment names of p.
func (p *PathType) Names() []string {
	names := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		names[i] = seg.Name
	}
	return names
}

// Last returns the final segment of p.
func (p *PathType) Last() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return &p.Segments[len(p.Segments)-1]
}

// IsUnit reports whether t is the unit type.
func IsUnit(t Type) bool {
	tuple, ok := t.(*TupleType)
	return ok && len(tuple.Elems) == 0
}

func (p *PathType) String() string {
	var b strings.Builder
	if p.Leading {
		b.WriteString("::")
	}
	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(seg.Name)
		if len(seg.Args) > 0 {
			b.WriteByte('<')
			for j, arg := range seg.Args {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(arg.String())
			}
			b.WriteByte('>')
		}
	}
	return b.String()
}

func (a GenericArg) String() string {
	if a.Const != nil {
		return a.Const.String()
	}
	if a.Type != nil {
		return a.Type.String()
	}
	return "_"
}

func (c *ConstExpr) String() string {
	if c == nil {
		return ""
	}
	if c.Path != nil {
		return c.Path.String()
	}
	return c.Literal
}

func (t *ArrayType) String() string {
	return "[" + t.Elem.String() + "; " + t.Len.String() + "]"
}

func (t *SliceType) String() string {
	return "[" + t.Elem.String() + "]"
}

func (t *TupleType) String() string {
	switch len(t.Elems) {
	case 0:
		return "()"
	case 1:
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTypes(t.Elems) + ")"
}

func (t *RefType) String() string {
	if t.Mut {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (t *PtrType) String() string {
	if t.Mut {
		return "*mut " + t.Elem.String()
	}
	return "*const " + t.Elem.String()
}

func (t *FnType) String() string {
	s := "fn(" + joinTypes(t.Params) + ")"
	if t.Result != nil && !IsUnit(t.Result) {
		s += " -> " + t.Result.String()
	}
	return s
}

func (t *TraitObjectType) String() string {
	parts := make([]string, len(t.Bounds))
	for i, bound := range t.Bounds {
		parts[i] = bound.String()
	}
	prefix := "dyn "
	if t.Impl {
		prefix = "impl "
	}
	return prefix + strings.Join(parts, " + ")
}

func (*NeverType) String() string { return "!" }

func (t *OpaqueType) String() string { return t.Text }

func joinTypes(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
