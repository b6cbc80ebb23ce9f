// Package syntax holds the IDL syntax tree handed to the symbol engine. It
// covers the restricted subset of Rust used to declare domain interfaces:
// modules, data types, traits, functions, type aliases, constants and imports.
package syntax

import "fmt"

// Pos locates a node in its source file. Line and Column are 1-based.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Visibility is the visibility written on a declaration.
type Visibility uint8

const (
	VisInherited  Visibility = iota // no modifier
	VisPublic                       // pub
	VisRestricted                   // pub(crate), pub(super), pub(in path), crate
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "pub"
	case VisRestricted:
		return "pub(restricted)"
	default:
		return "inherited"
	}
}

// File is one parsed source file. Module is the path of the module the file's
// items belong to, relative to the crate root (empty for the root itself).
type File struct {
	Path   string
	Module []string
	Items  []Item
}

// Item is a declaration that can appear in a module body.
type Item interface {
	ItemName() string
	ItemPos() Pos
	item()
}

// ModDecl is `mod name { ... }` or `mod name;`.
type ModDecl struct {
	Name   string
	Vis    Visibility
	Inline bool
	Items  []Item
	Pos    Pos
}

// DataKind distinguishes the plain data declarations.
type DataKind uint8

const (
	DataStruct DataKind = iota
	DataEnum
	DataUnion
)

func (k DataKind) String() string {
	switch k {
	case DataEnum:
		return "enum"
	case DataUnion:
		return "union"
	default:
		return "struct"
	}
}

// DataDecl is a struct, enum or union declaration.
type DataDecl struct {
	Name     string
	Vis      Visibility
	Kind     DataKind
	Generics []string
	Pos      Pos
}

// TraitDecl is an interface declaration.
type TraitDecl struct {
	Name     string
	Vis      Visibility
	Generics []string
	Methods  []*Method
	Pos      Pos
}

// ReceiverKind describes the `self` parameter of a method.
type ReceiverKind uint8

const (
	ReceiverNone ReceiverKind = iota
	ReceiverRef               // &self
	ReceiverRefMut            // &mut self
	ReceiverValue             // self
)

func (r ReceiverKind) String() string {
	switch r {
	case ReceiverRef:
		return "&self"
	case ReceiverRefMut:
		return "&mut self"
	case ReceiverValue:
		return "self"
	default:
		return ""
	}
}

// Method is a function signature. Result is nil for the unit return type.
type Method struct {
	Name     string
	Receiver ReceiverKind
	Generics []string
	Params   []*Param
	Result   Type
	Pos      Pos
}

// Param is a named, typed method parameter.
type Param struct {
	Name string
	Type Type
}

// FnDecl is a free function.
type FnDecl struct {
	Name      string
	Vis       Visibility
	Signature *Method
	Pos       Pos
}

// TypeAliasDecl is `type Name = Type;`.
type TypeAliasDecl struct {
	Name     string
	Vis      Visibility
	Generics []string
	Type     Type
	Pos      Pos
}

// ConstDecl is a `const` or `static` item. Value holds the initializer text.
type ConstDecl struct {
	Name   string
	Vis    Visibility
	Type   Type
	Value  string
	Static bool
	Pos    Pos
}

// UseDecl is a `use` statement. Leading is set for `use ::a::b`.
type UseDecl struct {
	Vis     Visibility
	Leading bool
	Tree    UseTree
	Pos     Pos
}

func (d *ModDecl) ItemName() string       { return d.Name }
func (d *DataDecl) ItemName() string      { return d.Name }
func (d *TraitDecl) ItemName() string     { return d.Name }
func (d *FnDecl) ItemName() string        { return d.Name }
func (d *TypeAliasDecl) ItemName() string { return d.Name }
func (d *ConstDecl) ItemName() string     { return d.Name }
func (d *UseDecl) ItemName() string       { return "" }

func (d *ModDecl) ItemPos() Pos       { return d.Pos }
func (d *DataDecl) ItemPos() Pos      { return d.Pos }
func (d *TraitDecl) ItemPos() Pos     { return d.Pos }
func (d *FnDecl) ItemPos() Pos        { return d.Pos }
func (d *TypeAliasDecl) ItemPos() Pos { return d.Pos }
func (d *ConstDecl) ItemPos() Pos     { return d.Pos }
func (d *UseDecl) ItemPos() Pos       { return d.Pos }

func (*ModDecl) item()       {}
func (*DataDecl) item()      {}
func (*TraitDecl) item()     {}
func (*FnDecl) item()        {}
func (*TypeAliasDecl) item() {}
func (*ConstDecl) item()     {}
func (*UseDecl) item()       {}

// UseTree is the argument of a `use` statement, as written.
type UseTree interface {
	useTree()
}

// UsePath is `name::tree`.
type UsePath struct {
	Name string
	Tree UseTree
}

// UseName is a terminal `name` (or `self` inside a group).
type UseName struct {
	Name string
}

// UseRename is `name as rename`.
type UseRename struct {
	Name   string
	Rename string
}

// UseGlob is `*`.
type UseGlob struct{}

// UseGroup is `{a, b::c, d as e}`.
type UseGroup struct {
	Items []UseTree
}

func (*UsePath) useTree()   {}
func (*UseName) useTree()   {}
func (*UseRename) useTree() {}
func (*UseGlob) useTree()   {}
func (*UseGroup) useTree()  {}
