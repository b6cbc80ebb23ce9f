package symtab

import (
	"strings"

	"idlbind/internal/engine/syntax"
)

// ModuleID indexes a module in the tree's arena. The zero value means "no
// module"; the root is always RootModuleID.
type ModuleID uint32

const (
	NoModuleID   ModuleID = 0
	RootModuleID ModuleID = 1
)

// IsValid reports whether id refers to a module.
func (id ModuleID) IsValid() bool { return id != NoModuleID }

// Kind is the state of a symbol entry. Alias is the only non-terminal kind.
type Kind uint8

const (
	KindModule Kind = iota
	KindDefinition
	KindAlias
	KindForeign
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindDefinition:
		return "definition"
	case KindAlias:
		return "alias"
	case KindForeign:
		return "foreign"
	case KindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Terminal reports whether k needs no further resolution.
func (k Kind) Terminal() bool { return k != KindAlias }

// DefKind tags what a Definition entry declares.
type DefKind uint8

const (
	DefDataType DefKind = iota
	DefTrait
	DefFn
	DefTypeAlias
	DefLiteral
)

func (k DefKind) String() string {
	switch k {
	case DefDataType:
		return "data"
	case DefTrait:
		return "trait"
	case DefFn:
		return "fn"
	case DefTypeAlias:
		return "type"
	case DefLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// IsType reports whether the definition can be named in type position.
func (k DefKind) IsType() bool {
	return k == DefDataType || k == DefTrait || k == DefTypeAlias
}

// Definition is the payload of a KindDefinition entry.
type Definition struct {
	Kind   DefKind
	Module ModuleID
	Item   syntax.Item
}

// Qualifier is the leading keyword of an import path.
type Qualifier uint8

const (
	QualNone   Qualifier = iota
	QualRoot             // crate::
	QualParent           // super::
	QualSelf             // self::
)

func (q Qualifier) String() string {
	switch q {
	case QualRoot:
		return "crate"
	case QualParent:
		return "super"
	case QualSelf:
		return "self"
	default:
		return ""
	}
}

// SplitQualifier separates a leading crate/super/self keyword from names.
func SplitQualifier(names []string) (Qualifier, []string) {
	if len(names) == 0 {
		return QualNone, names
	}
	switch names[0] {
	case "crate":
		return QualRoot, names[1:]
	case "super":
		return QualParent, names[1:]
	case "self":
		return QualSelf, names[1:]
	}
	return QualNone, names
}

// AliasPath is an import path exactly as written, minus its qualifier.
type AliasPath struct {
	Qualifier Qualifier
	Segments  []string
	Leading   bool
}

func (a *AliasPath) String() string {
	var parts []string
	if a.Qualifier != QualNone {
		parts = append(parts, a.Qualifier.String())
	}
	parts = append(parts, a.Segments...)
	s := strings.Join(parts, "::")
	if a.Leading {
		return "::" + s
	}
	return s
}

// ResolveState tracks alias resolution.
type ResolveState uint8

const (
	Unresolved ResolveState = iota
	InProgress
	Resolved
)

// Entry is one name bound in a module. Exactly one payload is meaningful for
// the entry's Kind:
//
//   - KindModule: Module
//   - KindDefinition: Def
//   - KindAlias: Alias (kept after resolution to record where the name came from)
//   - KindForeign, KindBuiltin: Canonical only
//
// Canonical is set for every terminal entry; for aliases it is filled in when
// the alias settles.
type Entry struct {
	Name      string
	Owner     ModuleID
	Kind      Kind
	Public    bool
	Canonical []string
	State     ResolveState

	Module ModuleID
	Def    *Definition
	Alias  *AliasPath

	Pos syntax.Pos
}

// Imported reports whether the entry was introduced by an import.
func (e *Entry) Imported() bool { return e.Alias != nil }

// CanonicalString joins the canonical path with "::".
func (e *Entry) CanonicalString() string {
	return strings.Join(e.Canonical, "::")
}

// Settle replaces an alias's state with the terminal state of target.
// Visibility and provenance of e are preserved.
func (e *Entry) Settle(target *Entry) {
	e.Kind = target.Kind
	e.Module = target.Module
	e.Def = target.Def
	e.Canonical = append([]string(nil), target.Canonical...)
	e.State = Resolved
}

func newModuleEntry(name string, owner, id ModuleID, public bool, canonical []string, pos syntax.Pos) *Entry {
	return &Entry{
		Name:      name,
		Owner:     owner,
		Kind:      KindModule,
		Public:    public,
		Canonical: canonical,
		State:     Resolved,
		Module:    id,
		Pos:       pos,
	}
}

// NewDefinition builds a terminal definition entry.
func NewDefinition(name string, kind DefKind, item syntax.Item, public bool) *Entry {
	return &Entry{
		Name:   name,
		Kind:   KindDefinition,
		Public: public,
		State:  Resolved,
		Def:    &Definition{Kind: kind, Item: item},
		Pos:    item.ItemPos(),
	}
}

// NewAlias builds an unresolved import entry.
func NewAlias(name string, path *AliasPath, public bool, pos syntax.Pos) *Entry {
	return &Entry{
		Name:   name,
		Kind:   KindAlias,
		Public: public,
		State:  Unresolved,
		Alias:  path,
		Pos:    pos,
	}
}

// NewForeign builds an entry naming something outside the tree. The path is
// kept as written; it is its own canonical path.
func NewForeign(name string, path []string, public bool, pos syntax.Pos) *Entry {
	return &Entry{
		Name:      name,
		Kind:      KindForeign,
		Public:    public,
		Canonical: append([]string(nil), path...),
		State:     Resolved,
		Pos:       pos,
	}
}
