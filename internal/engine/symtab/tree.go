// Package symtab stores the IDL namespace: an arena of nested modules, each
// mapping local names to symbol entries, and the population pass that fills it
// from parsed files.
package symtab

import (
	"strings"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
	"idlbind/internal/shared/util"
)

// DefaultRootName is the first segment of every local canonical path.
const DefaultRootName = "crate"

// DefaultBuiltins are the primitive names seeded into the root module.
var DefaultBuiltins = []string{
	"bool", "char", "str",
	"u8", "u16", "u32", "u64", "u128", "usize",
	"i8", "i16", "i32", "i64", "i128", "isize",
	"f32", "f64",
	"Option", "Result", "RRef",
}

// DefaultExternCrates are first segments that always name external code.
var DefaultExternCrates = []string{"core", "alloc", "std", "rref"}

// Options configures a new tree.
type Options struct {
	RootName     string
	Builtins     []string
	ExternCrates []string
	// RestrictedIsPublic decides how pub(crate), pub(super) and pub(in ..)
	// count under the binary public/private policy.
	RestrictedIsPublic bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		RootName:           DefaultRootName,
		Builtins:           append([]string(nil), DefaultBuiltins...),
		ExternCrates:       append([]string(nil), DefaultExternCrates...),
		RestrictedIsPublic: true,
	}
}

// Module is one lexical scope.
type Module struct {
	ID       ModuleID
	Name     string
	Parent   ModuleID
	Path     []string
	Children []ModuleID

	entries map[string]*Entry
}

// Declared returns the number of names bound in m, unshadowed builtins
// excluded.
func (m *Module) Declared() int {
	n := 0
	for _, entry := range m.entries {
		if entry.Kind != KindBuiltin {
			n++
		}
	}
	return n
}

// Names returns the bound names in sorted order.
func (m *Module) Names() []string { return util.SortedKeys(m.entries) }

// PathString joins the module path with "::".
func (m *Module) PathString() string { return strings.Join(m.Path, "::") }

// Interface is a trait declaration recorded during population.
type Interface struct {
	Module ModuleID
	Decl   *syntax.TraitDecl
	Entry  *Entry
}

// Tree is the module arena. It is built once per run, mutated by population
// and resolution, and read-only afterwards. Not safe for concurrent use.
type Tree struct {
	opts       Options
	modules    []*Module
	rootEntry  *Entry
	externs    map[string]bool
	prelude    map[string]*Entry
	interfaces []Interface
}

// NewTree creates the root module seeded with builtin entries. Builtins stay
// reachable through the prelude even after a root declaration shadows them.
func NewTree(opts Options) *Tree {
	if opts.RootName == "" {
		opts.RootName = DefaultRootName
	}
	t := &Tree{
		opts:    opts,
		modules: []*Module{nil},
		externs: make(map[string]bool, len(opts.ExternCrates)),
		prelude: make(map[string]*Entry, len(opts.Builtins)),
	}
	for _, name := range opts.ExternCrates {
		t.externs[name] = true
	}
	root := &Module{
		ID:      RootModuleID,
		Name:    opts.RootName,
		Path:    []string{opts.RootName},
		entries: make(map[string]*Entry),
	}
	t.modules = append(t.modules, root)
	t.rootEntry = newModuleEntry(opts.RootName, NoModuleID, RootModuleID, true, root.Path, syntax.Pos{})

	for _, name := range opts.Builtins {
		if _, exists := t.prelude[name]; exists {
			continue
		}
		t.prelude[name] = &Entry{
			Name:      name,
			Owner:     RootModuleID,
			Kind:      KindBuiltin,
			Public:    true,
			Canonical: []string{name},
			State:     Resolved,
		}
		root.entries[name] = t.prelude[name]
	}
	return t
}

// Options returns the options the tree was created with.
func (t *Tree) Options() Options { return t.opts }

// Root returns the root module id.
func (t *Tree) Root() ModuleID { return RootModuleID }

// Module returns the module with the given id, or nil.
func (t *Tree) Module(id ModuleID) *Module {
	if !id.IsValid() || int(id) >= len(t.modules) {
		return nil
	}
	return t.modules[id]
}

// Modules returns every module in arena order.
func (t *Tree) Modules() []*Module {
	return t.modules[1:]
}

// Parent returns the parent of id, or NoModuleID for the root.
func (t *Tree) Parent(id ModuleID) ModuleID {
	if m := t.Module(id); m != nil {
		return m.Parent
	}
	return NoModuleID
}

// ModulePath returns the absolute path of id.
func (t *Tree) ModulePath(id ModuleID) []string {
	if m := t.Module(id); m != nil {
		return m.Path
	}
	return nil
}

// ModuleEntry returns the entry that binds module id in its parent. For the
// root it returns a synthetic public entry.
func (t *Tree) ModuleEntry(id ModuleID) *Entry {
	m := t.Module(id)
	if m == nil {
		return nil
	}
	if !m.Parent.IsValid() {
		return t.rootEntry
	}
	return t.modules[m.Parent].entries[m.Name]
}

// IsExtern reports whether name is configured as an external crate.
func (t *Tree) IsExtern(name string) bool { return t.externs[name] }

// IsPublic applies the visibility policy to a written visibility.
func (t *Tree) IsPublic(vis syntax.Visibility) bool {
	switch vis {
	case syntax.VisPublic:
		return true
	case syntax.VisRestricted:
		return t.opts.RestrictedIsPublic
	default:
		return false
	}
}

// Insert binds name in module. The entry's owner and, for definitions, its
// canonical path are filled in here.
func (t *Tree) Insert(module ModuleID, name string, entry *Entry) error {
	m := t.Module(module)
	if m == nil {
		return errors.Newf(errors.CodeNotFound, "module %d does not exist", module).
			WithContext(errors.CtxSymbol, name)
	}
	if prev, exists := m.entries[name]; exists && prev.Kind != KindBuiltin {
		err := errors.Newf(errors.CodeDuplicateSymbol, "%q is already defined in %s", name, m.PathString()).
			WithContext(errors.CtxSymbol, name).
			WithContext(errors.CtxModule, m.PathString())
		if entry.Pos.File != "" {
			err.WithContext(errors.CtxFile, entry.Pos.File).WithContext(errors.CtxLine, entry.Pos.Line)
		} else if prev.Pos.File != "" {
			err.WithContext(errors.CtxFile, prev.Pos.File).WithContext(errors.CtxLine, prev.Pos.Line)
		}
		return err
	}
	entry.Name = name
	entry.Owner = module
	if entry.Kind == KindDefinition {
		entry.Def.Module = module
		entry.Canonical = appendPath(m.Path, name)
		if trait, ok := entry.Def.Item.(*syntax.TraitDecl); ok && entry.Def.Kind == DefTrait {
			t.interfaces = append(t.interfaces, Interface{Module: module, Decl: trait, Entry: entry})
		}
	}
	m.entries[name] = entry
	return nil
}

// ChildModule returns the child module called name, creating it when absent.
// Creation is idempotent by name. Asking for a public child upgrades an
// existing private one.
func (t *Tree) ChildModule(module ModuleID, name string, public bool, pos syntax.Pos) (ModuleID, error) {
	m := t.Module(module)
	if m == nil {
		return NoModuleID, errors.Newf(errors.CodeNotFound, "module %d does not exist", module).
			WithContext(errors.CtxSymbol, name)
	}
	if existing, ok := m.entries[name]; ok && existing.Kind != KindBuiltin {
		if existing.Kind != KindModule {
			return NoModuleID, errors.Newf(errors.CodeDuplicateSymbol, "%q is already defined in %s and is not a module", name, m.PathString()).
				WithContext(errors.CtxSymbol, name).
				WithContext(errors.CtxModule, m.PathString())
		}
		if public {
			existing.Public = true
		}
		return existing.Module, nil
	}

	id := ModuleID(len(t.modules))
	child := &Module{
		ID:      id,
		Name:    name,
		Parent:  module,
		Path:    appendPath(m.Path, name),
		entries: make(map[string]*Entry),
	}
	t.modules = append(t.modules, child)
	m.Children = append(m.Children, id)
	m.entries[name] = newModuleEntry(name, module, id, public, child.Path, pos)
	return id, nil
}

// Lookup finds name directly inside module.
func (t *Tree) Lookup(module ModuleID, name string) (*Entry, error) {
	m := t.Module(module)
	if m == nil {
		return nil, errors.Newf(errors.CodeNotFound, "module %d does not exist", module).
			WithContext(errors.CtxSymbol, name)
	}
	entry, ok := m.entries[name]
	if !ok {
		return nil, errors.Newf(errors.CodeUnresolvedSymbol, "cannot find %q in %s", name, m.PathString()).
			WithContext(errors.CtxSymbol, name).
			WithContext(errors.CtxModule, m.PathString())
	}
	return entry, nil
}

// Builtin returns the builtin entry for name, if any, whether or not a root
// declaration shadows it.
func (t *Tree) Builtin(name string) (*Entry, bool) {
	entry, ok := t.prelude[name]
	return entry, ok
}

// ModuleByPath finds a module by absolute path, e.g. "crate::net::tcp".
func (t *Tree) ModuleByPath(path string) (ModuleID, error) {
	entry, err := t.LookupPath(path)
	if err != nil {
		return NoModuleID, err
	}
	if entry.Kind != KindModule {
		return NoModuleID, errors.Newf(errors.CodeInvalidPathSegment, "%s is a %s, not a module", path, entry.Kind).
			WithContext(errors.CtxPath, path)
	}
	return entry.Module, nil
}

// LookupPath finds the entry bound at an absolute path. The first segment
// must be the root name. Visibility is not checked; intermediate segments must
// be modules or aliases already resolved to modules.
func (t *Tree) LookupPath(path string) (*Entry, error) {
	segments := SplitPath(path)
	if len(segments) == 0 || segments[0] != t.opts.RootName {
		return nil, errors.Newf(errors.CodeNotFound, "%q is not an absolute path under %s", path, t.opts.RootName).
			WithContext(errors.CtxPath, path)
	}
	current := t.rootEntry
	for _, name := range segments[1:] {
		if current.Kind != KindModule {
			return nil, errors.Newf(errors.CodeInvalidPathSegment, "%s is a %s and has no member %q", current.CanonicalString(), current.Kind, name).
				WithContext(errors.CtxPath, path)
		}
		next, err := t.Lookup(current.Module, name)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, path)
		}
		current = next
	}
	return current, nil
}

// Walk visits every bound name, modules in arena order and names sorted
// within each module. It stops at the first error fn returns.
func (t *Tree) Walk(fn func(m *Module, entry *Entry) error) error {
	for _, m := range t.Modules() {
		for _, name := range m.Names() {
			if err := fn(m, m.entries[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Interfaces returns the trait declarations in population order.
func (t *Tree) Interfaces() []Interface {
	return append([]Interface(nil), t.interfaces...)
}

// Stats counts modules and bound names, builtins excluded.
func (t *Tree) Stats() (modules, symbols int) {
	for _, m := range t.Modules() {
		symbols += m.Declared()
	}
	return len(t.modules) - 1, symbols
}

// SplitPath splits "a::b::c" into its segments, ignoring a leading "::".
func SplitPath(path string) []string {
	path = strings.TrimSpace(strings.TrimPrefix(path, "::"))
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "::")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func appendPath(prefix []string, name string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, name)
}
