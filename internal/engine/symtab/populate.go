package symtab

import (
	"log/slog"
	"sort"
	"strings"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
)

// Populate inserts every declared and imported name of files into t. Files
// are processed by module depth (stable), so a parent's `mod x;` is seen
// before the file that fills x. The first failure aborts population.
func Populate(t *Tree, files []*syntax.File) error {
	ordered := append([]*syntax.File(nil), files...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Module) < len(ordered[j].Module)
	})

	for _, file := range ordered {
		module, err := t.EnsureModule(file.Module)
		if err != nil {
			return errors.AddContext(err, errors.CtxFile, file.Path)
		}
		slog.Debug("populating file", "file", file.Path, "module", t.Module(module).PathString(), "items", len(file.Items))
		if err := t.populateItems(module, file.Items); err != nil {
			return err
		}
	}
	return nil
}

// EnsureModule returns the module at a root-relative path, creating any
// missing ancestors as private modules.
func (t *Tree) EnsureModule(path []string) (ModuleID, error) {
	current := t.Root()
	for _, name := range path {
		next, err := t.ChildModule(current, name, false, syntax.Pos{})
		if err != nil {
			return NoModuleID, err
		}
		current = next
	}
	return current, nil
}

func (t *Tree) populateItems(module ModuleID, items []syntax.Item) error {
	for _, item := range items {
		if err := t.populateItem(module, item); err != nil {
			pos := item.ItemPos()
			if pos.File != "" {
				err = errors.AddContext(err, errors.CtxFile, pos.File)
				err = errors.AddContext(err, errors.CtxLine, pos.Line)
			}
			return err
		}
	}
	return nil
}

func (t *Tree) populateItem(module ModuleID, item syntax.Item) error {
	switch d := item.(type) {
	case *syntax.ModDecl:
		child, err := t.ChildModule(module, d.Name, t.IsPublic(d.Vis), d.Pos)
		if err != nil {
			return err
		}
		if d.Inline {
			return t.populateItems(child, d.Items)
		}
		return nil
	case *syntax.DataDecl:
		return t.Insert(module, d.Name, NewDefinition(d.Name, DefDataType, d, t.IsPublic(d.Vis)))
	case *syntax.TraitDecl:
		return t.Insert(module, d.Name, NewDefinition(d.Name, DefTrait, d, t.IsPublic(d.Vis)))
	case *syntax.FnDecl:
		return t.Insert(module, d.Name, NewDefinition(d.Name, DefFn, d, t.IsPublic(d.Vis)))
	case *syntax.TypeAliasDecl:
		return t.Insert(module, d.Name, NewDefinition(d.Name, DefTypeAlias, d, t.IsPublic(d.Vis)))
	case *syntax.ConstDecl:
		return t.Insert(module, d.Name, NewDefinition(d.Name, DefLiteral, d, t.IsPublic(d.Vis)))
	case *syntax.UseDecl:
		return t.populateUse(module, d)
	}
	return errors.Newf(errors.CodeNotSupported, "unsupported item %T", item)
}

// importBinding is one name introduced by a flattened use tree.
type importBinding struct {
	path []string
	name string
}

func (t *Tree) populateUse(module ModuleID, d *syntax.UseDecl) error {
	var bindings []importBinding
	if err := flattenUse(nil, d.Tree, &bindings); err != nil {
		m := t.Module(module)
		return errors.AddContext(err, errors.CtxModule, m.PathString())
	}

	public := t.IsPublic(d.Vis)
	for _, b := range bindings {
		qualifier, rest := SplitQualifier(b.path)
		alias := &AliasPath{Qualifier: qualifier, Segments: rest, Leading: d.Leading}

		var entry *Entry
		if d.Leading || (qualifier == QualNone && len(rest) > 0 && t.IsExtern(rest[0])) {
			entry = NewForeign(b.name, b.path, public, d.Pos)
			entry.Alias = alias
		} else {
			entry = NewAlias(b.name, alias, public, d.Pos)
		}
		if err := t.Insert(module, b.name, entry); err != nil {
			return err
		}
	}
	return nil
}

// flattenUse expands grouping and renaming into one binding per imported name.
func flattenUse(prefix []string, tree syntax.UseTree, out *[]importBinding) error {
	switch u := tree.(type) {
	case *syntax.UsePath:
		return flattenUse(appendPath(prefix, u.Name), u.Tree, out)
	case *syntax.UseGroup:
		for _, item := range u.Items {
			if err := flattenUse(prefix, item, out); err != nil {
				return err
			}
		}
		return nil
	case *syntax.UseName:
		path, bound := importTarget(prefix, u.Name)
		if isPathKeyword(bound) {
			return errors.Newf(errors.CodeUnsupportedImportForm, "import of %q needs a rename", strings.Join(path, "::")).
				WithContext(errors.CtxPath, strings.Join(path, "::"))
		}
		*out = append(*out, importBinding{path: path, name: bound})
		return nil
	case *syntax.UseRename:
		if u.Rename == "_" {
			return nil
		}
		path, _ := importTarget(prefix, u.Name)
		*out = append(*out, importBinding{path: path, name: u.Rename})
		return nil
	case *syntax.UseGlob:
		path := strings.Join(appendPath(prefix, "*"), "::")
		return errors.Newf(errors.CodeUnsupportedImportForm, "glob import %s is not supported; import each name explicitly", path).
			WithContext(errors.CtxPath, path)
	}
	return errors.Newf(errors.CodeUnsupportedImportForm, "unsupported use tree %T", tree)
}

// importTarget returns the imported path and the name it binds. `self` in a
// group imports the group's prefix itself.
func importTarget(prefix []string, name string) ([]string, string) {
	if name == "self" && len(prefix) > 0 {
		return append([]string(nil), prefix...), prefix[len(prefix)-1]
	}
	return appendPath(prefix, name), name
}

func isPathKeyword(name string) bool {
	return name == "self" || name == "super" || name == "crate"
}
