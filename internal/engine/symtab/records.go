package symtab

// Record is a flattened view of one bound name, used by reports and exports.
type Record struct {
	Path      string // absolute path of the binding, e.g. crate::pci::Bar
	Module    string
	Name      string
	Kind      string // module, foreign, alias, or the definition kind (data, trait, ...)
	Public    bool
	Imported  bool
	Canonical string // empty for unresolved aliases
	File      string
	Line      int
}

// Visibility renders Public as "pub" or "private".
func (r Record) Visibility() string {
	if r.Public {
		return "pub"
	}
	return "private"
}

// Records flattens the tree in Walk order. Builtins are skipped.
func (t *Tree) Records() []Record {
	var out []Record
	_ = t.Walk(func(m *Module, entry *Entry) error {
		if entry.Kind == KindBuiltin {
			return nil
		}
		module := m.PathString()
		out = append(out, Record{
			Path:      module + "::" + entry.Name,
			Module:    module,
			Name:      entry.Name,
			Kind:      KindOf(entry),
			Public:    entry.Public,
			Imported:  entry.Imported(),
			Canonical: entry.CanonicalString(),
			File:      entry.Pos.File,
			Line:      entry.Pos.Line,
		})
		return nil
	})
	return out
}

// KindOf names what entry binds: the definition kind for definitions, the
// entry kind otherwise.
func KindOf(entry *Entry) string {
	if entry.Kind == KindDefinition && entry.Def != nil {
		return entry.Def.Kind.String()
	}
	return entry.Kind.String()
}
