package symtab

import (
	"testing"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
)

func TestNewTreeSeedsBuiltins(t *testing.T) {
	tree := NewTree(DefaultOptions())

	entry, err := tree.Lookup(tree.Root(), "u8")
	if err != nil {
		t.Fatalf("expected builtin u8: %v", err)
	}
	if entry.Kind != KindBuiltin || !entry.Public {
		t.Fatalf("expected public builtin, got %s public=%v", entry.Kind, entry.Public)
	}
	if entry.CanonicalString() != "u8" {
		t.Fatalf("unexpected builtin canonical path %q", entry.CanonicalString())
	}
	if _, ok := tree.Builtin("RRef"); !ok {
		t.Fatal("expected RRef to be seeded as a builtin")
	}
	if modules, symbols := tree.Stats(); modules != 1 || symbols != 0 {
		t.Fatalf("expected empty root, got modules=%d symbols=%d", modules, symbols)
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	tree := NewTree(DefaultOptions())
	foo := &syntax.DataDecl{Name: "Foo"}

	if err := tree.Insert(tree.Root(), "Foo", NewDefinition("Foo", DefDataType, foo, true)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := tree.Insert(tree.Root(), "Foo", NewDefinition("Foo", DefDataType, foo, true))
	if !errors.IsCode(err, errors.CodeDuplicateSymbol) {
		t.Fatalf("expected DUPLICATE_SYMBOL, got %v", err)
	}
}

func TestInsertShadowsBuiltinAtRoot(t *testing.T) {
	tree := NewTree(DefaultOptions())
	option := &syntax.DataDecl{Name: "Option"}

	if err := tree.Insert(tree.Root(), "Option", NewDefinition("Option", DefDataType, option, true)); err != nil {
		t.Fatalf("shadowing a builtin failed: %v", err)
	}
	entry, err := tree.Lookup(tree.Root(), "Option")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Kind != KindDefinition || entry.CanonicalString() != "crate::Option" {
		t.Fatalf("expected crate::Option definition, got %s %q", entry.Kind, entry.CanonicalString())
	}
	if builtin, ok := tree.Builtin("Option"); !ok || builtin.Kind != KindBuiltin {
		t.Fatal("expected the Option builtin to stay in the prelude")
	}
	if _, symbols := tree.Stats(); symbols != 1 {
		t.Fatalf("expected one declared symbol, got %d", symbols)
	}

	// The shadowing declaration itself is an ordinary binding.
	err = tree.Insert(tree.Root(), "Option", NewDefinition("Option", DefDataType, option, true))
	if !errors.IsCode(err, errors.CodeDuplicateSymbol) {
		t.Fatalf("expected DUPLICATE_SYMBOL, got %v", err)
	}
}

func TestChildModuleIsIdempotentByName(t *testing.T) {
	tree := NewTree(DefaultOptions())

	first, err := tree.ChildModule(tree.Root(), "net", false, syntax.Pos{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := tree.ChildModule(tree.Root(), "net", true, syntax.Pos{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same module, got %d and %d", first, second)
	}
	entry, _ := tree.Lookup(tree.Root(), "net")
	if !entry.Public {
		t.Fatal("expected pub request to upgrade visibility")
	}
	if got := tree.Module(first).PathString(); got != "crate::net" {
		t.Fatalf("unexpected module path %q", got)
	}
	if tree.Parent(first) != tree.Root() {
		t.Fatal("expected root parent")
	}

	if err := tree.Insert(tree.Root(), "Data", NewDefinition("Data", DefDataType, &syntax.DataDecl{Name: "Data"}, true)); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.ChildModule(tree.Root(), "Data", true, syntax.Pos{}); !errors.IsCode(err, errors.CodeDuplicateSymbol) {
		t.Fatalf("expected DUPLICATE_SYMBOL for non-module name, got %v", err)
	}
}

func TestLookupMissing(t *testing.T) {
	tree := NewTree(DefaultOptions())
	_, err := tree.Lookup(tree.Root(), "Missing")
	if !errors.IsCode(err, errors.CodeUnresolvedSymbol) {
		t.Fatalf("expected UNRESOLVED_SYMBOL, got %v", err)
	}
}

func TestLookupPathAndModuleByPath(t *testing.T) {
	tree := NewTree(DefaultOptions())
	pci, _ := tree.ChildModule(tree.Root(), "pci", true, syntax.Pos{})
	if err := tree.Insert(pci, "PCI", NewDefinition("PCI", DefDataType, &syntax.DataDecl{Name: "PCI"}, true)); err != nil {
		t.Fatal(err)
	}

	entry, err := tree.LookupPath("crate::pci::PCI")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if entry.CanonicalString() != "crate::pci::PCI" || entry.Def.Module != pci {
		t.Fatalf("unexpected entry %+v", entry)
	}

	id, err := tree.ModuleByPath("crate::pci")
	if err != nil || id != pci {
		t.Fatalf("expected pci module, got %d (%v)", id, err)
	}
	if _, err := tree.ModuleByPath("crate::pci::PCI"); !errors.IsCode(err, errors.CodeInvalidPathSegment) {
		t.Fatalf("expected INVALID_PATH_SEGMENT, got %v", err)
	}
	if _, err := tree.LookupPath("crate::pci::PCI::inner"); !errors.IsCode(err, errors.CodeInvalidPathSegment) {
		t.Fatalf("expected INVALID_PATH_SEGMENT, got %v", err)
	}
	if _, err := tree.LookupPath("other::pci"); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for non-root path, got %v", err)
	}
	if root, err := tree.ModuleByPath("crate"); err != nil || root != tree.Root() {
		t.Fatalf("expected root module, got %d (%v)", root, err)
	}
}

func TestWalkIsDeterministic(t *testing.T) {
	tree := NewTree(Options{RootName: "crate"})
	b, _ := tree.ChildModule(tree.Root(), "b", true, syntax.Pos{})
	_ = tree.Insert(tree.Root(), "Zed", NewDefinition("Zed", DefDataType, &syntax.DataDecl{Name: "Zed"}, true))
	_ = tree.Insert(tree.Root(), "Alpha", NewDefinition("Alpha", DefDataType, &syntax.DataDecl{Name: "Alpha"}, true))
	_ = tree.Insert(b, "Inner", NewDefinition("Inner", DefDataType, &syntax.DataDecl{Name: "Inner"}, true))

	var seen []string
	err := tree.Walk(func(m *Module, entry *Entry) error {
		seen = append(seen, m.PathString()+"::"+entry.Name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"crate::Alpha", "crate::Zed", "crate::b", "crate::b::Inner"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestSplitPath(t *testing.T) {
	got := SplitPath("::crate :: a::b")
	if len(got) != 3 || got[0] != "crate" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("unexpected split %v", got)
	}
	if SplitPath("") != nil {
		t.Fatal("expected nil for empty path")
	}
}

func TestRecordsFlattenTree(t *testing.T) {
	tree := NewTree(DefaultOptions())
	pci, _ := tree.ChildModule(tree.Root(), "pci", true, syntax.Pos{File: "lib.rs", Line: 1})
	bar := &syntax.DataDecl{Name: "Bar", Pos: syntax.Pos{File: "pci.rs", Line: 4}}
	if err := tree.Insert(pci, "Bar", NewDefinition("Bar", DefDataType, bar, true)); err != nil {
		t.Fatal(err)
	}
	alias := NewAlias("Error", &AliasPath{Segments: []string{"error", "Error"}}, false, syntax.Pos{File: "pci.rs", Line: 2})
	if err := tree.Insert(pci, "Error", alias); err != nil {
		t.Fatal(err)
	}

	records := tree.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records without builtins, got %d: %+v", len(records), records)
	}
	if records[0].Path != "crate::pci" || records[0].Kind != "module" || records[0].Visibility() != "pub" {
		t.Fatalf("unexpected module record %+v", records[0])
	}
	if records[1].Path != "crate::pci::Bar" || records[1].Kind != "data" || records[1].Canonical != "crate::pci::Bar" {
		t.Fatalf("unexpected definition record %+v", records[1])
	}
	if records[1].File != "pci.rs" || records[1].Line != 4 {
		t.Fatalf("unexpected position %+v", records[1])
	}
	errRec := records[2]
	if errRec.Kind != "alias" || !errRec.Imported || errRec.Canonical != "" || errRec.Visibility() != "private" {
		t.Fatalf("unexpected alias record %+v", errRec)
	}
}
