// # internal/engine/resolver/resolver_test.go
package resolver

import (
	"testing"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
)

func useOf(vis syntax.Visibility, names ...string) *syntax.UseDecl {
	var tree syntax.UseTree = &syntax.UseName{Name: names[len(names)-1]}
	for i := len(names) - 2; i >= 0; i-- {
		tree = &syntax.UsePath{Name: names[i], Tree: tree}
	}
	return &syntax.UseDecl{Vis: vis, Tree: tree}
}

func useAs(vis syntax.Visibility, rename string, names ...string) *syntax.UseDecl {
	var tree syntax.UseTree = &syntax.UseRename{Name: names[len(names)-1], Rename: rename}
	for i := len(names) - 2; i >= 0; i-- {
		tree = &syntax.UsePath{Name: names[i], Tree: tree}
	}
	return &syntax.UseDecl{Vis: vis, Tree: tree}
}

func pubData(name string) *syntax.DataDecl {
	return &syntax.DataDecl{Name: name, Vis: syntax.VisPublic}
}

func pubMod(name string, items ...syntax.Item) *syntax.ModDecl {
	return &syntax.ModDecl{Name: name, Vis: syntax.VisPublic, Inline: true, Items: items}
}

func build(t *testing.T, items ...syntax.Item) (*symtab.Tree, *Resolver) {
	t.Helper()
	tree := symtab.NewTree(symtab.DefaultOptions())
	if err := symtab.Populate(tree, []*syntax.File{{Path: "lib.rs", Items: items}}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	return tree, NewResolver(tree)
}

func mustLookup(t *testing.T, tree *symtab.Tree, path string) *symtab.Entry {
	t.Helper()
	entry, err := tree.LookupPath(path)
	if err != nil {
		t.Fatalf("lookup %s: %v", path, err)
	}
	return entry
}

func TestResolveAllSettlesEveryAlias(t *testing.T) {
	tree, r := build(t,
		pubMod("pci", pubData("PCI")),
		useOf(syntax.VisPublic, "crate", "pci", "PCI"),
		pubMod("dev",
			useOf(syntax.VisInherited, "super", "PCI"),
			useAs(syntax.VisInherited, "Here", "self", "Local"),
			pubData("Local"),
		),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	err := tree.Walk(func(m *symtab.Module, e *symtab.Entry) error {
		if e.Kind == symtab.KindAlias {
			t.Errorf("%s::%s is still an alias", m.PathString(), e.Name)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for path, canonical := range map[string]string{
		"crate::PCI":       "crate::pci::PCI",
		"crate::dev::PCI":  "crate::pci::PCI",
		"crate::dev::Here": "crate::dev::Local",
	} {
		entry := mustLookup(t, tree, path)
		if entry.Kind != symtab.KindDefinition || entry.CanonicalString() != canonical {
			t.Errorf("%s: expected definition %s, got %s", path, canonical, Describe(entry))
		}
		if !entry.Imported() {
			t.Errorf("%s: expected import provenance to survive", path)
		}
	}
}

func TestAliasChainsResolveRegardlessOfOrder(t *testing.T) {
	tree, r := build(t,
		pubMod("c", useAs(syntax.VisPublic, "Baz", "crate", "b", "Bar")),
		pubMod("b", useAs(syntax.VisPublic, "Bar", "crate", "a", "Foo")),
		pubMod("a", pubData("Foo")),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	baz := mustLookup(t, tree, "crate::c::Baz")
	if baz.CanonicalString() != "crate::a::Foo" {
		t.Fatalf("expected crate::a::Foo, got %s", baz.CanonicalString())
	}
}

func TestForwardChainResolvedFromTheFarEnd(t *testing.T) {
	tree, r := build(t,
		pubMod("a", pubData("Foo")),
		pubMod("b", useAs(syntax.VisPublic, "Bar", "crate", "a", "Foo")),
		pubMod("c", useAs(syntax.VisPublic, "Baz", "crate", "b", "Bar")),
	)
	baz := mustLookup(t, tree, "crate::c::Baz")
	if _, err := r.Resolve(baz); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	bar := mustLookup(t, tree, "crate::b::Bar")
	if bar.Kind != symtab.KindDefinition || bar.State != symtab.Resolved {
		t.Fatal("expected the intermediate alias to be settled on demand")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	tree, r := build(t,
		pubMod("a", pubData("Foo")),
		useAs(syntax.VisInherited, "F", "crate", "a", "Foo"),
	)
	entry := mustLookup(t, tree, "crate::F")

	first, err := r.Resolve(entry)
	if err != nil {
		t.Fatal(err)
	}
	canonical := first.CanonicalString()
	walks := r.Walks()

	second, err := r.Resolve(entry)
	if err != nil {
		t.Fatal(err)
	}
	if second.CanonicalString() != canonical {
		t.Fatalf("expected %s, got %s", canonical, second.CanonicalString())
	}
	if r.Walks() != walks {
		t.Fatalf("expected no new walk, went from %d to %d", walks, r.Walks())
	}
}

func TestVisibilityIsEnforcedTransitively(t *testing.T) {
	_, r := build(t,
		pubMod("x",
			pubMod("y", &syntax.DataDecl{Name: "PrivateType"}),
		),
		useOf(syntax.VisInherited, "crate", "x", "y", "PrivateType"),
	)
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeVisibilityViolation) {
		t.Fatalf("expected VISIBILITY_VIOLATION, got %v", err)
	}
}

func TestPrivateModuleBlocksDescent(t *testing.T) {
	_, r := build(t,
		&syntax.ModDecl{Name: "hidden", Inline: true, Items: []syntax.Item{pubData("Foo")}},
		pubMod("other", useOf(syntax.VisInherited, "crate", "hidden", "Foo")),
	)
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeVisibilityViolation) {
		t.Fatalf("expected VISIBILITY_VIOLATION, got %v", err)
	}
}

func TestPrivateNamesVisibleInOwnModule(t *testing.T) {
	tree, r := build(t,
		&syntax.DataDecl{Name: "Secret"},
		useAs(syntax.VisInherited, "S", "self", "Secret"),
		useAs(syntax.VisInherited, "S2", "crate", "Secret"),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustLookup(t, tree, "crate::S2").CanonicalString(); got != "crate::Secret" {
		t.Fatalf("unexpected canonical %s", got)
	}
}

func TestCycleRejected(t *testing.T) {
	_, r := build(t,
		pubMod("a",
			useAs(syntax.VisPublic, "Y", "crate", "a", "X"),
			useAs(syntax.VisPublic, "X", "crate", "a", "Y"),
		),
	)
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeCyclicAlias) {
		t.Fatalf("expected CYCLIC_ALIAS, got %v", err)
	}
}

func TestSelfCycleRejected(t *testing.T) {
	tree, r := build(t, useOf(syntax.VisInherited, "self", "Loop"))
	entry := mustLookup(t, tree, "crate::Loop")
	_, err := r.Resolve(entry)
	if !errors.IsCode(err, errors.CodeCyclicAlias) {
		t.Fatalf("expected CYCLIC_ALIAS, got %v", err)
	}
	if entry.State != symtab.Unresolved {
		t.Fatal("expected in-progress mark to be cleared after failure")
	}
}

func TestInvalidPathSegment(t *testing.T) {
	_, r := build(t,
		pubData("Foo"),
		pubMod("m", useOf(syntax.VisInherited, "crate", "Foo", "Bar")),
	)
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeInvalidPathSegment) {
		t.Fatalf("expected INVALID_PATH_SEGMENT, got %v", err)
	}
}

func TestUnresolvedSymbol(t *testing.T) {
	_, r := build(t, pubMod("m", useOf(syntax.VisInherited, "crate", "nope", "Foo")))
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeUnresolvedSymbol) {
		t.Fatalf("expected UNRESOLVED_SYMBOL, got %v", err)
	}
	var de *errors.DomainError
	if de, _ = err.(*errors.DomainError); de == nil || de.Context[errors.CtxModule] != "crate::m" || de.Context[errors.CtxSymbol] != "Foo" {
		t.Fatalf("expected module and symbol context, got %v", err)
	}
}

func TestSuperAtRootFails(t *testing.T) {
	_, r := build(t, useOf(syntax.VisInherited, "super", "Foo"))
	err := r.ResolveAll()
	if !errors.IsCode(err, errors.CodeResolutionError) {
		t.Fatalf("expected RESOLUTION_ERROR, got %v", err)
	}
}

func TestNestedSuperAndModuleImports(t *testing.T) {
	tree, r := build(t,
		pubData("Top"),
		pubMod("a", pubMod("b",
			useOf(syntax.VisInherited, "super", "super", "Top"),
			useAs(syntax.VisInherited, "parent", "super", "self"),
		)),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	top := mustLookup(t, tree, "crate::a::b::Top")
	if top.CanonicalString() != "crate::Top" {
		t.Fatalf("unexpected canonical %s", top.CanonicalString())
	}
	parent := mustLookup(t, tree, "crate::a::b::parent")
	if parent.Kind != symtab.KindModule || parent.CanonicalString() != "crate::a" {
		t.Fatalf("unexpected entry %s", Describe(parent))
	}
}

func TestImportOfModuleSelf(t *testing.T) {
	tree, r := build(t,
		pubMod("net", pubData("Packet")),
		pubMod("user",
			&syntax.UseDecl{Tree: &syntax.UsePath{Name: "crate", Tree: &syntax.UsePath{Name: "net", Tree: &syntax.UseGroup{Items: []syntax.UseTree{
				&syntax.UseName{Name: "self"},
			}}}}},
			useAs(syntax.VisInherited, "P", "net", "Packet"),
		),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	entry := mustLookup(t, tree, "crate::user::net")
	if entry.Kind != symtab.KindModule || entry.CanonicalString() != "crate::net" {
		t.Fatalf("unexpected entry %s", Describe(entry))
	}
	if got := mustLookup(t, tree, "crate::user::P").CanonicalString(); got != "crate::net::Packet" {
		t.Fatalf("expected descent through the imported module, got %s", got)
	}
}

func TestForeignPathsAreExtended(t *testing.T) {
	tree, r := build(t,
		pubMod("m",
			useOf(syntax.VisInherited, "rref", "traits"),
			useAs(syntax.VisInherited, "Copy", "traits", "TypeIdentifiable"),
		),
	)
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	entry := mustLookup(t, tree, "crate::m::Copy")
	if entry.Kind != symtab.KindForeign || entry.CanonicalString() != "rref::traits::TypeIdentifiable" {
		t.Fatalf("unexpected entry %s", Describe(entry))
	}
}

func TestBuiltinPrelude(t *testing.T) {
	tree, r := build(t, pubMod("m", useAs(syntax.VisInherited, "Byte", "u8")))
	if err := r.ResolveAll(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	entry := mustLookup(t, tree, "crate::m::Byte")
	if entry.Kind != symtab.KindBuiltin || entry.CanonicalString() != "u8" {
		t.Fatalf("unexpected entry %s", Describe(entry))
	}
}
