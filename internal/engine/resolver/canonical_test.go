package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
)

func TestCanonicalType(t *testing.T) {
	tree, r := build(t,
		pubMod("pci", pubData("PCI"), &syntax.ConstDecl{Name: "BARS", Vis: syntax.VisPublic, Value: "6"}),
		pubMod("dom",
			useOf(syntax.VisInherited, "crate", "pci", "PCI"),
			useOf(syntax.VisInherited, "crate", "pci", "BARS"),
			useOf(syntax.VisInherited, "rref", "RRef"),
		),
	)
	require.NoError(t, r.ResolveAll())
	dom, err := tree.ModuleByPath("crate::dom")
	require.NoError(t, err)
	scope := Scope{Module: dom, Generics: []string{"T"}}

	tests := []struct {
		name string
		in   syntax.Type
		want string
	}{
		{"imported data", syntax.NewPath("PCI"), "crate::pci::PCI"},
		{"foreign wrapper", syntax.Generic("RRef", syntax.NewPath("PCI")), "rref::RRef<crate::pci::PCI>"},
		{"builtin", syntax.NewPath("u32"), "u32"},
		{"generic param kept", syntax.Generic("Option", syntax.NewPath("T")), "Option<T>"},
		{"self kept", syntax.NewPath("Self"), "Self"},
		{"array const", &syntax.ArrayType{Elem: syntax.NewPath("PCI"), Len: &syntax.ConstExpr{Path: syntax.NewPath("BARS")}}, "[crate::pci::PCI; crate::pci::BARS]"},
		{"tuple", &syntax.TupleType{Elems: []syntax.Type{syntax.NewPath("u8"), syntax.NewPath("super", "pci", "PCI")}}, "(u8, crate::pci::PCI)"},
		{"dyn", &syntax.TraitObjectType{Bounds: []*syntax.PathType{syntax.NewPath("rref", "traits", "Copy")}}, "dyn rref::traits::Copy"},
		{"ref", &syntax.RefType{Elem: syntax.NewPath("PCI")}, "&crate::pci::PCI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CanonicalType(scope, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCanonicalTypeErrors(t *testing.T) {
	tree, r := build(t,
		pubMod("pci", pubData("PCI"), &syntax.FnDecl{Name: "probe", Vis: syntax.VisPublic, Signature: &syntax.Method{Name: "probe"}}),
	)
	require.NoError(t, r.ResolveAll())
	scope := Scope{Module: tree.Root()}

	_, err := r.CanonicalType(scope, syntax.NewPath("Missing"))
	assert.True(t, errors.IsCode(err, errors.CodeUnresolvedSymbol), "got %v", err)

	_, err = r.CanonicalType(scope, &syntax.ArrayType{Elem: syntax.NewPath("u8"), Len: &syntax.ConstExpr{Path: syntax.NewPath("pci", "probe")}})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidTypeUsage), "got %v", err)
}

func TestCanonicalizeTrait(t *testing.T) {
	tree, r := build(t,
		pubMod("pci", pubData("PCI")),
		pubData("Error"),
		pubMod("api",
			useOf(syntax.VisInherited, "crate", "pci"),
			useOf(syntax.VisInherited, "crate", "Error"),
			&syntax.TraitDecl{Name: "Pci", Vis: syntax.VisPublic, Methods: []*syntax.Method{{
				Name:     "get",
				Receiver: syntax.ReceiverRef,
				Params:   []*syntax.Param{{Name: "id", Type: syntax.NewPath("u32")}},
				Result: &syntax.TupleType{Elems: []syntax.Type{
					syntax.Generic("RRef", syntax.NewPath("pci", "PCI")),
					syntax.NewPath("Error"),
				}},
			}}},
		),
	)
	require.NoError(t, r.ResolveAll())
	ifaces := tree.Interfaces()
	require.Len(t, ifaces, 1)

	out, err := r.CanonicalizeTrait(ifaces[0])
	require.NoError(t, err)
	assert.Equal(t, "(RRef<crate::pci::PCI>, crate::Error)", out.Methods[0].Result.String())
	assert.Equal(t, "(RRef<pci::PCI>, Error)", ifaces[0].Decl.Methods[0].Result.String(), "original must not change")
}

func TestResolvePathDoesNotTouchTree(t *testing.T) {
	tree, r := build(t, pubData("Foo"))
	before, _ := tree.Stats()
	entry, err := r.ResolvePath(tree.Root(), []string{"crate", "Foo"}, false)
	require.NoError(t, err)
	assert.Equal(t, symtab.KindDefinition, entry.Kind)
	after, _ := tree.Stats()
	assert.Equal(t, before, after)

	foreign, err := r.ResolvePath(tree.Root(), []string{"anything", "Else"}, true)
	require.NoError(t, err)
	assert.Equal(t, "anything::Else", foreign.CanonicalString())
}
