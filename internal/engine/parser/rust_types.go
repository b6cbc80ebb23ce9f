package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
)

func useTree(ctx *ExtractionContext, node *sitter.Node) (syntax.UseTree, bool, error) {
	switch node.Kind() {
	case "identifier", "self", "super", "crate", "metavariable":
		return &syntax.UseName{Name: ctx.Text(node)}, false, nil
	case "scoped_identifier":
		names, leading := pathNames(ctx, node)
		return chain(names[:len(names)-1], &syntax.UseName{Name: names[len(names)-1]}), leading, nil
	case "use_as_clause":
		names, leading := pathNames(ctx, node.ChildByFieldName("path"))
		if len(names) == 0 {
			return nil, false, errors.New(errors.CodeSyntaxError, "use alias without a path")
		}
		leaf := &syntax.UseRename{Name: names[len(names)-1], Rename: ctx.FieldText(node, "alias")}
		return chain(names[:len(names)-1], leaf), leading, nil
	case "use_list":
		group := &syntax.UseGroup{}
		for _, child := range NamedChildren(node) {
			item, _, err := useTree(ctx, child)
			if err != nil {
				return nil, false, err
			}
			group.Items = append(group.Items, item)
		}
		return group, false, nil
	case "scoped_use_list":
		list, _, err := useTree(ctx, node.ChildByFieldName("list"))
		if err != nil {
			return nil, false, err
		}
		path := node.ChildByFieldName("path")
		if path == nil {
			return list, ChildOfKind(node, "::") != nil, nil
		}
		names, leading := pathNames(ctx, path)
		return chain(names, list), leading, nil
	case "use_wildcard":
		var names []string
		leading := false
		if children := NamedChildren(node); len(children) > 0 {
			names, leading = pathNames(ctx, children[0])
		} else {
			leading = ChildOfKind(node, "::") != nil
		}
		return chain(names, &syntax.UseGlob{}), leading, nil
	}
	return nil, false, errors.Newf(errors.CodeSyntaxError, "unsupported use tree %q", ctx.Text(node))
}

func chain(prefix []string, leaf syntax.UseTree) syntax.UseTree {
	tree := leaf
	for i := len(prefix) - 1; i >= 0; i-- {
		tree = &syntax.UsePath{Name: prefix[i], Tree: tree}
	}
	return tree
}

// pathNames flattens a (possibly scoped) path node into its segment names and
// reports whether it starts with `::`.
func pathNames(ctx *ExtractionContext, node *sitter.Node) ([]string, bool) {
	if node == nil {
		return nil, false
	}
	switch node.Kind() {
	case "identifier", "type_identifier", "self", "super", "crate", "metavariable", "primitive_type":
		return []string{ctx.Text(node)}, false
	case "scoped_identifier", "scoped_type_identifier":
		var names []string
		leading := false
		if path := node.ChildByFieldName("path"); path != nil {
			names, leading = pathNames(ctx, path)
		} else {
			leading = ChildOfKind(node, "::") != nil
		}
		return append(names, ctx.FieldText(node, "name")), leading
	}
	text := strings.TrimSpace(ctx.Text(node))
	leading := strings.HasPrefix(text, "::")
	return strings.Split(strings.TrimPrefix(text, "::"), "::"), leading
}

func typeExpr(ctx *ExtractionContext, node *sitter.Node) syntax.Type {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "type_identifier", "primitive_type", "scoped_type_identifier", "scoped_identifier", "identifier":
		names, leading := pathNames(ctx, node)
		p := syntax.NewPath(names...)
		p.Leading = leading
		return p
	case "generic_type":
		base, ok := typeExpr(ctx, node.ChildByFieldName("type")).(*syntax.PathType)
		if !ok {
			return opaque(ctx, node)
		}
		base.Last().Args = typeArgs(ctx, node.ChildByFieldName("type_arguments"))
		return base
	case "array_type":
		elem := typeExpr(ctx, node.ChildByFieldName("element"))
		length := node.ChildByFieldName("length")
		if length == nil {
			return &syntax.SliceType{Elem: elem}
		}
		return &syntax.ArrayType{Elem: elem, Len: constExpr(ctx, length)}
	case "tuple_type":
		tuple := &syntax.TupleType{}
		for _, child := range NamedChildren(node) {
			tuple.Elems = append(tuple.Elems, typeExpr(ctx, child))
		}
		return tuple
	case "unit_type":
		return syntax.Unit()
	case "reference_type":
		return &syntax.RefType{
			Mut:  ChildOfKind(node, "mutable_specifier") != nil,
			Elem: typeExpr(ctx, node.ChildByFieldName("type")),
		}
	case "pointer_type":
		return &syntax.PtrType{
			Mut:  ChildOfKind(node, "mutable_specifier") != nil,
			Elem: typeExpr(ctx, node.ChildByFieldName("type")),
		}
	case "function_type":
		if node.ChildByFieldName("trait") != nil {
			return opaque(ctx, node)
		}
		fn := &syntax.FnType{Result: typeExpr(ctx, node.ChildByFieldName("return_type"))}
		for _, param := range NamedChildren(node.ChildByFieldName("parameters")) {
			if param.Kind() == "parameter" {
				fn.Params = append(fn.Params, typeExpr(ctx, param.ChildByFieldName("type")))
				continue
			}
			fn.Params = append(fn.Params, typeExpr(ctx, param))
		}
		return fn
	case "dynamic_type", "abstract_type", "bounded_type":
		obj := &syntax.TraitObjectType{}
		if !collectBounds(ctx, node, obj) || len(obj.Bounds) == 0 {
			return opaque(ctx, node)
		}
		return obj
	case "never_type":
		return &syntax.NeverType{}
	}
	return opaque(ctx, node)
}

// collectBounds gathers the trait paths of `dyn A + B` / `impl A + B`.
// Lifetime bounds are dropped. It reports false for bounds it cannot model.
func collectBounds(ctx *ExtractionContext, node *sitter.Node, obj *syntax.TraitObjectType) bool {
	switch node.Kind() {
	case "dynamic_type", "abstract_type":
		if node.Kind() == "abstract_type" {
			obj.Impl = true
		}
		return collectBounds(ctx, node.ChildByFieldName("trait"), obj)
	case "bounded_type":
		return collectBounds(ctx, node.ChildByFieldName("left"), obj) &&
			collectBounds(ctx, node.ChildByFieldName("right"), obj)
	case "lifetime":
		return true
	}
	p, ok := typeExpr(ctx, node).(*syntax.PathType)
	if !ok {
		return false
	}
	obj.Bounds = append(obj.Bounds, p)
	return true
}

func typeArgs(ctx *ExtractionContext, node *sitter.Node) []syntax.GenericArg {
	var args []syntax.GenericArg
	for _, child := range NamedChildren(node) {
		switch child.Kind() {
		case "lifetime":
		case "integer_literal", "boolean_literal", "negative_literal", "char_literal", "string_literal", "float_literal", "block":
			args = append(args, syntax.GenericArg{Const: &syntax.ConstExpr{Literal: ctx.Text(child)}})
		case "type_binding", "constraint", "trait_bounds":
			args = append(args, syntax.GenericArg{Type: opaque(ctx, child)})
		default:
			args = append(args, syntax.GenericArg{Type: typeExpr(ctx, child)})
		}
	}
	return args
}

func constExpr(ctx *ExtractionContext, node *sitter.Node) *syntax.ConstExpr {
	switch node.Kind() {
	case "identifier", "scoped_identifier":
		names, leading := pathNames(ctx, node)
		p := syntax.NewPath(names...)
		p.Leading = leading
		return &syntax.ConstExpr{Path: p}
	}
	return &syntax.ConstExpr{Literal: ctx.Text(node)}
}

func opaque(ctx *ExtractionContext, node *sitter.Node) syntax.Type {
	return &syntax.OpaqueType{Text: strings.Join(strings.Fields(ctx.Text(node)), " ")}
}
