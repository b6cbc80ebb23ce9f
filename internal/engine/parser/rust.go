package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
)

// RustExtractor maps tree-sitter-rust item nodes onto the IDL syntax tree.
type RustExtractor struct {
	engine *ExtractorEngine
}

func NewRustExtractor() *RustExtractor {
	x := &RustExtractor{}
	x.engine = NewExtractorEngine(map[string]NodeHandler{
		"mod_item":                x.handleMod,
		"struct_item":             x.handleData(syntax.DataStruct),
		"enum_item":               x.handleData(syntax.DataEnum),
		"union_item":              x.handleData(syntax.DataUnion),
		"trait_item":              x.handleTrait,
		"function_item":           x.handleFn,
		"function_signature_item": x.handleFn,
		"type_item":               x.handleTypeAlias,
		"const_item":              x.handleConst(false),
		"static_item":             x.handleConst(true),
		"use_declaration":         x.handleUse,
	})
	return x
}

// Extract converts a parsed source_file into items.
func (x *RustExtractor) Extract(root *sitter.Node, source []byte, path string) ([]syntax.Item, error) {
	ctx := &ExtractionContext{Source: source, Path: path}
	return x.engine.Items(ctx, root)
}

func (x *RustExtractor) handleMod(ctx *ExtractionContext, node *sitter.Node) error {
	decl := &syntax.ModDecl{
		Name: ctx.FieldText(node, "name"),
		Vis:  visibility(ctx, node),
		Pos:  ctx.Location(node),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		items, err := x.engine.Items(ctx, body)
		if err != nil {
			return err
		}
		decl.Inline = true
		decl.Items = items
	}
	ctx.Emit(decl)
	return nil
}

func (x *RustExtractor) handleData(kind syntax.DataKind) NodeHandler {
	return func(ctx *ExtractionContext, node *sitter.Node) error {
		ctx.Emit(&syntax.DataDecl{
			Name:     ctx.FieldText(node, "name"),
			Vis:      visibility(ctx, node),
			Kind:     kind,
			Generics: typeParams(ctx, node.ChildByFieldName("type_parameters")),
			Pos:      ctx.Location(node),
		})
		return nil
	}
}

func (x *RustExtractor) handleTrait(ctx *ExtractionContext, node *sitter.Node) error {
	decl := &syntax.TraitDecl{
		Name:     ctx.FieldText(node, "name"),
		Vis:      visibility(ctx, node),
		Generics: typeParams(ctx, node.ChildByFieldName("type_parameters")),
		Pos:      ctx.Location(node),
	}
	for _, child := range NamedChildren(node.ChildByFieldName("body")) {
		switch child.Kind() {
		case "function_signature_item", "function_item":
			decl.Methods = append(decl.Methods, signature(ctx, child))
		}
	}
	ctx.Emit(decl)
	return nil
}

func (x *RustExtractor) handleFn(ctx *ExtractionContext, node *sitter.Node) error {
	sig := signature(ctx, node)
	ctx.Emit(&syntax.FnDecl{
		Name:      sig.Name,
		Vis:       visibility(ctx, node),
		Signature: sig,
		Pos:       sig.Pos,
	})
	return nil
}

func (x *RustExtractor) handleTypeAlias(ctx *ExtractionContext, node *sitter.Node) error {
	ctx.Emit(&syntax.TypeAliasDecl{
		Name:     ctx.FieldText(node, "name"),
		Vis:      visibility(ctx, node),
		Generics: typeParams(ctx, node.ChildByFieldName("type_parameters")),
		Type:     typeExpr(ctx, node.ChildByFieldName("type")),
		Pos:      ctx.Location(node),
	})
	return nil
}

func (x *RustExtractor) handleConst(static bool) NodeHandler {
	return func(ctx *ExtractionContext, node *sitter.Node) error {
		ctx.Emit(&syntax.ConstDecl{
			Name:   ctx.FieldText(node, "name"),
			Vis:    visibility(ctx, node),
			Type:   typeExpr(ctx, node.ChildByFieldName("type")),
			Value:  ctx.FieldText(node, "value"),
			Static: static,
			Pos:    ctx.Location(node),
		})
		return nil
	}
}

func (x *RustExtractor) handleUse(ctx *ExtractionContext, node *sitter.Node) error {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return errors.New(errors.CodeSyntaxError, "use declaration without argument")
	}
	tree, leading, err := useTree(ctx, arg)
	if err != nil {
		return errors.AddContext(errors.AddContext(err, errors.CtxFile, ctx.Path), errors.CtxLine, ctx.Location(node).Line)
	}
	ctx.Emit(&syntax.UseDecl{
		Vis:     visibility(ctx, node),
		Leading: leading,
		Tree:    tree,
		Pos:     ctx.Location(node),
	})
	return nil
}

func visibility(ctx *ExtractionContext, node *sitter.Node) syntax.Visibility {
	mod := ChildOfKind(node, "visibility_modifier")
	if mod == nil {
		return syntax.VisInherited
	}
	if strings.TrimSpace(ctx.Text(mod)) == "pub" {
		return syntax.VisPublic
	}
	return syntax.VisRestricted
}

// typeParams returns the names of type and const parameters; lifetimes are
// dropped.
func typeParams(ctx *ExtractionContext, node *sitter.Node) []string {
	var names []string
	for _, child := range NamedChildren(node) {
		switch child.Kind() {
		case "type_identifier", "identifier":
			names = append(names, ctx.Text(child))
		case "lifetime", "lifetime_parameter":
		default:
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, ctx.Text(name))
			} else if left := child.ChildByFieldName("left"); left != nil {
				names = append(names, ctx.Text(left))
			} else if id := ChildOfKind(child, "type_identifier"); id != nil {
				names = append(names, ctx.Text(id))
			} else if id := ChildOfKind(child, "identifier"); id != nil {
				names = append(names, ctx.Text(id))
			}
		}
	}
	return names
}

func signature(ctx *ExtractionContext, node *sitter.Node) *syntax.Method {
	m := &syntax.Method{
		Name:     ctx.FieldText(node, "name"),
		Generics: typeParams(ctx, node.ChildByFieldName("type_parameters")),
		Pos:      ctx.Location(node),
	}
	for _, param := range NamedChildren(node.ChildByFieldName("parameters")) {
		switch param.Kind() {
		case "self_parameter":
			m.Receiver = receiver(ctx.Text(param))
		case "parameter":
			pattern := ctx.FieldText(param, "pattern")
			if pattern == "self" || pattern == "mut self" {
				m.Receiver = syntax.ReceiverValue
				continue
			}
			m.Params = append(m.Params, &syntax.Param{
				Name: pattern,
				Type: typeExpr(ctx, param.ChildByFieldName("type")),
			})
		default:
			m.Params = append(m.Params, &syntax.Param{Name: "_", Type: &syntax.OpaqueType{Text: ctx.Text(param)}})
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		m.Result = typeExpr(ctx, ret)
	}
	return m
}

func receiver(text string) syntax.ReceiverKind {
	text = strings.Join(strings.Fields(text), " ")
	if !strings.HasPrefix(text, "&") {
		return syntax.ReceiverValue
	}
	if strings.Contains(text, "mut ") {
		return syntax.ReceiverRefMut
	}
	return syntax.ReceiverRef
}
