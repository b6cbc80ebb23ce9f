package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"idlbind/internal/engine/syntax"
)

// NodeHandler converts one item node into zero or more syntax items, which it
// appends through ctx.Emit.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) error

// ExtractionContext carries the source and the item list currently being
// filled. Module bodies swap the sink while their children are extracted.
type ExtractionContext struct {
	Source []byte
	Path   string

	sink *[]syntax.Item
}

// Emit appends an item to the current module body.
func (c *ExtractionContext) Emit(item syntax.Item) {
	*c.sink = append(*c.sink, item)
}

// ExtractorEngine dispatches item handlers by node kind. Kinds without a
// handler (impl blocks, macros, comments, attributes) are skipped.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

// Items extracts the items declared directly inside container.
func (e *ExtractorEngine) Items(ctx *ExtractionContext, container *sitter.Node) ([]syntax.Item, error) {
	var items []syntax.Item
	saved := ctx.sink
	ctx.sink = &items
	defer func() { ctx.sink = saved }()

	for i := uint(0); i < container.NamedChildCount(); i++ {
		child := container.NamedChild(i)
		handler, ok := e.handlers[child.Kind()]
		if !ok {
			continue
		}
		if err := handler(ctx, child); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Location(node *sitter.Node) syntax.Pos {
	return syntax.Pos{
		File:   c.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

// FieldText returns the text of node's named field, or "".
func (c *ExtractionContext) FieldText(node *sitter.Node, field string) string {
	return c.Text(node.ChildByFieldName(field))
}

// ChildOfKind returns the first direct child of the given kind.
func ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// NamedChildren returns node's named children, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "line_comment", "block_comment", "attribute_item", "inner_attribute_item":
			continue
		}
		out = append(out, child)
	}
	return out
}
