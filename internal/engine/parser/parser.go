// Package parser is the tree-sitter-rust frontend that turns IDL source files
// into syntax trees.
package parser

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/syntax"
)

// Parser parses IDL files. It recycles tree-sitter parser instances and is
// safe for concurrent use.
type Parser struct {
	lang      *sitter.Language
	pool      sync.Pool
	extractor *RustExtractor
}

func NewParser() *Parser {
	lang := sitter.NewLanguage(tree_sitter_rust.Language())
	p := &Parser{lang: lang, extractor: NewRustExtractor()}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(lang)
		return sp
	}
	return p
}

// ParseFile parses content and returns its items assigned to module, a path
// relative to the crate root.
func (p *Parser) ParseFile(path string, module []string, content []byte) (*syntax.File, error) {
	sp := p.pool.Get().(*sitter.Parser)
	defer func() {
		sp.Reset()
		p.pool.Put(sp)
	}()
	sp.SetLanguage(p.lang)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.Newf(errors.CodeInternal, "parse failed").WithContext(errors.CtxFile, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, content, root)
	}

	items, err := p.extractor.Extract(root, content, path)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxFile, path)
	}
	return &syntax.File{
		Path:   path,
		Module: append([]string(nil), module...),
		Items:  items,
	}, nil
}

func syntaxError(path string, content []byte, root *sitter.Node) error {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPosition()
	snippet := string(content[bad.StartByte():bad.EndByte()])
	if len(snippet) > 40 {
		snippet = snippet[:40] + "..."
	}
	msg := fmt.Sprintf("syntax error near %q", snippet)
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Kind())
	}
	return errors.Newf(errors.CodeSyntaxError, "%s", msg).
		WithContext(errors.CtxFile, path).
		WithContext(errors.CtxLine, int(pos.Row)+1).
		WithContext("column", int(pos.Column)+1)
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
