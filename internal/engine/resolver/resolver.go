// Package resolver turns every import alias in a populated symbol tree into
// the terminal entry it denotes, and maps type paths in signatures to their
// canonical absolute form.
package resolver

import (
	"log/slog"
	"strings"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
)

// Resolver mutates a populated tree in place. It is not safe for concurrent
// use; a run owns exactly one.
type Resolver struct {
	tree   *symtab.Tree
	logger *slog.Logger

	walks int
}

func NewResolver(tree *symtab.Tree) *Resolver {
	return &Resolver{tree: tree, logger: slog.Default()}
}

// WithLogger replaces the logger used for debug output.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Tree returns the tree being resolved.
func (r *Resolver) Tree() *symtab.Tree { return r.tree }

// Walks returns how many path walks have been performed. Settled aliases are
// not walked again.
func (r *Resolver) Walks() int { return r.walks }

// ResolveAll settles every alias in the tree. Entries are visited in Walk
// order, but any alias may pull in others on demand, so declaration order
// does not matter.
func (r *Resolver) ResolveAll() error {
	resolved := 0
	err := r.tree.Walk(func(_ *symtab.Module, entry *symtab.Entry) error {
		if entry.Kind != symtab.KindAlias {
			return nil
		}
		if _, err := r.Resolve(entry); err != nil {
			return err
		}
		resolved++
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug("aliases resolved", "count", resolved, "walks", r.walks)
	return nil
}

// Resolve returns the terminal state of entry, settling it first if it is an
// alias. Aliases the walk depends on are settled first using an explicit
// stack; re-entering an alias that is already on the stack is a cycle.
func (r *Resolver) Resolve(entry *symtab.Entry) (*symtab.Entry, error) {
	if entry.Kind.Terminal() {
		return entry, nil
	}
	if entry.State == symtab.InProgress {
		return nil, r.cycleError(entry)
	}

	stack := []*symtab.Entry{entry}
	entry.State = symtab.InProgress

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		target, pending, err := r.walk(top)
		if err != nil {
			abandon(stack)
			return nil, err
		}
		if pending != nil {
			if pending.State == symtab.InProgress {
				err := r.cycleError(pending)
				abandon(stack)
				return nil, err
			}
			pending.State = symtab.InProgress
			stack = append(stack, pending)
			continue
		}
		top.Settle(target)
		r.logger.Debug("alias settled",
			"module", r.tree.Module(top.Owner).PathString(),
			"name", top.Name,
			"path", top.Alias.String(),
			"canonical", top.CanonicalString(),
			"kind", top.Kind.String())
		stack = stack[:len(stack)-1]
	}
	return entry, nil
}

// abandon clears in-progress marks so a failed run leaves no entry stuck.
func abandon(stack []*symtab.Entry) {
	for _, e := range stack {
		if e.State == symtab.InProgress {
			e.State = symtab.Unresolved
		}
	}
}

func (r *Resolver) cycleError(entry *symtab.Entry) error {
	module := r.tree.Module(entry.Owner).PathString()
	return errors.Newf(errors.CodeCyclicAlias, "import %q in %s refers back to itself", entry.Name, module).
		WithContext(errors.CtxSymbol, entry.Name).
		WithContext(errors.CtxModule, module).
		WithContext(errors.CtxPath, entry.Alias.String())
}

// walk follows alias's path once. It returns the terminal target, or an
// unsettled alias that has to be resolved before the walk can finish.
func (r *Resolver) walk(alias *symtab.Entry) (target, pending *symtab.Entry, err error) {
	r.walks++
	path := alias.Alias
	origin := alias.Owner
	fail := func(code errors.ErrorCode, format string, args ...interface{}) error {
		return errors.Newf(code, format, args...).
			WithContext(errors.CtxSymbol, alias.Name).
			WithContext(errors.CtxModule, r.tree.Module(origin).PathString()).
			WithContext(errors.CtxPath, path.String())
	}

	current, rest, err := r.start(alias)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return r.tree.ModuleEntry(current), nil, nil
	}

	for i, name := range rest {
		entry, lookupErr := r.tree.Lookup(current, name)
		if lookupErr != nil {
			if i == 0 && path.Qualifier == symtab.QualNone {
				if fallback := r.prelude(name, rest); fallback != nil {
					return fallback, nil, nil
				}
			}
			return nil, nil, fail(errors.CodeUnresolvedSymbol, "cannot find %q in %s", name, r.tree.Module(current).PathString())
		}
		if current != origin && !entry.Public {
			return nil, nil, fail(errors.CodeVisibilityViolation, "%q is private to %s", name, r.tree.Module(current).PathString())
		}
		if entry.Kind == symtab.KindAlias {
			return nil, entry, nil
		}
		if i == len(rest)-1 {
			return entry, nil, nil
		}

		switch entry.Kind {
		case symtab.KindModule:
			current = entry.Module
		case symtab.KindForeign:
			canonical := append(append([]string(nil), entry.Canonical...), rest[i+1:]...)
			return &symtab.Entry{Kind: symtab.KindForeign, Public: true, Canonical: canonical, State: symtab.Resolved}, nil, nil
		default:
			return nil, nil, fail(errors.CodeInvalidPathSegment, "%q in %s is a %s and cannot contain %q",
				name, r.tree.Module(current).PathString(), entry.Kind, rest[i+1])
		}
	}
	return nil, nil, fail(errors.CodeInternal, "path walk ended without a target")
}

// start picks the module a walk begins in and strips any further leading
// `super` segments.
func (r *Resolver) start(alias *symtab.Entry) (symtab.ModuleID, []string, error) {
	path := alias.Alias
	current := alias.Owner
	switch path.Qualifier {
	case symtab.QualRoot:
		current = r.tree.Root()
	case symtab.QualParent:
		current = r.tree.Parent(alias.Owner)
	}

	rest := path.Segments
	if path.Qualifier == symtab.QualParent || path.Qualifier == symtab.QualSelf {
		for len(rest) > 0 && rest[0] == "super" && current.IsValid() {
			current = r.tree.Parent(current)
			rest = rest[1:]
		}
	}
	if !current.IsValid() {
		module := r.tree.Module(alias.Owner).PathString()
		return symtab.NoModuleID, nil, errors.Newf(errors.CodeResolutionError, "`super` used in %s, which has no parent module", module).
			WithContext(errors.CtxSymbol, alias.Name).
			WithContext(errors.CtxModule, module).
			WithContext(errors.CtxPath, path.String())
	}
	return current, rest, nil
}

// prelude resolves an unqualified head segment that the enclosing module does
// not bind: a builtin name, or the first segment of an external crate.
func (r *Resolver) prelude(head string, rest []string) *symtab.Entry {
	if len(rest) == 1 {
		if builtin, ok := r.tree.Builtin(head); ok {
			return builtin
		}
	}
	if r.tree.IsExtern(head) {
		return &symtab.Entry{Kind: symtab.KindForeign, Public: true, Canonical: append([]string(nil), rest...), State: symtab.Resolved}
	}
	return nil
}

// ResolvePath resolves a path written inside module, as if it were imported
// there. Only the path's segment names are used.
func (r *Resolver) ResolvePath(module symtab.ModuleID, names []string, leading bool) (*symtab.Entry, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.CodeValidationError, "empty path")
	}
	if leading {
		return &symtab.Entry{Kind: symtab.KindForeign, Public: true, Canonical: append([]string(nil), names...), State: symtab.Resolved}, nil
	}
	qualifier, rest := symtab.SplitQualifier(names)
	probe := symtab.NewAlias(names[len(names)-1], &symtab.AliasPath{Qualifier: qualifier, Segments: rest}, false, syntax.Pos{})
	probe.Owner = module
	return r.Resolve(probe)
}

// Describe renders a resolved entry for logs and reports.
func Describe(entry *symtab.Entry) string {
	if entry == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(entry.Kind.String())
	if entry.Def != nil {
		b.WriteByte('/')
		b.WriteString(entry.Def.Kind.String())
	}
	b.WriteByte(' ')
	b.WriteString(entry.CanonicalString())
	return b.String()
}
