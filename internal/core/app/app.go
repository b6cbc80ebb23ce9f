// Package app wires the engine passes, report writers, symbol store and
// watch mode into one run.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"idlbind/internal/core/config"
	"idlbind/internal/data/symbolstore"
	"idlbind/internal/engine/classify"
	"idlbind/internal/engine/parser"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/output"
)

// Result summarizes one successful run.
type Result struct {
	RunID         uuid.UUID
	StartedAt     time.Time
	Elapsed       time.Duration
	Files         int
	Modules       int
	Symbols       int
	Interfaces    []output.InterfaceView
	BoundaryTypes []classify.BoundaryType
	Outputs       []string // absolute paths written, in write order
	Tree          *symtab.Tree
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	parser *parser.Parser
	filter *SourceFilter
	store  *symbolstore.Store

	runMu sync.Mutex // one run at a time
}

// New resolves the configured paths against cwd and opens the symbol store
// when it is enabled.
func New(cfg *config.Config, cwd string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}
	filter, err := NewSourceFilter(paths.ProjectRoot, cfg.Exclude.Dirs, cfg.Exclude.Files, paths.OutputDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Paths:  paths,
		parser: parser.NewParser(),
		filter: filter,
	}
	if cfg.DB.Enabled {
		store, err := symbolstore.Open(paths.DBPath, cfg.DB.ProjectKey, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open symbol store: %w", err)
		}
		a.store = store
		slog.Info("symbol store enabled", "path", store.Path(), "project", store.ProjectKey())
	}
	return a, nil
}

// Store returns the open symbol store, or nil when [db] is disabled.
func (a *App) Store() *symbolstore.Store { return a.store }

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// TreeOptions maps the [engine] settings onto symbol-table options. Empty
// lists fall back to the engine defaults.
func TreeOptions(eng config.Engine) symtab.Options {
	opts := symtab.Options{
		RootName:           eng.RootName,
		Builtins:           eng.Builtins,
		ExternCrates:       eng.ExternCrates,
		RestrictedIsPublic: eng.RestrictedIsPublic(),
	}
	if len(opts.Builtins) == 0 {
		opts.Builtins = symtab.DefaultBuiltins
	}
	if len(opts.ExternCrates) == 0 {
		opts.ExternCrates = symtab.DefaultExternCrates
	}
	return opts
}
