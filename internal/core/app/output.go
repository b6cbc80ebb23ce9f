package app

import (
	"context"
	"fmt"
	"path/filepath"

	"idlbind/internal/data/symbolstore"
	"idlbind/internal/output"
	"idlbind/internal/shared/util"
)

// stageOutputs renders every report next to its destination in the output
// directory. Nothing is visible until the staged files are committed.
func (a *App) stageOutputs(res *Result) ([]*util.StagedFile, error) {
	cfg := a.Config.Output

	symbols, err := output.NewTSVGenerator().Symbols(res.Tree.Records())
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.SymbolsTSV, err)
	}
	boundary, err := output.NewTSVGenerator().BoundaryTypes(res.BoundaryTypes)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.BoundaryTSV, err)
	}
	dot, err := output.NewDOTGenerator(res.Tree).Generate()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.ModuleDOT, err)
	}
	rust, err := output.NewRustGenerator(a.Config.Rewrite.From, a.Config.Rewrite.To).Generate(res.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.RewrittenRS, err)
	}

	targets := []struct {
		name    string
		content string
	}{
		{cfg.SymbolsTSV, symbols},
		{cfg.BoundaryTSV, boundary},
		{cfg.ModuleDOT, dot},
		{cfg.RewrittenRS, rust},
	}
	staged := make([]*util.StagedFile, 0, len(targets))
	for _, target := range targets {
		path := filepath.Join(a.Paths.OutputDir, target.name)
		f, err := util.StageFile(path, []byte(target.content), 0o644)
		if err != nil {
			discardAll(staged)
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		staged = append(staged, f)
	}
	return staged, nil
}

// commitOutputs moves staged reports into place in order.
func commitOutputs(res *Result, staged []*util.StagedFile) error {
	for i, f := range staged {
		if err := f.Commit(); err != nil {
			discardAll(staged[i+1:])
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		res.Outputs = append(res.Outputs, f.Path)
	}
	return nil
}

func discardAll(staged []*util.StagedFile) {
	for _, f := range staged {
		f.Discard()
	}
}

// saveRun exports the run to the symbol store when [db] is enabled.
func (a *App) saveRun(ctx context.Context, res *Result) error {
	if a.store == nil {
		return nil
	}
	boundary := make([]symbolstore.Boundary, 0, len(res.BoundaryTypes))
	for _, bt := range res.BoundaryTypes {
		boundary = append(boundary, symbolstore.Boundary{ID: bt.ID, Type: bt.Key})
	}
	return a.store.SaveRun(ctx, symbolstore.Run{
		ID:        res.RunID,
		StartedAt: res.StartedAt,
		Modules:   res.Modules,
		Symbols:   res.Tree.Records(),
		Boundary:  boundary,
	})
}
