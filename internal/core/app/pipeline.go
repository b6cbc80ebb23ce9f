package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/classify"
	"idlbind/internal/engine/resolver"
	"idlbind/internal/engine/rewrite"
	"idlbind/internal/engine/symtab"
	"idlbind/internal/engine/syntax"
	"idlbind/internal/output"
	"idlbind/internal/shared/observability"
	"idlbind/internal/shared/util"
)

// Run executes every pass once over the configured sources. The first
// failure aborts the run; nothing is written unless all analysis passes
// succeed.
func (a *App) Run(ctx context.Context) (_ *Result, err error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	res := &Result{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	logger := slog.Default().With("run_id", res.RunID.String())

	ctx, span := observability.Tracer.Start(ctx, "idlbind.Run",
		trace.WithAttributes(attribute.String("run_id", res.RunID.String())))
	defer span.End()
	defer func() {
		if err != nil {
			observability.RecordFailure(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		a.writeMetrics(logger)
	}()

	var files []SourceFile
	err = a.pass(ctx, logger, "scan", func(_ context.Context, span trace.Span) error {
		var err error
		files, err = ScanSources(a.Config, a.Paths, a.filter)
		span.SetAttributes(attribute.Int("files", len(files)))
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Files = len(files)

	var parsed []*syntax.File
	err = a.pass(ctx, logger, "parse", func(ctx context.Context, _ trace.Span) error {
		var err error
		parsed, err = a.parseAll(ctx, files)
		return err
	})
	if err != nil {
		return nil, err
	}

	tree := symtab.NewTree(TreeOptions(a.Config.Engine))
	err = a.pass(ctx, logger, "populate", func(_ context.Context, span trace.Span) error {
		if err := symtab.Populate(tree, parsed); err != nil {
			return err
		}
		res.Modules, res.Symbols = tree.Stats()
		span.SetAttributes(attribute.Int("modules", res.Modules), attribute.Int("symbols", res.Symbols))
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs := resolver.NewResolver(tree).WithLogger(logger)
	err = a.pass(ctx, logger, "resolve", func(_ context.Context, span trace.Span) error {
		err := rs.ResolveAll()
		span.SetAttributes(attribute.Int("walks", rs.Walks()))
		return err
	})
	if err != nil {
		return nil, err
	}

	err = a.pass(ctx, logger, "classify", func(_ context.Context, span trace.Span) error {
		var err error
		res.BoundaryTypes, err = classify.Classify(rs, a.Config.Engine.BoundaryWrappers)
		span.SetAttributes(attribute.Int("boundary_types", len(res.BoundaryTypes)))
		return err
	})
	if err != nil {
		return nil, err
	}

	err = a.pass(ctx, logger, "rewrite", func(_ context.Context, span trace.Span) error {
		for _, iface := range tree.Interfaces() {
			canonical, err := rs.CanonicalizeTrait(iface)
			if err != nil {
				return err
			}
			res.Interfaces = append(res.Interfaces, output.InterfaceView{
				Path:      iface.Entry.CanonicalString(),
				Canonical: canonical,
				Rewritten: rewrite.Trait(canonical, a.Config.Rewrite.From, a.Config.Rewrite.To),
			})
		}
		span.SetAttributes(attribute.Int("interfaces", len(res.Interfaces)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Tree = tree

	// Reports only replace the previous ones once the store export has
	// committed.
	err = a.pass(ctx, logger, "outputs", func(ctx context.Context, span trace.Span) error {
		staged, err := a.stageOutputs(res)
		if err != nil {
			return err
		}
		if err := a.saveRun(ctx, res); err != nil {
			discardAll(staged)
			return err
		}
		if err := commitOutputs(res, staged); err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("files", len(res.Outputs)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(res.StartedAt)
	observability.RecordTotals(res.Modules, res.Symbols, len(res.BoundaryTypes))
	logger.Info("run complete",
		"files", res.Files,
		"modules", res.Modules,
		"symbols", res.Symbols,
		"interfaces", len(res.Interfaces),
		"boundary_types", len(res.BoundaryTypes),
		"elapsed", res.Elapsed)
	return res, nil
}

// pass runs fn under its own span and records its duration. Failures get the
// pass name as operation context.
func (a *App) pass(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context, trace.Span) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := observability.Tracer.Start(ctx, name, trace.WithAttributes(attribute.String("pass", name)))
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	elapsed := time.Since(start)
	observability.ObservePass(name, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.AddContext(err, errors.CtxOperation, name)
	}
	logger.Debug("pass complete", "pass", name, "elapsed", elapsed)
	return nil
}

// parseAll parses files concurrently. Results keep the input order, and the
// reported failure is the first one in that order.
func (a *App) parseAll(ctx context.Context, files []SourceFile) ([]*syntax.File, error) {
	parsed := make([]*syntax.File, len(files))
	errs := make([]error, len(files))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			content, err := os.ReadFile(f.Path)
			if err != nil {
				errs[i] = errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxFile, f.Path)
				return
			}
			parsed[i], errs[i] = a.parser.ParseFile(a.displayPath(f.Path), f.Module, content)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

// displayPath is the project-relative form recorded in positions, so that
// reports do not depend on where the project is checked out.
func (a *App) displayPath(path string) string {
	rel, err := filepath.Rel(a.Paths.ProjectRoot, path)
	if err != nil || util.HasPathPrefix(rel, "..") {
		return util.SlashPath(path)
	}
	return util.SlashPath(rel)
}

func (a *App) writeMetrics(logger *slog.Logger) {
	if a.Paths.MetricsFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.Paths.MetricsFile), 0o755); err != nil {
		logger.Warn("failed to create metrics directory", "path", a.Paths.MetricsFile, "error", err)
		return
	}
	if err := observability.WriteMetrics(a.Paths.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", a.Paths.MetricsFile, "error", err)
	}
}
