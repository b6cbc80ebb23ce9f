package app

import (
	"context"
	"log/slog"

	"idlbind/internal/core/watcher"
)

// Watch re-runs the whole pipeline after every debounced batch of source
// changes until ctx is done. Failed runs are logged and watching continues.
// onRun, when set, sees the outcome of every run.
func (a *App) Watch(ctx context.Context, onRun func(*Result, error)) error {
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.filter, func(paths []string) {
		slog.Info("detected changes", "count", len(paths))
		res, err := a.Run(ctx)
		if err != nil {
			slog.Error("rebuild failed", "error", err)
		}
		if onRun != nil {
			onRun(res, err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.Paths.Sources); err != nil {
		return err
	}
	slog.Info("watching sources", "paths", a.Paths.Sources, "debounce", a.Config.Watch.Debounce)
	<-ctx.Done()
	return nil
}
