package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"idlbind/internal/core/app"
	"idlbind/internal/core/config"
	"idlbind/internal/shared/observability"
)

const defaultConfigPath = "./idlbind.toml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to config file")
	watch      = flag.Bool("watch", false, "Rebuild whenever a source file changes")
	lookup     = flag.String("lookup", "", "Print the canonical path bound at an absolute path such as crate::pci::PCI")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *version {
		fmt.Printf("idlbind v%s\n", VERSION)
		return 0
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	applyArgs(cfg)
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if *watch {
		watchPath := ""
		if fromFile {
			watchPath = *configPath
		}
		return watchLoop(ctx, cfg, cwd, watchPath)
	}
	return runOnce(ctx, cfg, cwd)
}

// loadConfig reads path. A missing default config file falls back to the
// built-in defaults; a missing explicit one is an error.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			slog.Info("no config file found, using defaults", "path", path)
			cfg = config.DefaultConfig()
			config.ApplyEnvOverrides(cfg)
			return cfg, false, nil
		}
		return nil, false, err
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, true, nil
}

// applyArgs lets a positional argument replace the configured sources.
func applyArgs(cfg *config.Config) {
	if flag.NArg() == 0 {
		return
	}
	sources := make([]config.Source, 0, flag.NArg())
	for _, arg := range flag.Args() {
		sources = append(sources, config.Source{Path: arg})
	}
	cfg.Sources = sources
}

func runOnce(ctx context.Context, cfg *config.Config, cwd string) int {
	a, err := app.New(cfg, cwd)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close()

	res, err := a.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, renderFailure(err))
		return 1
	}
	fmt.Print(renderSummary(res))

	if *lookup != "" {
		out, err := lookupPath(res, *lookup)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		fmt.Println(out)
	}
	return 0
}

// watchLoop serves --watch. A valid edit of the config file restarts the
// loop with the new configuration.
func watchLoop(ctx context.Context, cfg *config.Config, cwd, cfgPath string) int {
	for {
		a, err := app.New(cfg, cwd)
		if err != nil {
			slog.Error("failed to initialize app", "error", err)
			return 1
		}

		if res, err := a.Run(ctx); err != nil {
			fmt.Fprintln(os.Stderr, renderFailure(err))
		} else {
			fmt.Print(renderSummary(res))
		}

		genCtx, cancel := context.WithCancel(ctx)
		reloaded := make(chan *config.Config, 1)
		var cw *config.Watcher
		if cfgPath != "" {
			cw = config.NewWatcher(cfgPath, func(next *config.Config) {
				applyArgs(next)
				select {
				case reloaded <- next:
				default:
				}
				cancel()
			})
			if err := cw.Start(genCtx); err != nil {
				slog.Warn("config watcher unavailable", "path", cfgPath, "error", err)
				cw = nil
			}
		}

		err = a.Watch(genCtx, func(res *app.Result, err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, renderFailure(err))
				return
			}
			fmt.Print(renderSummary(res))
		})
		cancel()
		if cw != nil {
			cw.Stop()
		}
		_ = a.Close()
		if err != nil {
			slog.Error("watch failed", "error", err)
			return 1
		}

		select {
		case next := <-reloaded:
			slog.Info("restarting with reloaded config", "path", cfgPath)
			cfg = next
		default:
			return 0
		}
	}
}
