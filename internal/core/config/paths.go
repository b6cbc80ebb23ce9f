package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds the absolute locations a run reads from and writes to.
type ResolvedPaths struct {
	ProjectRoot string
	Sources     []string // parallel to Config.Sources
	OutputDir   string
	DBPath      string
	MetricsFile string
}

// ResolvePaths anchors every relative path in cfg at the project root. An
// unset project root is detected by walking up from the sources and cwd.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		candidates := make([]string, 0, len(cfg.Sources)+1)
		for _, src := range cfg.Sources {
			candidates = append(candidates, ResolveRelative(cwd, src.Path))
		}
		root, err := DetectProjectRoot(append(candidates, cwd))
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		OutputDir:   ResolveRelative(projectRoot, cfg.Output.Dir),
		DBPath:      ResolveRelative(projectRoot, cfg.DB.Path),
	}
	for _, src := range cfg.Sources {
		resolved.Sources = append(resolved.Sources, ResolveRelative(projectRoot, src.Path))
	}
	if metrics := strings.TrimSpace(cfg.Observability.MetricsFile); metrics != "" {
		resolved.MetricsFile = ResolveRelative(projectRoot, metrics)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot returns the nearest ancestor of the first candidate that
// holds a project marker, falling back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"idlbind.toml",
		"Cargo.toml",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
