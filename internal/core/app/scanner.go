package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"idlbind/internal/core/config"
	"idlbind/internal/core/errors"
	"idlbind/internal/shared/util"
)

const sourceExt = ".rs"

// SourceFile is one .rs file and the module it populates.
type SourceFile struct {
	Path   string
	Module []string
}

// SourceFilter decides which directories and files take part in a run. Bare
// patterns match base names; patterns containing a separator are prefixes
// relative to the project root.
type SourceFilter struct {
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
	prefixes  []string
}

func NewSourceFilter(projectRoot string, excludeDirs, excludeFiles []string, ignore ...string) (*SourceFilter, error) {
	f := &SourceFilter{}
	for _, p := range excludeDirs {
		if util.ContainsPathSeparator(p) {
			f.prefixes = append(f.prefixes, config.ResolveRelative(projectRoot, p))
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		f.dirGlobs = append(f.dirGlobs, g)
	}
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		f.fileGlobs = append(f.fileGlobs, g)
	}
	for _, p := range ignore {
		if strings.TrimSpace(p) != "" {
			f.prefixes = append(f.prefixes, filepath.Clean(p))
		}
	}
	return f, nil
}

func (f *SourceFilter) SkipDir(path string) bool {
	if f.underPrefix(path) {
		return true
	}
	base := filepath.Base(path)
	for _, g := range f.dirGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// SkipFile rejects non-.rs files as well as excluded ones.
func (f *SourceFilter) SkipFile(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), sourceExt) {
		return true
	}
	if f.underPrefix(path) {
		return true
	}
	base := filepath.Base(path)
	for _, g := range f.fileGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (f *SourceFilter) underPrefix(path string) bool {
	for _, prefix := range f.prefixes {
		if util.HasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ScanSources lists every .rs file of the configured sources with its start
// module, ordered by module depth and then path.
func ScanSources(cfg *config.Config, resolved config.ResolvedPaths, filter *SourceFilter) ([]SourceFile, error) {
	var files []SourceFile
	owner := make(map[string]string)

	for i, src := range cfg.Sources {
		root := resolved.Sources[i]
		base := src.ModulePath()

		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "source not readable"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			key := strings.Join(base, "::")
			if prev, ok := owner[key]; ok {
				return nil, errors.Newf(errors.CodeValidationError, "module %q is defined by both %s and %s", key, prev, root).
					WithContext(errors.CtxFile, root)
			}
			owner[key] = root
			files = append(files, SourceFile{Path: root, Module: base})
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if filter.SkipFile(path) {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			module := append(append([]string(nil), base...), ModuleFor(rel)...)
			key := strings.Join(module, "::")
			if prev, ok := owner[key]; ok {
				return errors.Newf(errors.CodeValidationError, "module %q is defined by both %s and %s", key, prev, path).
					WithContext(errors.CtxFile, path)
			}
			owner[key] = path
			files = append(files, SourceFile{Path: path, Module: module})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if len(files[i].Module) != len(files[j].Module) {
			return len(files[i].Module) < len(files[j].Module)
		}
		return files[i].Path < files[j].Path
	})
	slog.Debug("scanned sources", "files", len(files))
	return files, nil
}

// ModuleFor maps a path relative to a source root onto the module it
// populates: lib.rs and main.rs at the root are the root itself, x/mod.rs is
// x, and x/y.rs is x::y.
func ModuleFor(rel string) []string {
	slashed := util.SlashPath(rel)
	parts := strings.Split(strings.TrimSuffix(slashed, filepath.Ext(slashed)), "/")
	last := parts[len(parts)-1]

	switch {
	case len(parts) == 1 && (last == "lib" || last == "main"):
		return nil
	case last == "mod":
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
