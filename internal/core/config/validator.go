package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateSources(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one [[sources]] entry is required")
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		ref := fmt.Sprintf("sources[%d]", i)
		if src.Path == "" {
			return fmt.Errorf("%s.path must not be empty", ref)
		}
		if seen[src.Path] {
			return fmt.Errorf("duplicate source path %q", src.Path)
		}
		seen[src.Path] = true
		for _, segment := range src.ModulePath() {
			if !identPattern.MatchString(segment) {
				return fmt.Errorf("%s.module %q has invalid segment %q", ref, src.Module, segment)
			}
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("exclude.dirs must not include empty values")
		}
		if _, err := glob.Compile(dir); err != nil {
			return fmt.Errorf("exclude.dirs pattern %q: %w", dir, err)
		}
	}
	for _, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateEngine(cfg *Config) error {
	eng := cfg.Engine
	if !identPattern.MatchString(eng.RootName) {
		return fmt.Errorf("engine.root_name %q is not an identifier", eng.RootName)
	}
	switch eng.RestrictedVisibility {
	case "public", "private":
	default:
		return fmt.Errorf("engine.restricted_visibility must be one of: public, private")
	}
	for _, wrapper := range eng.BoundaryWrappers {
		if wrapper == "" {
			return fmt.Errorf("engine.boundary_wrappers must not include empty values")
		}
		for _, segment := range strings.Split(wrapper, "::") {
			if !identPattern.MatchString(segment) {
				return fmt.Errorf("engine.boundary_wrappers entry %q has invalid segment %q", wrapper, segment)
			}
		}
	}
	if err := validateNames("engine.extern_crates", eng.ExternCrates); err != nil {
		return err
	}
	if err := validateNames("engine.builtins", eng.Builtins); err != nil {
		return err
	}
	for _, crate := range eng.ExternCrates {
		if crate == eng.RootName {
			return fmt.Errorf("engine.extern_crates must not contain the root name %q", eng.RootName)
		}
	}
	return nil
}

func validateNames(field string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("%s entry %q is not an identifier", field, name)
		}
		if seen[name] {
			return fmt.Errorf("%s repeats %q", field, name)
		}
		seen[name] = true
	}
	return nil
}

func validateRewrite(cfg *Config) error {
	if !identPattern.MatchString(cfg.Rewrite.From) {
		return fmt.Errorf("rewrite.from %q is not an identifier", cfg.Rewrite.From)
	}
	if !identPattern.MatchString(cfg.Rewrite.To) {
		return fmt.Errorf("rewrite.to %q is not an identifier", cfg.Rewrite.To)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	names := map[string]string{
		"output.symbols_tsv":  cfg.Output.SymbolsTSV,
		"output.boundary_tsv": cfg.Output.BoundaryTSV,
		"output.module_dot":   cfg.Output.ModuleDOT,
		"output.rewritten_rs": cfg.Output.RewrittenRS,
	}
	seen := make(map[string]string, len(names))
	for _, field := range []string{"output.symbols_tsv", "output.boundary_tsv", "output.module_dot", "output.rewritten_rs"} {
		name := strings.TrimSpace(names[field])
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%s must be a file name inside output.dir, got %q", field, name)
		}
		if previous, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both write %q", previous, field, name)
		}
		seen[name] = field
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if cfg.DB.ProjectKey == "" {
		return fmt.Errorf("db.project_key must not be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return nil
}
