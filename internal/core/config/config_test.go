// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idlbind.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
version = 1

[paths]
project_root = "."

[[sources]]
path = "interface/src"

[[sources]]
path = "domains/pci.rs"
module = "dom::pci"

[exclude]
dirs = ["target"]
files = ["*_test.rs"]

[engine]
root_name = "root"
boundary_wrappers = ["rref::RRef", "Shared"]
extern_crates = ["core", "rref"]
restricted_visibility = "Private"

[rewrite]
to = "gen"

[output]
dir = "build"
module_dot = "tree.dot"

[db]
enabled = true
project_key = "pci"

[watch]
debounce = "1s"

[observability]
metrics_file = "out/idlbind.prom"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if got := cfg.Sources[1].ModulePath(); len(got) != 2 || got[0] != "dom" || got[1] != "pci" {
		t.Errorf("unexpected module path %v", got)
	}
	if cfg.Sources[0].ModulePath() != nil {
		t.Errorf("expected crate-root source, got %v", cfg.Sources[0].ModulePath())
	}
	if cfg.Engine.RootName != "root" {
		t.Errorf("expected root name root, got %s", cfg.Engine.RootName)
	}
	if cfg.Engine.RestrictedIsPublic() {
		t.Error("expected restricted visibility to count as private")
	}
	if len(cfg.Engine.BoundaryWrappers) != 2 || cfg.Engine.BoundaryWrappers[1] != "Shared" {
		t.Errorf("unexpected wrappers %v", cfg.Engine.BoundaryWrappers)
	}
	if cfg.Rewrite.From != "root" || cfg.Rewrite.To != "gen" {
		t.Errorf("expected rewrite root -> gen, got %s -> %s", cfg.Rewrite.From, cfg.Rewrite.To)
	}
	if cfg.Output.Dir != "build" || cfg.Output.ModuleDOT != "tree.dot" {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
	if cfg.Output.SymbolsTSV != "symbols.tsv" {
		t.Errorf("expected default symbols file, got %s", cfg.Output.SymbolsTSV)
	}
	if !cfg.DB.Enabled || cfg.DB.ProjectKey != "pci" {
		t.Errorf("unexpected db %+v", cfg.DB)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Observability.MetricsFile != "out/idlbind.prom" {
		t.Errorf("unexpected metrics file %q", cfg.Observability.MetricsFile)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Engine.RootName != "crate" {
		t.Errorf("expected crate root, got %s", cfg.Engine.RootName)
	}
	if len(cfg.Engine.BoundaryWrappers) != 1 || cfg.Engine.BoundaryWrappers[0] != "rref::RRef" {
		t.Errorf("unexpected default wrappers %v", cfg.Engine.BoundaryWrappers)
	}
	if !cfg.Engine.RestrictedIsPublic() {
		t.Error("restricted visibility should default to public")
	}
	if cfg.Rewrite.From != "crate" || cfg.Rewrite.To != "generated" {
		t.Errorf("unexpected rewrite defaults %+v", cfg.Rewrite)
	}
	if cfg.DB.Enabled {
		t.Error("db should be disabled by default")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no sources",
			content: `version = 1`,
			want:    "[[sources]]",
		},
		{
			name:    "unsupported version",
			content: "version = 3\n[[sources]]\npath = \"src\"\n",
			want:    "unsupported config version",
		},
		{
			name:    "empty source path",
			content: "[[sources]]\npath = \" \"\n",
			want:    "sources[0].path",
		},
		{
			name:    "duplicate source",
			content: "[[sources]]\npath = \"src\"\n[[sources]]\npath = \"src\"\n",
			want:    "duplicate source path",
		},
		{
			name:    "bad module segment",
			content: "[[sources]]\npath = \"src\"\nmodule = \"a::1b\"\n",
			want:    "invalid segment",
		},
		{
			name:    "bad visibility policy",
			content: "[[sources]]\npath = \"src\"\n[engine]\nrestricted_visibility = \"crate\"\n",
			want:    "restricted_visibility",
		},
		{
			name:    "bad wrapper",
			content: "[[sources]]\npath = \"src\"\n[engine]\nboundary_wrappers = [\"rref::\"]\n",
			want:    "boundary_wrappers",
		},
		{
			name:    "extern crate shadows root",
			content: "[[sources]]\npath = \"src\"\n[engine]\nextern_crates = [\"crate\"]\n",
			want:    "root name",
		},
		{
			name:    "repeated builtin",
			content: "[[sources]]\npath = \"src\"\n[engine]\nbuiltins = [\"u8\", \"u8\"]\n",
			want:    "repeats",
		},
		{
			name:    "bad rewrite target",
			content: "[[sources]]\npath = \"src\"\n[rewrite]\nto = \"gen-erated\"\n",
			want:    "rewrite.to",
		},
		{
			name:    "output collision",
			content: "[[sources]]\npath = \"src\"\n[output]\nsymbols_tsv = \"out.tsv\"\nboundary_tsv = \"out.tsv\"\n",
			want:    "both write",
		},
		{
			name:    "output with directory",
			content: "[[sources]]\npath = \"src\"\n[output]\nmodule_dot = \"a/b.dot\"\n",
			want:    "file name inside output.dir",
		},
		{
			name:    "bad exclude glob",
			content: "[[sources]]\npath = \"src\"\n[exclude]\nfiles = [\"[\"]\n",
			want:    "exclude.files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("IDLBIND_DB_ENABLED", "true")
	t.Setenv("IDLBIND_DB_PROJECT_KEY", "net")
	t.Setenv("IDLBIND_ENGINE_BOUNDARY_WRAPPERS", "rref::RRef, Shared ,")
	t.Setenv("IDLBIND_WATCH_DEBOUNCE", "2s")
	t.Setenv("IDLBIND_REWRITE_TO", "bindings")
	t.Setenv("IDLBIND_OUTPUT_DIR", "/tmp/idl")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if !cfg.DB.Enabled || cfg.DB.ProjectKey != "net" {
		t.Errorf("db overrides not applied: %+v", cfg.DB)
	}
	if len(cfg.Engine.BoundaryWrappers) != 2 || cfg.Engine.BoundaryWrappers[1] != "Shared" {
		t.Errorf("unexpected wrappers %v", cfg.Engine.BoundaryWrappers)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Rewrite.To != "bindings" || cfg.Output.Dir != "/tmp/idl" {
		t.Errorf("unexpected rewrite/output %+v %+v", cfg.Rewrite, cfg.Output)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("overridden config must validate: %v", err)
	}
}

func TestApplyEnvOverridesIgnoresMalformed(t *testing.T) {
	t.Setenv("IDLBIND_DB_ENABLED", "maybe")
	t.Setenv("IDLBIND_WATCH_DEBOUNCE", "soon")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)
	if cfg.DB.Enabled {
		t.Error("malformed bool must be ignored")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("malformed duration must be ignored, got %v", cfg.Watch.Debounce)
	}
}
