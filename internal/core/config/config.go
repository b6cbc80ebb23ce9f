package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Sources       []Source      `toml:"sources"`
	Exclude       Exclude       `toml:"exclude"`
	Engine        Engine        `toml:"engine"`
	Rewrite       Rewrite       `toml:"rewrite"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
}

// Source is one crate root: a directory (walked recursively) or a single file.
type Source struct {
	Path   string `toml:"path"`
	Module string `toml:"module"` // "" for the crate root, "a::b" for a nested start module
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

// Engine holds the symbol-table and classification settings. Empty lists mean
// "use the engine defaults".
type Engine struct {
	RootName             string   `toml:"root_name"`
	BoundaryWrappers     []string `toml:"boundary_wrappers"`
	ExternCrates         []string `toml:"extern_crates"`
	Builtins             []string `toml:"builtins"`
	RestrictedVisibility string   `toml:"restricted_visibility"`
}

// RestrictedIsPublic reports how pub(crate)/pub(super)/pub(in ..) items count.
func (e Engine) RestrictedIsPublic() bool {
	return !strings.EqualFold(strings.TrimSpace(e.RestrictedVisibility), "private")
}

type Rewrite struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type Output struct {
	Dir         string `toml:"dir"`
	SymbolsTSV  string `toml:"symbols_tsv"`
	BoundaryTSV string `toml:"boundary_tsv"`
	ModuleDOT   string `toml:"module_dot"`
	RewrittenRS string `toml:"rewritten_rs"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsFile  string `toml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// DefaultConfig returns a configuration with every default applied and a single
// source rooted at "src".
func DefaultConfig() *Config {
	cfg := &Config{Sources: []Source{{Path: "src"}}}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes TOML text, applies defaults, and validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs every section validator in order and returns the first failure.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateSources,
		validateExclude,
		validateEngine,
		validateRewrite,
		validateOutput,
		validateDatabase,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"target", ".git"}
	}

	if strings.TrimSpace(cfg.Engine.RootName) == "" {
		cfg.Engine.RootName = "crate"
	}
	if len(cfg.Engine.BoundaryWrappers) == 0 {
		cfg.Engine.BoundaryWrappers = []string{"rref::RRef"}
	}
	if strings.TrimSpace(cfg.Engine.RestrictedVisibility) == "" {
		cfg.Engine.RestrictedVisibility = "public"
	}

	if strings.TrimSpace(cfg.Rewrite.From) == "" {
		cfg.Rewrite.From = cfg.Engine.RootName
	}
	if strings.TrimSpace(cfg.Rewrite.To) == "" {
		cfg.Rewrite.To = "generated"
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "out"
	}
	if strings.TrimSpace(cfg.Output.SymbolsTSV) == "" {
		cfg.Output.SymbolsTSV = "symbols.tsv"
	}
	if strings.TrimSpace(cfg.Output.BoundaryTSV) == "" {
		cfg.Output.BoundaryTSV = "boundary_types.tsv"
	}
	if strings.TrimSpace(cfg.Output.ModuleDOT) == "" {
		cfg.Output.ModuleDOT = "modules.dot"
	}
	if strings.TrimSpace(cfg.Output.RewrittenRS) == "" {
		cfg.Output.RewrittenRS = "interfaces.rs"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "out/idlbind.db"
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "idlbind"
	}
}

func normalize(cfg *Config) {
	for i := range cfg.Sources {
		cfg.Sources[i].Path = strings.TrimSpace(cfg.Sources[i].Path)
		cfg.Sources[i].Module = strings.TrimSpace(cfg.Sources[i].Module)
	}
	cfg.Engine.RootName = strings.TrimSpace(cfg.Engine.RootName)
	cfg.Engine.RestrictedVisibility = strings.ToLower(strings.TrimSpace(cfg.Engine.RestrictedVisibility))
	cfg.Engine.BoundaryWrappers = trimAll(cfg.Engine.BoundaryWrappers)
	cfg.Engine.ExternCrates = trimAll(cfg.Engine.ExternCrates)
	cfg.Engine.Builtins = trimAll(cfg.Engine.Builtins)
	cfg.Rewrite.From = strings.TrimSpace(cfg.Rewrite.From)
	cfg.Rewrite.To = strings.TrimSpace(cfg.Rewrite.To)
	cfg.DB.ProjectKey = strings.TrimSpace(cfg.DB.ProjectKey)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ModulePath splits a "a::b" source module into segments; "" yields nil.
func (s Source) ModulePath() []string {
	if s.Module == "" {
		return nil
	}
	return strings.Split(s.Module, "::")
}
