package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: IDLBIND_[SECTION]_[KEY] (e.g., IDLBIND_DB_ENABLED).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, "IDLBIND_PATHS_PROJECT_ROOT")

	setEnvString(&cfg.Engine.RootName, "IDLBIND_ENGINE_ROOT_NAME")
	setEnvList(&cfg.Engine.BoundaryWrappers, "IDLBIND_ENGINE_BOUNDARY_WRAPPERS")
	setEnvList(&cfg.Engine.ExternCrates, "IDLBIND_ENGINE_EXTERN_CRATES")
	setEnvString(&cfg.Engine.RestrictedVisibility, "IDLBIND_ENGINE_RESTRICTED_VISIBILITY")

	setEnvString(&cfg.Rewrite.From, "IDLBIND_REWRITE_FROM")
	setEnvString(&cfg.Rewrite.To, "IDLBIND_REWRITE_TO")

	setEnvString(&cfg.Output.Dir, "IDLBIND_OUTPUT_DIR")

	setEnvBool(&cfg.DB.Enabled, "IDLBIND_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "IDLBIND_DB_PATH")
	setEnvString(&cfg.DB.ProjectKey, "IDLBIND_DB_PROJECT_KEY")
	setEnvDuration(&cfg.DB.BusyTimeout, "IDLBIND_DB_BUSY_TIMEOUT")

	setEnvDuration(&cfg.Watch.Debounce, "IDLBIND_WATCH_DEBOUNCE")

	setEnvString(&cfg.Observability.MetricsFile, "IDLBIND_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.OTLPEndpoint, "IDLBIND_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*target = items
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
