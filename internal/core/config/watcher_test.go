package config

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

const watchedConfig = `
version = 1

[[sources]]
path = "src"

[engine]
root_name = "%s"
`

func TestWatcher_ReloadsValidConfig(t *testing.T) {
	path := writeConfig(t, sprintfConfig("crate"))

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)

	// Invalid edits are rejected without reaching the callback.
	if err := os.WriteFile(path, []byte("version = 1\n[engine]\nroot_name = \"a::b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload of invalid config: %+v", cfg.Engine)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte(sprintfConfig("root")), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Engine.RootName != "root" {
			t.Fatalf("expected reloaded root name, got %q", cfg.Engine.RootName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, sprintfConfig("crate"))
	w := NewWatcher(path, func(*Config) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func sprintfConfig(root string) string {
	return fmt.Sprintf(watchedConfig, root)
}
