package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idlbind/internal/core/app"
	"idlbind/internal/core/config"
	"idlbind/internal/core/errors"
)

func runProject(t *testing.T) *app.Result {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib.rs"), []byte(`
pub struct Packet;
pub type Alias = Packet;
pub trait Net {
    fn send(&self, p: RRef<Alias>);
}
`), 0o644))

	cfg := config.DefaultConfig()
	cfg.Paths.ProjectRoot = root
	a, err := app.New(cfg, root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRenderSummary(t *testing.T) {
	res := runProject(t)
	out := renderSummary(res)

	assert.Contains(t, out, "1 files | 1 modules")
	assert.Contains(t, out, "1 interfaces, 1 boundary types")
	assert.Contains(t, out, "crate::Alias")
	assert.Contains(t, out, res.RunID.String())
	assert.Equal(t, len(res.Outputs), strings.Count(out, "wrote "))
}

func TestLookupPath(t *testing.T) {
	res := runProject(t)

	out, err := lookupPath(res, "crate::Packet")
	require.NoError(t, err)
	assert.Equal(t, "crate::Packet -> crate::Packet (data)", out)

	_, err = lookupPath(res, "crate::Missing")
	require.Error(t, err)
}

func TestRenderFailure(t *testing.T) {
	err := errors.New(errors.CodeCyclicAlias, "alias cycle")
	out := renderFailure(err)
	assert.Contains(t, out, "CYCLIC_ALIAS")
	assert.Contains(t, out, "alias cycle")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idlbind.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n\n[[sources]]\npath = \"idl\"\n\n[engine]\nroot_name = \"dom\"\n"), 0o644))

	cfg, fromFile, err := loadConfig(path)
	require.NoError(t, err)
	assert.True(t, fromFile)
	assert.Equal(t, "dom", cfg.Engine.RootName)

	_, _, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
