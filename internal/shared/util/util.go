package util

import (
	"cmp"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// SlashPath cleans s and uses forward slashes, so exclude patterns behave the
// same on every platform. "." becomes "".
func SlashPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when p equals prefix or is contained within it.
func HasPathPrefix(p, prefix string) bool {
	p = SlashPath(p)
	prefix = SlashPath(prefix)
	if p == "" || prefix == "" {
		return p == prefix
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func ContainsPathSeparator(value string) bool {
	return strings.ContainsAny(value, `/\`)
}

// SortedKeys returns the map's keys in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// StagedFile is file content written next to its destination but not yet
// moved into place.
type StagedFile struct {
	Path string
	tmp  string
}

// StageFile creates parent directories (0755) and writes data to a temporary
// file beside path. Nothing at path changes until Commit, and the rename means
// readers never see a partially written report.
func StageFile(path string, data []byte, perm fs.FileMode) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return &StagedFile{Path: path, tmp: tmp.Name()}, nil
}

// Commit renames the staged content over Path.
func (f *StagedFile) Commit() error {
	if err := os.Rename(f.tmp, f.Path); err != nil {
		os.Remove(f.tmp)
		return err
	}
	return nil
}

// Discard removes the staged content. Path is left untouched.
func (f *StagedFile) Discard() {
	os.Remove(f.tmp)
}
