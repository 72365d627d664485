package store

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteAtomic streams fill into a temp file next to path and renames it into
// place, so a failed or partial transfer never leaves a truncated file behind.
func WriteAtomic(path string, fill func(io.Writer) (int64, error)) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	n, err := fill(f)
	if err != nil {
		_ = f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	_ = os.Chmod(tmp, 0o644)
	return n, os.Rename(tmp, path)
}

// SafeName reduces a server-side filename to a single local path element.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "download"
	}
	return base
}
