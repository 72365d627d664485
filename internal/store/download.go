package store

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Downloads writes fetched files into Dir.
type Downloads struct {
	Dir string
}

// Path returns where a download of name lands. The server's name is kept,
// minus any directory part.
func (d Downloads) Path(name string) string {
	dir := strings.TrimSpace(d.Dir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, SafeName(name))
}

// Save stores the bytes produced by fetch under name and returns the final path.
// Nothing is left on disk when fetch fails.
func (d Downloads) Save(name string, fetch func(io.Writer) (int64, error)) (string, int64, error) {
	path := d.Path(name)
	n, err := WriteAtomic(path, fetch)
	if err != nil {
		return "", n, err
	}
	return path, n, nil
}

// Describe renders "<path> (<size>)" for status lines.
func Describe(path string, n int64) string {
	return fmt.Sprintf("%s (%s)", path, HumanSize(n))
}
