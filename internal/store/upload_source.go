package store

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
)

// UploadFilter selects files when a folder is expanded. Patterns are
// doublestar globs matched against the slash-separated path relative to the
// folder. An empty Include matches everything.
type UploadFilter struct {
	Include []string
	Exclude []string
}

// Validate rejects malformed patterns up front.
func (f UploadFilter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

func (f UploadFilter) match(rel string) bool {
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ExpandFolder returns every regular file below dir that passes the filter,
// sorted by relative path. Like a browser folder picker, the result may be empty.
func ExpandFolder(dir string, filter UploadFilter) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	root := filepath.Clean(dir)
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if filter.match(filepath.ToSlash(rel)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// ExpandPaths resolves a mixed list of files and folders into files.
// Folders are expanded with ExpandFolder; files are kept as given.
func ExpandPaths(paths []string, filter UploadFilter) ([]string, error) {
	var out []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ExpandFolder(p, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// TotalSize sums the sizes of existing files in paths.
func TotalSize(paths []string) int64 {
	var n int64
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil {
			n += st.Size()
		}
	}
	return n
}

// HumanSize formats a byte count like "1.2 MB".
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// SplitDropped splits text pasted by a terminal drag-and-drop into paths.
// Terminals separate dropped files with spaces and either quote each path or
// backslash-escape its spaces. Both forms are accepted, as are file:// URLs.
// Backslashes inside quotes are kept literally.
func SplitDropped(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		esc   bool
		have  bool
	)
	flush := func() {
		if have {
			out = append(out, fromFileURL(cur.String()))
		}
		cur.Reset()
		have = false
	}
	for _, r := range s {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
			have = true
		case r == '\\' && quote == 0:
			esc = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
			have = true
		case r == '\'' || r == '"':
			quote = r
			have = true
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	flush()

	paths := out[:0]
	for _, p := range out {
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func fromFileURL(s string) string {
	const prefix = "file://"
	if !strings.HasPrefix(s, prefix) {
		return s
	}
	p := strings.TrimPrefix(s, prefix)
	if unescaped, err := url.PathUnescape(p); err == nil {
		return unescaped
	}
	return p
}
