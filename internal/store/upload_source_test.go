package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestExpandFolder_Filters(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":          "a",
		"docs/b.md":      "b",
		"docs/deep/c.md": "c",
		".git/HEAD":      "ref",
		"img/logo.png":   "png",
	})

	all, err := ExpandFolder(root, UploadFilter{Exclude: []string{".git/**"}})
	if err != nil {
		t.Fatalf("ExpandFolder: %v", err)
	}
	want := []string{"a.txt", "docs/b.md", "docs/deep/c.md", "img/logo.png"}
	if got := rels(t, root, all); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}

	md, err := ExpandFolder(root, UploadFilter{Include: []string{"**/*.md"}})
	if err != nil {
		t.Fatalf("ExpandFolder: %v", err)
	}
	if got := rels(t, root, md); !reflect.DeepEqual(got, []string{"docs/b.md", "docs/deep/c.md"}) {
		t.Fatalf("unexpected include result %v", got)
	}
}

func TestExpandFolder_EmptyFolder(t *testing.T) {
	t.Parallel()

	files, err := ExpandFolder(t.TempDir(), UploadFilter{})
	if err != nil {
		t.Fatalf("ExpandFolder: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files; got %v", files)
	}
}

func TestUploadFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := ExpandFolder(t.TempDir(), UploadFilter{Include: []string{"[unclosed"}}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestExpandPaths_MixesFilesAndFolders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"one.txt": "1", "dir/two.txt": "22"})

	got, err := ExpandPaths([]string{filepath.Join(root, "one.txt"), filepath.Join(root, "dir")}, UploadFilter{})
	if err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}
	if r := rels(t, root, got); !reflect.DeepEqual(r, []string{"one.txt", "dir/two.txt"}) {
		t.Fatalf("unexpected paths %v", r)
	}
	if n := TotalSize(got); n != 3 {
		t.Fatalf("expected 3 bytes; got %d", n)
	}

	if _, err := ExpandPaths([]string{filepath.Join(root, "missing")}, UploadFilter{}); err == nil {
		t.Fatal("expected error for a missing path")
	}
}

func TestSplitDropped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "/tmp/a.txt", want: []string{"/tmp/a.txt"}},
		{in: "/tmp/a.txt /tmp/b.txt\n", want: []string{"/tmp/a.txt", "/tmp/b.txt"}},
		{in: `/tmp/my\ file.txt`, want: []string{"/tmp/my file.txt"}},
		{in: `'/tmp/my file.txt' "/tmp/other one.md"`, want: []string{"/tmp/my file.txt", "/tmp/other one.md"}},
		{in: `"C:\Users\me\notes.txt"`, want: []string{`C:\Users\me\notes.txt`}},
		{in: "file:///tmp/with%20space.txt", want: []string{"/tmp/with space.txt"}},
	}
	for _, tc := range cases {
		got := SplitDropped(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitDropped(%q): expected %q; got %q", tc.in, tc.want, got)
		}
	}
}

func TestDownloadsSave(t *testing.T) {
	t.Parallel()

	d := Downloads{Dir: filepath.Join(t.TempDir(), "out")}
	path, n, err := d.Save("../sub/report.txt", func(w io.Writer) (int64, error) {
		return io.Copy(w, strings.NewReader("report"))
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "report.txt" || filepath.Dir(path) != d.Dir {
		t.Fatalf("expected file inside download dir; got %q", path)
	}
	if n != 6 {
		t.Fatalf("expected 6 bytes; got %d", n)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "report" {
		t.Fatalf("unexpected content %q err=%v", b, err)
	}
}

func TestDownloadsSave_FailureLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := Downloads{Dir: dir}
	boom := errors.New("boom")
	_, _, err := d.Save("a.txt", func(w io.Writer) (int64, error) {
		_, _ = io.WriteString(w, "partial")
		return 7, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error; got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after failed download; got %d entries", len(entries))
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"a.txt":           "a.txt",
		"dir/b.txt":       "b.txt",
		`dir\c.txt`:       "c.txt",
		"..":              "download",
		"":                "download",
		"all_files.zip":   "all_files.zip",
		"../../etc/passw": "passw",
	} {
		if got := SafeName(in); got != want {
			t.Fatalf("SafeName(%q): expected %q; got %q", in, want, got)
		}
	}
}
