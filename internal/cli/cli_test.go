package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/api/apitest"

	"github.com/spf13/cobra"
)

type runOpts struct {
	stdin   io.Reader
	confirm func(cmd *cobra.Command, label string) (bool, error)
}

func runCLI(t *testing.T, o runOpts, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	app := &App{confirm: o.confirm}
	if app.confirm == nil {
		app.confirm = func(*cobra.Command, string) (bool, error) {
			t.Fatal("unexpected confirmation prompt")
			return false, nil
		}
	}
	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	if o.stdin != nil {
		cmd.SetIn(o.stdin)
	}
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// against prefixes args with a private config file and the backend's URL.
func against(t *testing.T, b *apitest.Backend, args ...string) []string {
	t.Helper()
	return append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "--server", b.URL()}, args...)
}

func newBackend(t *testing.T, files map[string]string) *apitest.Backend {
	t.Helper()
	b := apitest.New(files)
	t.Cleanup(b.Close)
	return b
}

func mustData(t *testing.T, stdout []byte) any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s", err, string(stdout))
	}
	d, ok := env["data"]
	if !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return d
}

func mustRun(t *testing.T, o runOpts, args ...string) any {
	t.Helper()
	stdout, stderr, err := runCLI(t, o, args)
	if err != nil {
		t.Fatalf("command failed: filedesk %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	return mustData(t, stdout)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	b := newBackend(t, nil)

	d := mustRun(t, runOpts{}, against(t, b, "health")...).(map[string]any)
	if d["ai_available"] != true || d["model"] != "test-model" {
		t.Fatalf("unexpected health: %#v", d)
	}
}

func TestFilesList_ServerOrder(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"b.txt": "", "a.txt": ""})

	d := mustRun(t, runOpts{}, against(t, b, "files", "list")...)
	if !reflect.DeepEqual(d, []any{"a.txt", "b.txt"}) {
		t.Fatalf("unexpected list: %#v", d)
	}

	empty := newBackend(t, nil)
	if d := mustRun(t, runOpts{}, against(t, empty, "files", "list")...); !reflect.DeepEqual(d, []any{}) {
		t.Fatalf("expected empty list; got %#v", d)
	}
}

func TestFilesShow_TextFormatPrintsContent(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"notes.txt": "line one\nline two\n"})

	stdout, _, err := runCLI(t, runOpts{}, against(t, b, "--format", "text", "files", "show", "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(stdout); got != "filename: notes.txt\nline one\nline two\n" {
		t.Fatalf("unexpected text output %q", got)
	}
}

func TestFilesShow_MissingFileIsError(t *testing.T) {
	t.Parallel()
	b := newBackend(t, nil)

	_, _, err := runCLI(t, runOpts{}, against(t, b, "files", "show", "ghost.txt"))
	var re rejectedError
	if !errors.As(err, &re) {
		t.Fatalf("expected rejected error; got %v", err)
	}
}

func TestFilesCreate(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "x"})

	mustRun(t, runOpts{}, against(t, b, "files", "create", " new.txt ", "--content", "hi")...)
	if got, ok := b.Content("new.txt"); !ok || got != "hi" {
		t.Fatalf("expected trimmed name with content; got %q %v", got, ok)
	}

	_, _, err := runCLI(t, runOpts{}, against(t, b, "files", "create", "a.txt"))
	if err == nil || !strings.Contains(err.Error(), "File already exists: a.txt") {
		t.Fatalf("expected duplicate error with server message; got %v", err)
	}

	_, _, err = runCLI(t, runOpts{}, against(t, b, "files", "create", "  "))
	if !errors.Is(err, errEmptyName) {
		t.Fatalf("expected empty name error; got %v", err)
	}
	if n := b.Requests("POST /api/files/create"); n != 2 {
		t.Fatalf("expected 2 create requests; got %d", n)
	}
}

func TestFilesSave_FromStdinAndFile(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "old"})

	mustRun(t, runOpts{stdin: strings.NewReader("from stdin")}, against(t, b, "files", "save", "a.txt")...)
	if got, _ := b.Content("a.txt"); got != "from stdin" {
		t.Fatalf("expected stdin content; got %q", got)
	}

	src := filepath.Join(t.TempDir(), "src.txt")
	if err := os.WriteFile(src, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, runOpts{}, against(t, b, "files", "save", "a.txt", "--from-file", src)...)
	if got, _ := b.Content("a.txt"); got != "from file" {
		t.Fatalf("expected file content; got %q", got)
	}
}

func TestFilesEdit(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "hello"})
	b.Update(func(b *apitest.Backend) {
		b.AIResult = func(content, prompt string) string { return strings.ToUpper(content) }
	})

	d := mustRun(t, runOpts{}, against(t, b, "files", "edit", "a.txt", "--prompt", "shout")...).(map[string]any)
	if d["content"] != "HELLO" || d["model"] != "test-model" {
		t.Fatalf("unexpected edit result: %#v", d)
	}

	b.Update(func(b *apitest.Backend) { b.AIAvailable = false })
	_, _, err := runCLI(t, runOpts{}, against(t, b, "files", "edit", "a.txt", "--prompt", "shout"))
	if err == nil || err.Error() != "AI service is not available" {
		t.Fatalf("expected AI unavailable error; got %v", err)
	}
	if n := b.Requests("PUT /api/files/edit"); n != 1 {
		t.Fatalf("expected one edit request; got %d", n)
	}
}

func TestFilesDelete_Confirmation(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": ""})

	var asked string
	decline := runOpts{confirm: func(_ *cobra.Command, label string) (bool, error) {
		asked = label
		return false, nil
	}}
	mustRun(t, decline, against(t, b, "files", "delete", "a.txt")...)
	if asked != `Are you sure you want to delete "a.txt"` {
		t.Fatalf("unexpected prompt %q", asked)
	}
	if n := b.Requests("DELETE /api/files/delete"); n != 0 {
		t.Fatalf("expected no delete request after declining; got %d", n)
	}

	mustRun(t, runOpts{}, against(t, b, "files", "delete", "a.txt", "--yes")...)
	if len(b.Files()) != 0 {
		t.Fatalf("expected file deleted; got %v", b.Files())
	}
}

func TestFilesDeleteAll_SkipsRefusedFiles(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "", "b.txt": "", "c.txt": ""})
	b.Update(func(b *apitest.Backend) { b.FailDelete["b.txt"] = true })

	accept := runOpts{confirm: func(_ *cobra.Command, label string) (bool, error) {
		if !strings.Contains(label, "all 3 files") {
			t.Errorf("unexpected prompt %q", label)
		}
		return true, nil
	}}
	d := mustRun(t, accept, against(t, b, "files", "delete-all")...).(map[string]any)
	if !reflect.DeepEqual(d["deleted"], []any{"a.txt", "c.txt"}) {
		t.Fatalf("unexpected deleted: %#v", d["deleted"])
	}
	failed := d["failed"].([]any)
	if len(failed) != 1 || failed[0].(map[string]any)["filename"] != "b.txt" {
		t.Fatalf("unexpected failed: %#v", failed)
	}
	if got := b.DeleteOrder(); !reflect.DeepEqual(got, []string{"a.txt", "b.txt", "c.txt"}) {
		t.Fatalf("expected sequential deletes in list order; got %v", got)
	}
}

func TestFilesDeleteAll_UndecodableAnswersAreFailures(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "", "b.txt": ""})
	b.Update(func(b *apitest.Backend) { b.Broken["DELETE /api/files/delete"] = true })

	d := mustRun(t, runOpts{}, against(t, b, "files", "delete-all", "--yes")...).(map[string]any)
	if !reflect.DeepEqual(d["deleted"], []any{}) {
		t.Fatalf("unexpected deleted: %#v", d["deleted"])
	}
	failed := d["failed"].([]any)
	if len(failed) != 2 {
		t.Fatalf("expected both files reported failed; got %#v", failed)
	}
	if msg, _ := failed[1].(map[string]any)["message"].(string); !strings.HasPrefix(msg, "invalid response (HTTP 500)") {
		t.Fatalf("unexpected failure message %q", msg)
	}
	if n := b.Requests("DELETE /api/files/delete"); n != 2 {
		t.Fatalf("expected 2 delete requests; got %d", n)
	}
}

func TestFilesDeleteAll_NothingToDelete(t *testing.T) {
	t.Parallel()
	b := newBackend(t, nil)

	_, _, err := runCLI(t, runOpts{}, against(t, b, "files", "delete-all", "--yes"))
	if err == nil || err.Error() != "no files to delete" {
		t.Fatalf("expected no files error; got %v", err)
	}
}

func TestUpload_FolderWithExclude(t *testing.T) {
	t.Parallel()
	b := newBackend(t, nil)

	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.txt", "aaa")
	write("sub/b.md", "bb")
	write("skip.log", "zzz")

	d := mustRun(t, runOpts{}, against(t, b, "upload", dir, "--exclude", "**/*.log")...).(map[string]any)
	if !reflect.DeepEqual(d["uploaded"], []any{"a.txt", "b.md"}) {
		t.Fatalf("unexpected uploaded: %#v", d["uploaded"])
	}
	if d["bytes"] != float64(5) {
		t.Fatalf("expected 5 bytes; got %#v", d["bytes"])
	}
	if got, _ := b.Content("b.md"); got != "bb" {
		t.Fatalf("expected uploaded content; got %q", got)
	}
	if n := b.Requests("POST /api/upload"); n != 1 {
		t.Fatalf("expected one upload request; got %d", n)
	}
}

func TestUpload_EmptySelectionSendsNothing(t *testing.T) {
	t.Parallel()
	b := newBackend(t, nil)

	_, _, err := runCLI(t, runOpts{}, against(t, b, "upload", t.TempDir()))
	if err == nil || err.Error() != "please select files to upload" {
		t.Fatalf("expected empty selection error; got %v", err)
	}
	if b.TotalRequests() != 0 {
		t.Fatalf("expected no requests; got %d", b.TotalRequests())
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	out := t.TempDir()

	d := mustRun(t, runOpts{}, against(t, b, "download", "a.txt", "--out", out)...).([]any)
	if len(d) != 1 || d[0].(map[string]any)["path"] != filepath.Join(out, "a.txt") {
		t.Fatalf("unexpected download result: %#v", d)
	}
	if got, _ := os.ReadFile(filepath.Join(out, "a.txt")); string(got) != "alpha" {
		t.Fatalf("unexpected downloaded content %q", got)
	}

	mustRun(t, runOpts{}, against(t, b, "download", "--all", "--out", out)...)
	zr, err := zip.OpenReader(filepath.Join(out, api.ArchiveName))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 archive entries; got %d", len(zr.File))
	}

	_, _, err = runCLI(t, runOpts{}, against(t, b, "download", "ghost.txt", "--out", out))
	if err == nil || err.Error() != "download failed for ghost.txt" {
		t.Fatalf("expected status failure; got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "ghost.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no partial file; got %v", err)
	}
}

func TestTransportFailureIsError(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	args := against(t, b, "files", "list")
	b.Close()

	_, _, err := runCLI(t, runOpts{}, args)
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error; got %T %v", err, err)
	}
}

func TestFormatFlag(t *testing.T) {
	t.Parallel()
	b := newBackend(t, map[string]string{"a.txt": ""})

	stdout, _, err := runCLI(t, runOpts{}, against(t, b, "--format", "edn", "files", "list"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(stdout); got != "{:data [\"a.txt\"]}\n" {
		t.Fatalf("unexpected edn %q", got)
	}

	_, _, err = runCLI(t, runOpts{}, against(t, b, "--format", "xml", "files", "list"))
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Fatalf("expected invalid format error; got %v", err)
	}
	if b.Requests("GET /api/files") != 1 {
		t.Fatalf("expected no request with an invalid format")
	}
}

func TestConfigInitThenShow(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	mustRun(t, runOpts{}, "--config", path, "--server", "http://files.example:9000", "config", "init")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	_, _, err := runCLI(t, runOpts{}, []string{"--config", path, "config", "init"})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite; got %v", err)
	}

	d := mustRun(t, runOpts{}, "--config", path, "config", "show").(map[string]any)
	if d["server"] != "http://files.example:9000" {
		t.Fatalf("expected server from file; got %#v", d["server"])
	}
	d = mustRun(t, runOpts{}, "--config", path, "--download-dir", "/tmp/dl", "config", "show").(map[string]any)
	if d["download_dir"] != "/tmp/dl" {
		t.Fatalf("expected flag to win; got %#v", d["download_dir"])
	}
}
