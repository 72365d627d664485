package api_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/api/apitest"
)

func newClient(t *testing.T, b *apitest.Backend) *api.Client {
	t.Helper()
	c, err := api.New(b.URL(), nil)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "ftp://example.com", "::nope"} {
		if _, err := api.New(in, nil); err == nil {
			t.Fatalf("expected error for base url %q", in)
		}
	}
	c, err := api.New("http://localhost:8000/", nil)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	if c.BaseURL != "http://localhost:8000" {
		t.Fatalf("expected trailing slash trimmed; got %q", c.BaseURL)
	}
}

func TestHealth_ReportsAIAvailability(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !h.Success || !h.AIAvailable() || h.Model != "test-model" {
		t.Fatalf("unexpected health: %+v", h)
	}

	b.Update(func(b *apitest.Backend) { b.AIAvailable = false })
	h, err = c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.AIAvailable() {
		t.Fatalf("expected AI unavailable; got %+v", h)
	}
}

func TestListFiles_ServerOrder(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"b.txt": "", "a.txt": ""})
	defer b.Close()
	c := newClient(t, b)

	res, err := c.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if got := strings.Join(res.Files, ","); got != "a.txt,b.txt" {
		t.Fatalf("expected a.txt,b.txt; got %q", got)
	}
}

func TestGetFile_EncodesName(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"my notes/v1?.txt": "hello"})
	defer b.Close()
	c := newClient(t, b)

	res, err := c.GetFile(context.Background(), "my notes/v1?.txt")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if !res.Success || res.Content != "hello" {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestGetFile_StructuralFailureIsNotAnError(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)

	res, err := c.GetFile(context.Background(), "missing.txt")
	if err != nil {
		t.Fatalf("expected structural failure without error; got %v", err)
	}
	if res.Success || res.Message != "File not found: missing.txt" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if !api.IsStructural(res.Err()) {
		t.Fatalf("expected StructuralError from Err(); got %v", res.Err())
	}
}

func TestUndecodableBodyIsTransportError(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	b.Update(func(b *apitest.Backend) { b.Broken["GET /api/files"] = true })
	c := newClient(t, b)

	_, err := c.ListFiles(context.Background())
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError; got %T %v", err, err)
	}
	if !strings.Contains(api.Describe(err), "HTTP 500") {
		t.Fatalf("expected status in description; got %q", api.Describe(err))
	}
}

func TestClosedServerIsTransportError(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	c := newClient(t, b)
	b.Close()

	_, err := c.Health(context.Background())
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError; got %T %v", err, err)
	}
}

func TestEditAIAndSave(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"notes.txt": "hello"})
	defer b.Close()
	b.Update(func(b *apitest.Backend) {
		b.AIResult = func(content, prompt string) string {
			if prompt != "make formal" {
				return content
			}
			return "Hello."
		}
	})
	c := newClient(t, b)
	ctx := context.Background()

	res, err := c.EditAI(ctx, "notes.txt", "make formal")
	if err != nil {
		t.Fatalf("EditAI: %v", err)
	}
	if !res.Success || res.NewContent != "Hello." {
		t.Fatalf("unexpected AI edit response: %+v", res)
	}

	if _, err := c.Save(ctx, "notes.txt", ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := b.Content("notes.txt"); got != "" {
		t.Fatalf("expected empty content after save; got %q", got)
	}
}

func TestCreateAndDelete(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)
	ctx := context.Background()

	res, err := c.Create(ctx, "new.txt", "")
	if err != nil || !res.Success {
		t.Fatalf("Create: res=%+v err=%v", res, err)
	}
	res, err = c.Create(ctx, "new.txt", "")
	if err != nil {
		t.Fatalf("Create duplicate: %v", err)
	}
	if res.Success || res.Message == "" {
		t.Fatalf("expected structural failure on duplicate; got %+v", res)
	}

	res, err = c.Delete(ctx, "new.txt")
	if err != nil || !res.Success {
		t.Fatalf("Delete: res=%+v err=%v", res, err)
	}
	if len(b.Files()) != 0 {
		t.Fatalf("expected no files; got %v", b.Files())
	}
}

func TestDeleteEach_SequentialAndTolerant(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"a": "1", "b": "2", "c": "3"})
	defer b.Close()
	b.Update(func(b *apitest.Backend) { b.FailDelete["b"] = true })
	c := newClient(t, b)

	var seen []string
	n, err := c.DeleteEach(context.Background(), []string{"a", "b", "c"}, func(name string, _ api.Response) {
		seen = append(seen, name)
	})
	if err != nil {
		t.Fatalf("DeleteEach: %v", err)
	}
	if n != 3 || len(seen) != 3 {
		t.Fatalf("expected 3 answered deletes; got n=%d seen=%v", n, seen)
	}
	if got := b.DeleteOrder(); strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected delete order %v", got)
	}
	if files := b.Files(); len(files) != 1 || files[0] != "b" {
		t.Fatalf("expected only b to remain; got %v", files)
	}
}

func TestDeleteEach_UndecodableAnswerIsPerFileFailure(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"a": "1", "b": "2", "c": "3"})
	defer b.Close()
	b.Update(func(b *apitest.Backend) { b.Broken["DELETE /api/files/delete"] = true })
	c := newClient(t, b)

	var failed []string
	n, err := c.DeleteEach(context.Background(), []string{"a", "b", "c"}, func(name string, resp api.Response) {
		if !resp.Success {
			failed = append(failed, name+": "+resp.Message)
		}
	})
	if err != nil {
		t.Fatalf("DeleteEach: %v", err)
	}
	if n != 3 || len(failed) != 3 {
		t.Fatalf("expected 3 answered, failed deletes; got n=%d failed=%v", n, failed)
	}
	if !strings.HasPrefix(failed[0], "a: invalid response (HTTP 500)") {
		t.Fatalf("unexpected failure message %q", failed[0])
	}
	if got := b.Requests("DELETE /api/files/delete"); got != 3 {
		t.Fatalf("expected 3 delete requests; got %d", got)
	}

	_, err = c.Delete(context.Background(), "a")
	if !api.IsDecode(err) {
		t.Fatalf("expected a single delete to surface the decode error; got %v", err)
	}
}

func TestDeleteEach_TransportFailureAborts(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"a": "1", "b": "2"})
	c := newClient(t, b)
	b.Close()

	n, err := c.DeleteEach(context.Background(), []string{"a", "b"}, nil)
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError; got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no answered deletes; got %d", n)
	}
}

func TestUpload_MultipleFilesInOneRequest(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)

	dir := t.TempDir()
	p := filepath.Join(dir, "disk.txt")
	if err := os.WriteFile(p, []byte("from disk"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := c.Upload(context.Background(), []api.UploadFile{
		{Path: p},
		{Name: "mem.txt", Body: strings.NewReader("from memory")},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !res.Success || len(res.Files) != 2 {
		t.Fatalf("unexpected upload response: %+v", res)
	}
	if b.Requests("POST /api/upload") != 1 {
		t.Fatalf("expected exactly one upload request; got %d", b.Requests("POST /api/upload"))
	}
	if got, _ := b.Content("disk.txt"); got != "from disk" {
		t.Fatalf("unexpected disk.txt content %q", got)
	}
	if got, _ := b.Content("mem.txt"); got != "from memory" {
		t.Fatalf("unexpected mem.txt content %q", got)
	}
}

func TestUpload_EmptySelectionSendsNothing(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)

	if _, err := c.Upload(context.Background(), nil); !errors.Is(err, api.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles; got %v", err)
	}
	if n := b.TotalRequests(); n != 0 {
		t.Fatalf("expected zero requests; got %d", n)
	}
}

func TestUpload_MissingLocalFileIsTransportError(t *testing.T) {
	t.Parallel()
	b := apitest.New(nil)
	defer b.Close()
	c := newClient(t, b)

	_, err := c.Upload(context.Background(), []api.UploadFile{{Path: filepath.Join(t.TempDir(), "nope.txt")}})
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError; got %T %v", err, err)
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"a b.txt": "bytes"})
	defer b.Close()
	c := newClient(t, b)

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "a b.txt", &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != 5 || buf.String() != "bytes" {
		t.Fatalf("unexpected download n=%d body=%q", n, buf.String())
	}

	_, err = c.Download(context.Background(), "missing.txt", &buf)
	if !api.IsStatus(err) {
		t.Fatalf("expected StatusError; got %T %v", err, err)
	}
}

func TestDownloadAll_Archive(t *testing.T) {
	t.Parallel()
	b := apitest.New(map[string]string{"a.txt": "A", "b.txt": "B"})
	defer b.Close()
	c := newClient(t, b)

	var buf bytes.Buffer
	if _, err := c.DownloadAll(context.Background(), &buf); err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries; got %d", len(zr.File))
	}
}
