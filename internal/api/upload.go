package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadFile is one part of a multipart upload. Body wins over Path when both are set.
type UploadFile struct {
	// Name is sent as the part's filename. Defaults to the base name of Path.
	Name string
	Path string
	Body io.Reader
}

func (f UploadFile) partName() string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return n
	}
	return filepath.Base(f.Path)
}

// ErrNoFiles is returned by Upload when called with an empty selection.
// No request is sent in that case.
var ErrNoFiles = errors.New("no files to upload")

// Upload posts every file as a repeated "files" field in one multipart request.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (UploadResponse, error) {
	var out UploadResponse
	if len(files) == 0 {
		return out, ErrNoFiles
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/upload"), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return out, &TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	err = c.send("upload", req, &out)
	// Unblock the writer if the server answered before reading the whole body.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return out, err
}

func writeParts(mw *multipart.Writer, files []UploadFile) error {
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.partName())
		if err != nil {
			return err
		}
		if f.Body != nil {
			if _, err := io.Copy(part, f.Body); err != nil {
				return err
			}
			continue
		}
		if err := copyFromPath(part, f.Path); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFromPath(w io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(w, in)
	return err
}

// FilesFromPaths turns local paths into upload parts named by their base name.
func FilesFromPaths(paths []string) []UploadFile {
	out := make([]UploadFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, UploadFile{Path: p})
	}
	return out
}
