// Package apitest provides an in-memory implementation of the file service API
// for tests of code built on package api.
package apitest

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Backend is a fake file service. Files are kept in memory and listed in
// name order. Zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	files map[string]string
	// requests counts calls per "METHOD /route-pattern".
	requests map[string]int
	// deleteOrder records filenames in the order delete requests arrived.
	deleteOrder []string

	// AIAvailable and Model drive /api/health.
	AIAvailable bool
	Model       string
	// AIResult, when set, computes new content for an AI edit.
	AIResult func(content, prompt string) string

	// Fail maps "METHOD /route-pattern" to a message returned with success:false.
	Fail map[string]string
	// Broken lists routes that answer with a non-JSON 500.
	Broken map[string]bool
	// FailDelete lists filenames whose delete returns success:false.
	FailDelete map[string]bool

	server *httptest.Server
}

// New starts a backend seeded with files.
func New(files map[string]string) *Backend {
	b := &Backend{
		files:       map[string]string{},
		requests:    map[string]int{},
		AIAvailable: true,
		Model:       "test-model",
		Fail:        map[string]string{},
		Broken:      map[string]bool{},
		FailDelete:  map[string]bool{},
	}
	for k, v := range files {
		b.files[k] = v
	}
	b.server = httptest.NewServer(b.Router())
	return b
}

// URL is the base URL clients should use.
func (b *Backend) URL() string { return b.server.URL }

func (b *Backend) Close() { b.server.Close() }

// Router builds the chi router; exported so it can also be mounted elsewhere.
func (b *Backend) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(b.count)

	r.Get("/api/health", b.health)
	r.Post("/api/upload", b.upload)
	r.Get("/api/files", b.list)
	r.Put("/api/files/edit", b.edit)
	r.Delete("/api/files/delete", b.delete)
	r.Post("/api/files/create", b.create)
	r.Get("/api/files/{name}", b.get)
	r.Get("/api/download/all", b.downloadAll)
	r.Get("/api/download/{name}", b.download)
	return r
}

// Update runs fn with the backend locked. Tests change the knobs through it
// once the server is running.
func (b *Backend) Update(fn func(b *Backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// Requests returns how many times "METHOD /pattern" was hit.
func (b *Backend) Requests(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[key]
}

// TotalRequests counts every request received.
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.requests {
		n += v
	}
	return n
}

// DeleteOrder returns the filenames deleted so far, in arrival order.
func (b *Backend) DeleteOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleteOrder...)
}

// Files returns the current file names, sorted.
func (b *Backend) Files() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.namesLocked()
}

// Content returns the stored content of name.
func (b *Backend) Content(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.files[name]
	return v, ok
}

func (b *Backend) namesLocked() []string {
	out := make([]string, 0, len(b.files))
	for k := range b.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + routeKey(r.URL.Path)
		b.mu.Lock()
		b.requests[key]++
		msg, fail := b.Fail[key]
		broken := b.Broken[key]
		b.mu.Unlock()

		switch {
		case broken:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "<html>internal error</html>")
		case fail:
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msg})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// routeKey maps a request path back to the pattern it is registered under.
func routeKey(p string) string {
	switch {
	case p == "/api/health", p == "/api/upload", p == "/api/files",
		p == "/api/files/edit", p == "/api/files/delete", p == "/api/files/create",
		p == "/api/download/all":
		return p
	case strings.HasPrefix(p, "/api/files/"):
		return "/api/files/{name}"
	case strings.HasPrefix(p, "/api/download/"):
		return "/api/download/{name}"
	default:
		return p
	}
}

// nameParam returns the decoded {name} segment. chi routes on the raw path
// when one exists, so escaped slashes arrive still encoded.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if v, err := url.PathUnescape(name); err == nil {
		return v
	}
	return name
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "message": msg})
}

func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status := "unavailable"
	if b.AIAvailable {
		status = "available"
	}
	model := b.Model
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ai_service": status, "model": model})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	var names []string
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		b.mu.Lock()
		b.files[fh.Filename] = string(data)
		b.mu.Unlock()
		names = append(names, fh.Filename)
	}
	if len(names) == 0 {
		fail(w, http.StatusBadRequest, "No files provided")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": names})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	names := b.namesLocked()
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": names})
}

func (b *Backend) get(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	b.mu.Lock()
	content, ok := b.files[name]
	b.mu.Unlock()
	if !ok {
		fail(w, http.StatusNotFound, "File not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "content": content})
}

type editBody struct {
	Filename string  `json:"filename"`
	Prompt   *string `json:"prompt"`
	Content  *string `json:"content"`
	UseAI    bool    `json:"use_ai"`
}

func (b *Backend) edit(w http.ResponseWriter, r *http.Request) {
	var in editBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.files[in.Filename]
	if !ok {
		fail(w, http.StatusNotFound, "File not found: "+in.Filename)
		return
	}
	if !in.UseAI {
		if in.Content == nil {
			fail(w, http.StatusBadRequest, "content is required")
			return
		}
		b.files[in.Filename] = *in.Content
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	if !b.AIAvailable {
		fail(w, http.StatusServiceUnavailable, "AI service unavailable")
		return
	}
	prompt := ""
	if in.Prompt != nil {
		prompt = *in.Prompt
	}
	next := cur
	if b.AIResult != nil {
		next = b.AIResult(cur, prompt)
	}
	b.files[in.Filename] = next
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "new_content": next})
}

func (b *Backend) delete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteOrder = append(b.deleteOrder, in.Filename)
	if b.FailDelete[in.Filename] {
		fail(w, http.StatusConflict, "cannot delete "+in.Filename)
		return
	}
	if _, ok := b.files[in.Filename]; !ok {
		fail(w, http.StatusNotFound, "File not found: "+in.Filename)
		return
	}
	delete(b.files, in.Filename)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.files[in.Filename]; ok {
		fail(w, http.StatusConflict, "File already exists: "+in.Filename)
		return
	}
	b.files[in.Filename] = in.Content
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) download(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	b.mu.Lock()
	content, ok := b.files[name]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.WriteString(w, content)
}

func (b *Backend) downloadAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	names := b.namesLocked()
	files := make(map[string]string, len(names))
	for _, n := range names {
		files[n] = b.files[n]
	}
	b.mu.Unlock()
	if len(names) == 0 {
		fail(w, http.StatusNotFound, "No files to download")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	zw := zip.NewWriter(w)
	for _, n := range names {
		fw, err := zw.Create(n)
		if err != nil {
			return
		}
		_, _ = io.WriteString(fw, files[n])
	}
	_ = zw.Close()
}
