package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the file service's HTTP/JSON API.
//
// Every call is a single attempt. Timeouts are whatever the underlying
// http.Client does (none, for the default one).
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Logf, when set, receives one line per request.
	Logf func(format string, args ...any)
}

// New returns a client for the service rooted at baseURL (e.g. http://localhost:8000).
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api: missing base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: invalid base url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// fileURL percent-encodes name as a single path segment ("/" included).
func (c *Client) fileURL(prefix, name string) string {
	return c.url(prefix + url.PathEscape(name))
}

// Health probes the service and the availability of its AI model.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.doJSON(ctx, "health", http.MethodGet, c.url("/api/health"), nil, &out)
	return out, err
}

// ListFiles returns the server's file index in server order.
func (c *Client) ListFiles(ctx context.Context) (ListResponse, error) {
	var out ListResponse
	err := c.doJSON(ctx, "list files", http.MethodGet, c.url("/api/files"), nil, &out)
	return out, err
}

// GetFile fetches the text content of name.
func (c *Client) GetFile(ctx context.Context, name string) (FileResponse, error) {
	var out FileResponse
	err := c.doJSON(ctx, "get file", http.MethodGet, c.fileURL("/api/files/", name), nil, &out)
	return out, err
}

// EditAI asks the service to rewrite name according to prompt.
func (c *Client) EditAI(ctx context.Context, name, prompt string) (EditResponse, error) {
	var out EditResponse
	body := editRequest{Filename: name, Prompt: &prompt, UseAI: true}
	err := c.doJSON(ctx, "ai edit", http.MethodPut, c.url("/api/files/edit"), body, &out)
	return out, err
}

// Save overwrites name with content. There is no version check: last writer wins.
func (c *Client) Save(ctx context.Context, name, content string) (EditResponse, error) {
	var out EditResponse
	body := editRequest{Filename: name, Content: &content, UseAI: false}
	err := c.doJSON(ctx, "save file", http.MethodPut, c.url("/api/files/edit"), body, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, name string) (Response, error) {
	var out Response
	err := c.doJSON(ctx, "delete file", http.MethodDelete, c.url("/api/files/delete"), filenameRequest{Filename: name}, &out)
	return out, err
}

// DeleteEach deletes names one at a time, in order, waiting for each response
// before sending the next. Any answer counts, whatever it says: a
// success:false body or one that isn't JSON at all is reported to done as a
// failed resp and the batch moves on. Only a request that gets no answer
// stops it. It returns how many requests were answered.
func (c *Client) DeleteEach(ctx context.Context, names []string, done func(name string, resp Response)) (int, error) {
	n := 0
	for _, name := range names {
		resp, err := c.Delete(ctx, name)
		switch {
		case IsDecode(err):
			resp = Response{Success: false, Message: Describe(err)}
		case err != nil:
			return n, err
		}
		n++
		if !resp.Success {
			c.logf("api delete %s: %s (continuing)", name, resp.Message)
		}
		if done != nil {
			done(name, resp)
		}
	}
	return n, nil
}

func (c *Client) Create(ctx context.Context, name, content string) (Response, error) {
	var out Response
	err := c.doJSON(ctx, "create file", http.MethodPost, c.url("/api/files/create"), createRequest{Filename: name, Content: content}, &out)
	return out, err
}

// Download streams the raw bytes of name into w.
func (c *Client) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	return c.doBinary(ctx, "download "+name, c.fileURL("/api/download/", name), w)
}

// DownloadAll streams the server-built archive of every file into w.
func (c *Client) DownloadAll(ctx context.Context, w io.Writer) (int64, error) {
	return c.doBinary(ctx, "download all", c.url("/api/download/all"), w)
}

func (c *Client) doJSON(ctx context.Context, op, method, u string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(op, req, out)
}

// send executes req and decodes a JSON envelope into out. The status code is
// not inspected: a parseable body is authoritative (it may carry success:false
// with a message), an unparseable one is a transport failure.
func (c *Client) send(op string, req *http.Request, out any) error {
	c.logf("api %s %s", req.Method, req.URL.Redacted())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logf("api %s failed: %v", op, err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logf("api %s: status %d, undecodable body (%d bytes)", op, resp.StatusCode, len(raw))
		return &TransportError{Op: op, Err: &DecodeError{Code: resp.StatusCode, Err: err}}
	}
	c.logf("api %s: status %d", op, resp.StatusCode)
	return nil
}

func (c *Client) doBinary(ctx context.Context, op, u string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	c.logf("api %s %s", req.Method, req.URL.Redacted())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, &StatusError{Op: op, Code: resp.StatusCode}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &TransportError{Op: op, Err: err}
	}
	return n, nil
}
