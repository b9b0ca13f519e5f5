// Package github stores the ledger as a single file in a GitHub repository.
//
// Reads go through raw.githubusercontent.com with a cache-busting query and
// no credentials. Writes use the contents API: the current blob sha is read
// first and sent back with the new base64 content, so GitHub rejects writes
// against a stale base.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"stipendi/internal/remote"
)

const (
	DefaultAPIBaseURL = "https://api.github.com"
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	apiVersion        = "2022-11-28"
	maxErrorBody      = 512
)

// Config locates the backup file.
type Config struct {
	Owner  string
	Repo   string
	Path   string
	Branch string

	APIBaseURL string
	RawBaseURL string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Now feeds the cache-busting parameter.
	Now func() time.Time
}

type Client struct {
	cfg  Config
	http *http.Client
}

var _ remote.Store = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(cfg.Repo) == "" {
		missing = append(missing, "repo")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		missing = append(missing, "path")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("github remote: missing %s", strings.Join(missing, ", "))
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.RawBaseURL == "" {
		cfg.RawBaseURL = DefaultRawBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.RawBaseURL = strings.TrimRight(cfg.RawBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg.Timeout)
	}
	return &Client{cfg: cfg, http: hc}, nil
}

// newHTTPClient returns a pooled client with conservative timeouts.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: timeout,
	}
}

// authorized wraps the base client with a bearer token transport.
func (c *Client) authorized(token string) *http.Client {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout: c.http.Timeout,
	}
}

func (c *Client) rawURL() string {
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.cfg.RawBaseURL,
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo),
		url.PathEscape(c.cfg.Branch), escapePath(c.cfg.Path))
	q := url.Values{}
	q.Set("t", strconv.FormatInt(c.cfg.Now().UnixMilli(), 10))
	return u + "?" + q.Encode()
}

func (c *Client) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.cfg.APIBaseURL,
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), escapePath(c.cfg.Path))
}

// Fetch reads the published file without credentials.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rawURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch remote file: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("fetch", resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote file: %w", err)
	}
	return body, nil
}

type contentResponse struct {
	SHA     string `json:"sha"`
	Content *struct {
		SHA string `json:"sha"`
	} `json:"content,omitempty"`
}

// Revision returns the blob sha of the file on the configured branch.
func (c *Client) Revision(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", remote.ErrUnauthorized
	}
	u := c.contentsURL() + "?" + url.Values{"ref": {c.cfg.Branch}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build revision request: %w", err)
	}
	setAPIHeaders(req)

	resp, err := c.authorized(token).Do(req)
	if err != nil {
		return "", fmt.Errorf("read remote revision: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("revision", resp); err != nil {
		return "", err
	}
	var cr contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode revision response: %w", err)
	}
	if cr.SHA == "" {
		return "", errors.New("revision response without sha")
	}
	return cr.SHA, nil
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// Put commits req.Content to the configured branch.
func (c *Client) Put(ctx context.Context, token string, req remote.PutRequest) (string, error) {
	if token == "" {
		return "", remote.ErrUnauthorized
	}
	payload, err := json.Marshal(putBody{
		Message: req.Message,
		Content: base64.StdEncoding.EncodeToString(req.Content),
		SHA:     req.Revision,
		Branch:  c.cfg.Branch,
	})
	if err != nil {
		return "", fmt.Errorf("encode put body: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	setAPIHeaders(hreq)
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.authorized(token).Do(hreq)
	if err != nil {
		return "", fmt.Errorf("write remote file: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("put", resp); err != nil {
		return "", err
	}
	var cr contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode put response: %w", err)
	}
	rev := ""
	if cr.Content != nil {
		rev = cr.Content.SHA
	}
	slog.DebugContext(ctx, "Remote file updated", "path", c.cfg.Path, "revision", rev)
	return rev, nil
}

func setAPIHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
}

// checkStatus maps GitHub responses onto the remote port errors.
func checkStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return remote.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, remote.ErrUnauthorized)
	case op == "put" && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity):
		return fmt.Errorf("%s: %w", op, remote.ErrConflict)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &remote.StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
