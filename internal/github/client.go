// Package github is a narrow GitHub REST collaborator: paginated tag
// listings, contents listings, and raw blob retrieval. It is not a general
// API client; it covers exactly what the harvest sources need.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound reports a 404-class response for a contents listing. Callers
// treat it as "no sub-resources," not as a failure.
var ErrNotFound = errors.New("resource not found")

const (
	// DefaultAPIBase is the public GitHub REST endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultRawBase serves raw file content per revision.
	DefaultRawBase = "https://raw.githubusercontent.com"

	acceptHeader = "application/vnd.github+json"
)

// Config captures the client's connection parameters. Base URLs are
// injectable so tests can point the client at an httptest server.
type Config struct {
	APIBase   string
	RawBase   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// Tag is one entry of a repository tag listing.
type Tag struct {
	Name string `json:"name"`
}

// ContentItem is one entry of a contents listing; Type discriminates
// "file" from "dir".
type ContentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Client issues GitHub REST and raw-content requests.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient builds a Client, filling in defaults for unset config fields.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.RawBase == "" {
		cfg.RawBase = DefaultRawBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.RawBase = strings.TrimRight(cfg.RawBase, "/")
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// ListTags returns one page of the repository's tags.
// GET /repos/{owner}/{repo}/tags?per_page={perPage}&page={page}
func (c *Client) ListTags(ctx context.Context, owner, repo string, page, perPage int) ([]Tag, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=%d&page=%d",
		c.cfg.APIBase, owner, repo, perPage, page)
	body, err := c.get(ctx, endpoint, true)
	if err != nil {
		return nil, err
	}
	var tags []Tag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// ListContents lists the directory at path for the given revision. A 404
// response yields ErrNotFound: the path may legitimately not exist at that
// revision.
// GET /repos/{owner}/{repo}/contents/{path}?ref={ref}
func (c *Client) ListContents(ctx context.Context, owner, repo, path, ref string) ([]ContentItem, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.cfg.APIBase, owner, repo, path, url.QueryEscape(ref))
	body, err := c.get(ctx, endpoint, true)
	if err != nil {
		return nil, err
	}
	var items []ContentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}
	return items, nil
}

// RawContent fetches the raw text of one file at the given revision.
func (c *Client) RawContent(ctx context.Context, owner, repo, ref, path string) (string, error) {
	body, err := c.get(ctx, c.RawURL(owner, repo, ref, path), false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// RawURL returns the machine-fetchable location of a file.
func (c *Client) RawURL(owner, repo, ref, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.cfg.RawBase, owner, repo, ref, path)
}

// BlobURL returns the browsable github.com reference for a file.
func (c *Client) BlobURL(owner, repo, ref, path string) string {
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", owner, repo, ref, path)
}

func (c *Client) get(ctx context.Context, endpoint string, api bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if api {
		req.Header.Set("Accept", acceptHeader)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", endpoint, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", endpoint, err)
	}
	return body, nil
}
