// Package api is the client for the remote tree-resource API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// ResourceTreeNodes is the collection holding every node type.
const ResourceTreeNodes = "treenodes"

// Attrs are the fields sent on create and patch.
type Attrs map[string]any

// ListParams narrows a list call. Cursor, when set, is the opaque value from a
// previous Page.Next and takes precedence over the other fields.
type ListParams struct {
	Parent   string
	Limit    int
	Ordering string
	Cursor   string
}

// Page is one slice of a listing.
type Page struct {
	Results []tree.Node `json:"results"`
	Next    string      `json:"next"`
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client issues calls against the resource API. It is safe for concurrent
// use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	mu        sync.RWMutex
	resources map[string]string
	online    bool
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "vault-browser"
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		online: true,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsOnline reports whether the last request reached the server.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			logging.S().Infow("resource API reachable again", "base", c.baseURL)
		} else {
			logging.S().Warnw("resource API unreachable", "base", c.baseURL)
		}
	}
	c.online = online
}

// Discover fetches the API root, which maps resource names to their
// collection URLs. The result is cached.
func (c *Client) Discover(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	cached := c.resources
	c.mu.RUnlock()
	if cached != nil {
		return copyResources(cached), nil
	}
	root := c.baseURL + "/"
	var resources map[string]string
	if err := c.do(ctx, http.MethodGet, "root", root, nil, &resources); err != nil {
		return nil, fmt.Errorf("discover resources: %w", err)
	}
	if resources == nil {
		resources = map[string]string{}
	}
	c.mu.Lock()
	c.resources = resources
	c.mu.Unlock()
	events.API.Discover(root, len(resources))
	return copyResources(resources), nil
}

func copyResources(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (c *Client) collectionURL(ctx context.Context, resource string) (string, error) {
	resources, err := c.Discover(ctx)
	if err != nil {
		return "", err
	}
	u, ok := resources[resource]
	if !ok {
		return "", fmt.Errorf("resource %q not offered by %s", resource, c.baseURL)
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u, nil
}

func (c *Client) itemURL(ctx context.Context, resource, id string) (string, error) {
	base, err := c.collectionURL(ctx, resource)
	if err != nil {
		return "", err
	}
	return base + url.PathEscape(id) + "/", nil
}

// List returns one page of resource items.
func (c *Client) List(ctx context.Context, resource string, params ListParams) (Page, error) {
	target := params.Cursor
	if target == "" {
		base, err := c.collectionURL(ctx, resource)
		if err != nil {
			return Page{}, err
		}
		q := url.Values{}
		q.Set("parent", params.Parent)
		if params.Limit > 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Ordering != "" {
			q.Set("ordering", params.Ordering)
		}
		target = base + "?" + q.Encode()
	}
	var page Page
	if err := c.do(ctx, http.MethodGet, resource, target, nil, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// Get fetches a single item.
func (c *Client) Get(ctx context.Context, resource, id string) (tree.Node, error) {
	target, err := c.itemURL(ctx, resource, id)
	if err != nil {
		return tree.Node{}, err
	}
	var node tree.Node
	if err := c.do(ctx, http.MethodGet, resource, target, nil, &node); err != nil {
		return tree.Node{}, err
	}
	return node, nil
}

// Create adds an item. A sibling with the same name yields a ConflictError.
func (c *Client) Create(ctx context.Context, resource string, attrs Attrs) (tree.Node, error) {
	target, err := c.collectionURL(ctx, resource)
	if err != nil {
		return tree.Node{}, err
	}
	var node tree.Node
	if err := c.do(ctx, http.MethodPost, resource, target, attrs, &node); err != nil {
		return tree.Node{}, err
	}
	return node, nil
}

// Patch updates the given attributes. It serves both rename ("name") and move
// ("parent").
func (c *Client) Patch(ctx context.Context, resource, id string, attrs Attrs) (tree.Node, error) {
	target, err := c.itemURL(ctx, resource, id)
	if err != nil {
		return tree.Node{}, err
	}
	var node tree.Node
	if err := c.do(ctx, http.MethodPatch, resource, target, attrs, &node); err != nil {
		return tree.Node{}, err
	}
	return node, nil
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	target, err := c.itemURL(ctx, resource, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, resource, target, nil, nil)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, resource, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", method, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		c.setOnline(false)
		metrics.RecordAPIRequest(method, resource, 0, elapsed)
		netErr := &NetworkError{Op: method, URL: target, Err: err}
		events.API.Request(method, target, 0, elapsed, netErr)
		return netErr
	}
	defer resp.Body.Close()
	c.setOnline(true)

	elapsed := time.Since(start)
	metrics.RecordAPIRequest(method, resource, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &eb) != nil || eb.Detail == "" {
			eb.Detail = strings.TrimSpace(string(raw))
		}
		var apiErr error
		if resp.StatusCode == http.StatusConflict {
			apiErr = &ConflictError{Detail: eb.Detail}
		} else {
			apiErr = &ServerError{Status: resp.StatusCode, Detail: eb.Detail}
		}
		events.API.Request(method, target, resp.StatusCode, elapsed, apiErr)
		return apiErr
	}
	events.API.Request(method, target, resp.StatusCode, elapsed, nil)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, resource, err)
	}
	return nil
}
