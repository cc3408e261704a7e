package kontent

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

	"recsync/internal/content"
)

const (
	DefaultDeliveryURL = "https://deliver.kontent.ai"

	continuationHeader = "X-Continuation"
)

// ErrContinuationLoop is returned when the items feed hands back a
// continuation token it already sent.
var ErrContinuationLoop = errors.New("kontent: items feed repeated a continuation token")

// Config selects what a Client reads. Language is mandatory for item reads:
// without it every item lookup resolves empty and no request is made, so an
// unconfigured locale is never synced by accident.
type Config struct {
	EnvironmentID string
	ContentType   string
	Language      string
}

type Client struct {
	cfg       Config
	baseURL   string
	apiKey    string
	sourceTag string
	client    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithSecureAPIKey authenticates against environments with secure access.
func WithSecureAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithSourceTag sets the X-KC-SOURCE tracking header.
func WithSourceTag(tag string) Option {
	return func(c *Client) { c.sourceTag = tag }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: DefaultDeliveryURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-success response from the delivery API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kontent api error: %d %s: %s", e.StatusCode, e.Path, e.Body)
}

// GetContentType fetches the configured content type with its element
// definitions.
func (c *Client) GetContentType(ctx context.Context) (*content.Type, error) {
	var typ content.Type
	found, _, err := c.get(ctx, "/types/"+url.PathEscape(c.cfg.ContentType), nil, nil, &typ)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &APIError{StatusCode: http.StatusNotFound, Path: "/types/" + c.cfg.ContentType, Body: "content type not found"}
	}
	return &typ, nil
}

// GetContentForCodename fetches one item variant in the configured language.
// A missing item is reported as nil without an error.
func (c *Client) GetContentForCodename(ctx context.Context, codename string) (*content.Item, error) {
	if c.cfg.Language == "" {
		return nil, nil
	}

	var resp struct {
		Item content.Item `json:"item"`
	}
	query := url.Values{"language": {c.cfg.Language}}
	found, _, err := c.get(ctx, "/items/"+url.PathEscape(codename), query, nil, &resp)
	if err != nil || !found {
		return nil, err
	}
	return &resp.Item, nil
}

// GetAllContentItemsOfType reads the items feed for the configured type and
// language, following continuation tokens until the feed is exhausted.
func (c *Client) GetAllContentItemsOfType(ctx context.Context) ([]content.Item, error) {
	if c.cfg.Language == "" {
		return []content.Item{}, nil
	}

	query := url.Values{
		"system.type":     {c.cfg.ContentType},
		"language":        {c.cfg.Language},
		"system.language": {c.cfg.Language},
	}

	items := []content.Item{}
	continuation := ""
	seen := make(map[string]struct{})
	for {
		var page struct {
			Items []content.Item `json:"items"`
		}
		header := http.Header{}
		if continuation != "" {
			header.Set(continuationHeader, continuation)
		}
		_, respHeader, err := c.get(ctx, "/items-feed", query, header, &page)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		continuation = respHeader.Get(continuationHeader)
		if continuation == "" {
			return items, nil
		}
		if _, ok := seen[continuation]; ok {
			return nil, fmt.Errorf("%w: %q", ErrContinuationLoop, continuation)
		}
		seen[continuation] = struct{}{}
	}
}

// get decodes a JSON response into dst. It reports false for 404.
func (c *Client) get(ctx context.Context, path string, query url.Values, header http.Header, dst any) (bool, http.Header, error) {
	u := c.baseURL + "/" + url.PathEscape(c.cfg.EnvironmentID) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-KC-Wait-For-Loading-New-Content", "true")
	if c.sourceTag != "" {
		req.Header.Set("X-KC-SOURCE", c.sourceTag)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("kontent request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, resp.Header, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, nil, &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return true, resp.Header, nil
}
