package recombee

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 -- the API mandates HMAC-SHA1 request signing
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"recsync/internal/catalog"
)

// maxBatchSize is the largest number of requests the batch endpoint accepts.
const maxBatchSize = 10000

type Config struct {
	Database string
	Key      string
	Region   string
	BaseURI  string
}

// Client talks to the Recombee REST API through its batch endpoint.
type Client struct {
	cfg     Config
	baseURL string
	client  *http.Client
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: BaseURL(cfg),
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL resolves the API host: an explicit base URI wins over the region.
func BaseURL(cfg Config) string {
	switch {
	case cfg.BaseURI != "":
		u := strings.TrimRight(cfg.BaseURI, "/")
		if !strings.Contains(u, "://") {
			u = "https://" + u
		}
		return u
	case cfg.Region != "":
		return "https://rapi-" + strings.ToLower(cfg.Region) + ".recombee.com"
	default:
		return "https://rapi.recombee.com"
	}
}

// APIError is a non-success response of the batch call itself.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recombee api error: %d: %s", e.StatusCode, e.Body)
}

// RequestError is a failed request inside an otherwise accepted batch.
type RequestError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("recombee %s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
}

type request struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Params map[string]any `json:"params,omitempty"`
}

type result struct {
	Code int             `json:"code"`
	JSON json.RawMessage `json:"json"`
}

// AddProperties declares item properties. A property that already exists
// answers 409, which counts as success.
func (c *Client) AddProperties(ctx context.Context, props []catalog.Property) error {
	reqs := make([]request, 0, len(props))
	for _, p := range props {
		reqs = append(reqs, request{
			Method: http.MethodPut,
			Path:   "/items/properties/" + url.PathEscape(p.Name),
			Params: map[string]any{"type": string(p.Type)},
		})
	}
	return c.batch(ctx, reqs, http.StatusConflict)
}

// SetItems upserts item values, creating missing items.
func (c *Client) SetItems(ctx context.Context, items []catalog.Item) error {
	reqs := make([]request, 0, len(items))
	for _, it := range items {
		params := make(map[string]any, len(it.Values)+1)
		for k, v := range it.Values {
			params[k] = v
		}
		params["!cascadeCreate"] = true
		reqs = append(reqs, request{
			Method: http.MethodPost,
			Path:   "/items/" + url.PathEscape(it.ID),
			Params: params,
		})
	}
	return c.batch(ctx, reqs)
}

// DeleteItems removes items. Deleting an unknown item answers 404, which
// counts as success.
func (c *Client) DeleteItems(ctx context.Context, ids []string) error {
	reqs := make([]request, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, request{
			Method: http.MethodDelete,
			Path:   "/items/" + url.PathEscape(id),
		})
	}
	return c.batch(ctx, reqs, http.StatusNotFound)
}

func (c *Client) batch(ctx context.Context, reqs []request, benign ...int) error {
	for start := 0; start < len(reqs); start += maxBatchSize {
		end := min(start+maxBatchSize, len(reqs))
		if err := c.send(ctx, reqs[start:end], benign); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, reqs []request, benign []int) error {
	body, err := json.Marshal(map[string]any{"requests": reqs})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signedURL("/"+url.PathEscape(c.cfg.Database)+"/batch/"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("recombee batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return fmt.Errorf("decode batch response: %w", err)
	}

	var errs []error
	for i, r := range results {
		if i >= len(reqs) || (r.Code >= 200 && r.Code < 300) || isBenign(r.Code, benign) {
			continue
		}
		errs = append(errs, &RequestError{
			Method:  reqs[i].Method,
			Path:    reqs[i].Path,
			Code:    r.Code,
			Message: resultMessage(r.JSON),
		})
	}
	return errors.Join(errs...)
}

// signedURL appends hmac_timestamp and hmac_sign to path. The signature is
// an HMAC-SHA1 of the path and query, keyed by the private token.
func (c *Client) signedURL(path string) string {
	unsigned := path + "?hmac_timestamp=" + strconv.FormatInt(c.now().Unix(), 10)
	mac := hmac.New(sha1.New, []byte(c.cfg.Key))
	mac.Write([]byte(unsigned))
	return c.baseURL + unsigned + "&hmac_sign=" + hex.EncodeToString(mac.Sum(nil))
}

func isBenign(code int, benign []int) bool {
	for _, b := range benign {
		if code == b {
			return true
		}
	}
	return false
}

func resultMessage(raw json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
