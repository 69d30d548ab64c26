package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/validation"
)

const maxBodySize = 8 << 20

// Client talks to the marketplace REST API.
type Client struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(cfg *config.Config) (*Client, error) {
	normalized, err := validation.NewBaseURLValidator().ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}

	limit, burst := rate.Inf, 0
	if cfg.API.RateLimit > 0 {
		limit = rate.Limit(cfg.API.RateLimit)
		burst = max(1, int(cfg.API.RateLimit))
	}

	return &Client{
		baseURL: base,
		client: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		userAgent: cfg.API.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "/categories", nil, &names); err != nil {
		return nil, err
	}
	return compactNames(names), nil
}

// SubCategories lists sub-categories, restricted to category when it is set.
func (c *Client) SubCategories(ctx context.Context, category string) ([]string, error) {
	params := url.Values{}
	if category = strings.TrimSpace(category); category != "" {
		params.Set("categorie", category)
	}
	var names []string
	if err := c.getJSON(ctx, "/sous-categories", params, &names); err != nil {
		return nil, err
	}
	return compactNames(names), nil
}

func (c *Client) Articles(ctx context.Context, q ArticleQuery) (*ArticlePage, error) {
	var page ArticlePage
	if err := c.getJSON(ctx, "/articles", q.Values(), &page); err != nil {
		return nil, err
	}

	dropped, err := page.normalize()
	if err != nil {
		return nil, err
	}
	for _, d := range dropped {
		debuglog.Warnf("articles: dropping entry: %v", d)
	}
	return &page, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	err := c.getJSON(ctx, "/health", nil, &h)
	if err != nil && h.Status == "" {
		return nil, err
	}
	return &h, err
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.endpoint(path, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrTransport, path, err)
	}

	debuglog.Debugf("GET %s", target)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode, Path: path}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			se.Message = envelope.Error
		}
		// /health answers 500 with a payload worth showing
		_ = json.Unmarshal(body, out)
		return se
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrInvalidPayload, path, err)
	}
	return nil
}

func compactNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
