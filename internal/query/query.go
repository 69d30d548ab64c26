// Package query is the data fetch layer between the terminal UI and the
// marketplace API. Each resource is cached per parameter key, concurrent
// requests for one key are merged, and failures are retried with backoff.
package query

import (
	"context"
	"time"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
)

// CategoriesKey is the only key of the categories resource.
const CategoriesKey = "categories"

// State is the view of one resource for one key.
type State[T any] struct {
	Key     string
	Loading bool
	Err     error
	Data    T
}

// Pending returns the loading state for key.
func Pending[T any](key string) State[T] {
	return State[T]{Key: key, Loading: true}
}

func (s State[T]) Ready() bool {
	return !s.Loading && s.Err == nil
}

// API is the subset of the marketplace client the fetch layer needs.
type API interface {
	Categories(ctx context.Context) ([]string, error)
	SubCategories(ctx context.Context, category string) ([]string, error)
	Articles(ctx context.Context, q marketplace.ArticleQuery) (*marketplace.ArticlePage, error)
}

type Client struct {
	api     API
	timeout time.Duration

	categories    *Cache[[]string]
	subCategories *Cache[[]string]
	articles      *Cache[*marketplace.ArticlePage]
}

func NewClient(api API, cfg *config.Config) *Client {
	policy := DefaultRetryPolicy()
	policy.Retries = cfg.API.Retries
	policy.BaseDelay = cfg.API.RetryDelay

	return &Client{
		api:           api,
		timeout:       cfg.API.Timeout,
		categories:    NewCache[[]string]("categories", 0, policy),
		subCategories: NewCache[[]string]("sub-categories", cfg.Browse.CacheTTL, policy),
		articles:      NewCache[*marketplace.ArticlePage]("articles", cfg.Browse.CacheTTL, policy),
	}
}

// SubCategoriesKey is the cache key for the sub-categories of category.
func SubCategoriesKey(category string) string {
	return "sous-categories?categorie=" + category
}

// ArticlesKey is the cache key for the page selected by c.
func ArticlesKey(c filter.Criteria) string {
	return c.Key()
}

// Categories is fetched once per session.
func (c *Client) Categories(ctx context.Context) State[[]string] {
	data, err := c.categories.Fetch(ctx, CategoriesKey, c.api.Categories)
	return State[[]string]{Key: CategoriesKey, Err: err, Data: data}
}

// SubCategories lists the sub-categories of category, or all of them when
// category is empty.
func (c *Client) SubCategories(ctx context.Context, category string) State[[]string] {
	key := SubCategoriesKey(category)
	data, err := c.subCategories.Fetch(ctx, key, func(ctx context.Context) ([]string, error) {
		return c.api.SubCategories(ctx, category)
	})
	return State[[]string]{Key: key, Err: err, Data: data}
}

func (c *Client) Articles(ctx context.Context, criteria filter.Criteria) State[*marketplace.ArticlePage] {
	key := ArticlesKey(criteria)
	q := criteria.Query()
	data, err := c.articles.Fetch(ctx, key, func(ctx context.Context) (*marketplace.ArticlePage, error) {
		return c.api.Articles(ctx, q)
	})
	return State[*marketplace.ArticlePage]{Key: key, Err: err, Data: data}
}

// CachedArticles returns the stored page for criteria without fetching.
func (c *Client) CachedArticles(criteria filter.Criteria) (*marketplace.ArticlePage, bool) {
	return c.articles.Get(ArticlesKey(criteria))
}

func (c *Client) InvalidateArticles(criteria filter.Criteria) {
	c.articles.Invalidate(ArticlesKey(criteria))
}

func (c *Client) InvalidateSubCategories(category string) {
	c.subCategories.Invalidate(SubCategoriesKey(category))
}

// Refresh drops every cached page. Categories are kept for the session and
// sub-category lists are dropped per category with InvalidateSubCategories.
func (c *Client) Refresh() {
	c.articles.Clear()
}

// Context returns a context bounded by the configured request timeout,
// stretched to cover the retries.
func (c *Client) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.budget())
}

func (c *Client) budget() time.Duration {
	p := c.articles.policy
	total := c.timeout * time.Duration(max(p.Retries, 0)+1)
	for i := 0; i < p.Retries; i++ {
		total += p.Backoff(i)
	}
	return total
}
