package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/filter"
	"github.com/pders01/mrkt/internal/marketplace"
)

const articlesPayload = `{
  "total": 30, "page": 2, "limit": 12, "total_pages": 3,
  "articles": [
    {"titre": "Go 1.24 released", "url": "https://example.com/go", "auteur": "Gopher",
     "categorie": "Tech", "sous_categorie": "AI", "date_publication": "2024-02-01T10:00:00Z"},
    {"titre": "", "url": "https://example.com/untitled"}
  ]
}`

// backend is a stand-in marketplace API that records the last query string.
type backend struct {
	mu        sync.Mutex
	lastQuery string
	unhealthy bool
	failing   bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastQuery = r.URL.RawQuery
	failing, unhealthy := b.failing, b.unhealthy
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/categories":
		io.WriteString(w, `["Tech", "Sport", " "]`)
	case "/sous-categories":
		if r.URL.Query().Get("categorie") == "Tech" {
			io.WriteString(w, `["AI", "Cloud"]`)
			return
		}
		io.WriteString(w, `["AI", "Cloud", "Football"]`)
	case "/articles":
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error": "database is down"}`)
			return
		}
		io.WriteString(w, articlesPayload)
	case "/health":
		if unhealthy {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"status": "unhealthy", "database": "disconnected", "error": "connection refused"}`)
			return
		}
		io.WriteString(w, `{"status": "healthy", "database": "connected"}`)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) set(failing, unhealthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = failing
	b.unhealthy = unhealthy
}

func (b *backend) query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery
}

func newBackend(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv.URL
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Save(config.TestConfig(), path))
	return path
}

// resetFlags puts every flag back to its default; the command tree is
// package state shared by all tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", writeTestConfig(t)}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})

	// Version is "dev" by default in tests
	assert.Contains(t, out, "mrkt dev")
	assert.Contains(t, out, "Marketplace article browser")
	assert.Contains(t, out, "github.com/pders01/mrkt")
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "mrkt", "config.toml")

	out := captureStdout(t, func() {
		require.NoError(t, configGenCmd.RunE(configGenCmd, nil))
	})

	assert.FileExists(t, configFile)
	assert.Contains(t, out, "Generated default configuration at:")

	cfg, err := config.Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Browse.PageSize)
}

func TestGenerateConfigCommandWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mrkt.toml")

	out := captureStdout(t, func() {
		require.NoError(t, configGenCmd.RunE(configGenCmd, []string{path}))
	})

	assert.FileExists(t, path)
	assert.Contains(t, out, path)
}

func TestConfigShowAppliesFlags(t *testing.T) {
	out, err := execute(t, "--api", "http://10.0.0.5:5000", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "[api]")
	assert.Contains(t, out, "http://10.0.0.5:5000")
	assert.Contains(t, out, "[keys.bindings]")
}

func TestArticlesCommand(t *testing.T) {
	b, url := newBackend(t)

	out, err := execute(t, "--api", url, "articles",
		"--category", "Tech", "--sub-category", "AI", "--title", "  go ",
		"--page", "2", "--sort-by", "title", "--order", "asc")
	require.NoError(t, err)

	assert.Equal(t, "categorie=Tech&limit=12&page=2&sort_by=titre&sort_order=asc&sous_categorie=AI&titre=go", b.query())
	assert.Contains(t, out, "Go 1.24 released")
	assert.Contains(t, out, "2024-02-01")
	assert.Contains(t, out, "Tech › AI")
	assert.NotContains(t, out, "untitled")
	assert.Contains(t, out, "30 articles found • page 2 of 3")
	assert.Contains(t, out, "‹ 1 [2] 3 ›")
}

func TestArticlesCommandJSON(t *testing.T) {
	b, url := newBackend(t)

	out, err := execute(t, "--api", url, "articles", "--limit", "6", "--json")
	require.NoError(t, err)
	assert.Equal(t, "limit=6&page=1&sort_by=date_publication&sort_order=desc", b.query())

	var page marketplace.ArticlePage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 30, page.Total)
	require.Len(t, page.Articles, 1)
	assert.Equal(t, "Gopher", page.Articles[0].Author)
}

func TestArticlesCommandServerError(t *testing.T) {
	b, url := newBackend(t)
	b.set(true, false)

	_, err := execute(t, "--api", url, "articles")
	require.Error(t, err)

	var se *marketplace.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "database is down", se.Message)
}

func TestArticlesCommandRejectsBadFlags(t *testing.T) {
	_, url := newBackend(t)

	tests := [][]string{
		{"--sub-category", "AI"},
		{"--sort-by", "popularity"},
		{"--order", "sideways"},
		{"--from", "2024-13-01"},
		{"--from", "2024-03-01", "--to", "2024-02-01"},
		{"--page", "0"},
	}
	for _, args := range tests {
		_, err := execute(t, append([]string{"--api", url, "articles"}, args...)...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestArticleOptionsCriteria(t *testing.T) {
	opts := articleOptions{
		category:    "Tech",
		subCategory: "AI",
		author:      " Jane  Doe ",
		from:        "2024-01-01",
		page:        3,
		sortBy:      "auteur",
		order:       "asc",
	}

	c, err := opts.criteria(24)
	require.NoError(t, err)

	assert.Equal(t, "Tech", c.Category)
	assert.Equal(t, "AI", c.SubCategory)
	assert.Equal(t, "Jane Doe", c.Author)
	assert.Equal(t, 3, c.Page)
	assert.Equal(t, 24, c.PageSize)
	assert.Equal(t, marketplace.SortByAuthor, c.SortBy)
	assert.Equal(t, marketplace.Ascending, c.SortOrder)
	assert.Equal(t, "2024-01-01", c.StartDate.Format(marketplace.DateLayout))
	assert.True(t, c.EndDate.IsZero())
}

func TestArticleOptionsDefaults(t *testing.T) {
	opts := articleOptions{
		page:   filter.DefaultPage,
		sortBy: string(marketplace.SortByDate),
		order:  string(marketplace.Descending),
	}

	c, err := opts.criteria(filter.DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, filter.Default(), c)
}

func TestCategoriesCommand(t *testing.T) {
	_, url := newBackend(t)

	out, err := execute(t, "--api", url, "categories")
	require.NoError(t, err)
	assert.Equal(t, "Tech\nSport\n", out)

	out, err = execute(t, "--api", url, "categories", "--json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"Tech", "Sport"}, names)
}

func TestSubCategoriesCommand(t *testing.T) {
	b, url := newBackend(t)

	out, err := execute(t, "--api", url, "subcategories", "--category", "Tech")
	require.NoError(t, err)
	assert.Equal(t, "categorie=Tech", b.query())
	assert.Equal(t, "AI\nCloud\n", out)

	out, err = execute(t, "--api", url, "subcategories")
	require.NoError(t, err)
	assert.Empty(t, b.query())
	assert.Equal(t, "AI\nCloud\nFootball\n", out)
}

func TestHealthCommand(t *testing.T) {
	b, url := newBackend(t)

	out, err := execute(t, "--api", url, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "status:   healthy")
	assert.Contains(t, out, "database: connected")

	b.set(false, true)
	out, err = execute(t, "--api", url, "health")
	require.Error(t, err)
	assert.Contains(t, out, "status:   unhealthy")
	assert.Contains(t, out, "error:    connection refused")
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := execute(t, "--api", "http://exa mple.com", "categories")
	assert.Error(t, err)
}
