package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/mrkt/internal/validation"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Browse  BrowseConfig  `mapstructure:"browse"`
	UI      UIConfig      `mapstructure:"ui"`
	Keys    KeyConfig     `mapstructure:"keys"`
	Log     LogConfig     `mapstructure:"log"`
	Browser BrowserConfig `mapstructure:"browser"`
}

type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	RateLimit  float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
}

type BrowseConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	PageSizes      []int         `mapstructure:"page_sizes"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	NarrowWidth    int           `mapstructure:"narrow_width"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxSummaryLength int `mapstructure:"max_summary_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Author      string `mapstructure:"author"`
	Content     string `mapstructure:"content"`
	Category    string `mapstructure:"category"`
	SubCategory string `mapstructure:"sub_category"`
	Sort        string `mapstructure:"sort"`
	Order       string `mapstructure:"order"`
	PageSize    string `mapstructure:"page_size"`
	Dates       string `mapstructure:"dates"`
	Reset       string `mapstructure:"reset"`
	NextPage    string `mapstructure:"next_page"`
	PrevPage    string `mapstructure:"prev_page"`
	FirstPage   string `mapstructure:"first_page"`
	LastPage    string `mapstructure:"last_page"`
	GotoPage    string `mapstructure:"goto_page"`
	Refresh     string `mapstructure:"refresh"`
	Open        string `mapstructure:"open"`
	Back        string `mapstructure:"back"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type BrowserConfig struct {
	DefaultOpener string   `mapstructure:"default_opener"`
	Commands      []string `mapstructure:"commands"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	logPath := filepath.Join(homeDir, ".mrkt", "mrkt.log")

	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			Timeout:    15 * time.Second,
			UserAgent:  "mrkt/1.0 (https://github.com/pders01/mrkt)",
			Retries:    3,
			RetryDelay: 1 * time.Second,
			RateLimit:  10,
		},
		Browse: BrowseConfig{
			PageSize:       12,
			PageSizes:      []int{6, 12, 24, 48},
			SearchDebounce: 500 * time.Millisecond,
			NarrowWidth:    64,
			CacheTTL:       5 * time.Minute,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Article: ArticleConfig{
				MaxSummaryLength: 160,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "/",
				Author:      "a",
				Content:     "t",
				Category:    "c",
				SubCategory: "s",
				Sort:        "o",
				Order:       "r",
				PageSize:    "z",
				Dates:       "d",
				Reset:       "x",
				NextPage:    "n",
				PrevPage:    "p",
				FirstPage:   "home",
				LastPage:    "end",
				GotoPage:    "g",
				Refresh:     "R",
				Open:        "w",
				Back:        "esc",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  logPath,
		},
		Browser: BrowserConfig{
			DefaultOpener: getDefaultOpener(),
			Commands:      []string{"xdg-open", "open", "sensible-browser", "firefox"},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// setDefaults registers every leaf key so partial config files keep the
// remaining defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

func flatten(cfg *Config) map[string]any {
	c := cfg.UI.Colors
	a := cfg.UI.Article
	b := cfg.Keys.Bindings
	return map[string]any{
		"api.base_url":    cfg.API.BaseURL,
		"api.timeout":     cfg.API.Timeout,
		"api.user_agent":  cfg.API.UserAgent,
		"api.retries":     cfg.API.Retries,
		"api.retry_delay": cfg.API.RetryDelay,
		"api.rate_limit":  cfg.API.RateLimit,

		"browse.page_size":       cfg.Browse.PageSize,
		"browse.page_sizes":      cfg.Browse.PageSizes,
		"browse.search_debounce": cfg.Browse.SearchDebounce,
		"browse.narrow_width":    cfg.Browse.NarrowWidth,
		"browse.cache_ttl":       cfg.Browse.CacheTTL,

		"ui.colors.primary":    c.Primary,
		"ui.colors.secondary":  c.Secondary,
		"ui.colors.accent":     c.Accent,
		"ui.colors.background": c.Background,
		"ui.colors.surface":    c.Surface,
		"ui.colors.text":       c.Text,
		"ui.colors.muted":      c.Muted,
		"ui.colors.error":      c.Error,
		"ui.colors.success":    c.Success,

		"ui.article.max_summary_length":  a.MaxSummaryLength,
		"ui.article.word_wrap_max_width": a.WordWrapMaxWidth,
		"ui.article.word_wrap_min_width": a.WordWrapMinWidth,

		"keys.modifier":              cfg.Keys.Modifier,
		"keys.bindings.quit":         b.Quit,
		"keys.bindings.search":       b.Search,
		"keys.bindings.author":       b.Author,
		"keys.bindings.content":      b.Content,
		"keys.bindings.category":     b.Category,
		"keys.bindings.sub_category": b.SubCategory,
		"keys.bindings.sort":         b.Sort,
		"keys.bindings.order":        b.Order,
		"keys.bindings.page_size":    b.PageSize,
		"keys.bindings.dates":        b.Dates,
		"keys.bindings.reset":        b.Reset,
		"keys.bindings.next_page":    b.NextPage,
		"keys.bindings.prev_page":    b.PrevPage,
		"keys.bindings.first_page":   b.FirstPage,
		"keys.bindings.last_page":    b.LastPage,
		"keys.bindings.goto_page":    b.GotoPage,
		"keys.bindings.refresh":      b.Refresh,
		"keys.bindings.open":         b.Open,
		"keys.bindings.back":         b.Back,

		"log.level": cfg.Log.Level,
		"log.path":  cfg.Log.Path,

		"browser.default_opener": cfg.Browser.DefaultOpener,
		"browser.commands":       cfg.Browser.Commands,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		if !validation.IsPathSafe(configPath) {
			return nil, fmt.Errorf("unsafe config path %q", configPath)
		}
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "mrkt")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MRKT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	normalize(&config)

	return &config, nil
}

// normalize replaces unusable values with defaults.
func normalize(cfg *Config) {
	def := defaultConfig()
	if cfg.Browse.PageSize < 1 {
		cfg.Browse.PageSize = def.Browse.PageSize
	}
	if len(cfg.Browse.PageSizes) == 0 {
		cfg.Browse.PageSizes = def.Browse.PageSizes
	}
	if cfg.Browse.SearchDebounce <= 0 {
		cfg.Browse.SearchDebounce = def.Browse.SearchDebounce
	}
	if cfg.Browse.NarrowWidth < 0 {
		cfg.Browse.NarrowWidth = def.Browse.NarrowWidth
	}
	if cfg.API.Retries < 0 {
		cfg.API.Retries = 0
	}
	if cfg.API.RateLimit < 0 {
		cfg.API.RateLimit = 0
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = def.API.Timeout
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// tomlTree converts the config into nested maps with durations as strings,
// which is what both viper and humans expect to read back.
func tomlTree(config *Config) map[string]any {
	tree := map[string]any{}
	for key, value := range flatten(config) {
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		node := tree
		parts := strings.Split(key, ".")
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return tree
}

// Marshal renders the config as TOML.
func Marshal(config *Config) ([]byte, error) {
	out, err := toml.Marshal(tomlTree(config))
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

func Save(config *Config, path string) error {
	data, err := Marshal(config)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// DefaultPath is where GenerateDefaultConfig writes when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mrkt", "config.toml")
}
