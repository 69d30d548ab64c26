package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			Timeout:    5 * time.Second,
			UserAgent:  "mrkt-test/1.0",
			Retries:    0,
			RetryDelay: 10 * time.Millisecond,
		},
		Browse: BrowseConfig{
			PageSize:       12,
			PageSizes:      []int{6, 12, 24, 48},
			SearchDebounce: 20 * time.Millisecond,
			NarrowWidth:    64,
			CacheTTL:       time.Minute,
		},
		UI:   def.UI,
		Keys: def.Keys,
		Log: LogConfig{
			Level: "off",
		},
		Browser: def.Browser,
	}
}
