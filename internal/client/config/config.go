package config

import "time"

// Config holds runtime settings for the recipe book CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API, e.g. http://127.0.0.1:8000.
//   - RequestTimeout: upper bound for a single API call.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// LoadDefaults points the CLI at a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig layers defaults, the optional JSON file and flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
