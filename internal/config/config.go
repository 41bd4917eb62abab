// Package config loads application settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Gemini struct {
		APIKeys []string `yaml:"api_keys"`
		Model   string   `yaml:"model"`
	} `yaml:"gemini"`

	Feeds struct {
		File        string `yaml:"file"`
		MaxPerFeed  int    `yaml:"max_per_feed"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"feeds"`

	Analysis struct {
		Workers    int `yaml:"workers"`
		MaxRetries int `yaml:"max_retries"`
	} `yaml:"analysis"`

	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./newswatch.db"
	cfg.Gemini.Model = "gemini-1.5-flash"
	cfg.Feeds.MaxPerFeed = 50
	cfg.Feeds.Concurrency = 10
	cfg.Analysis.Workers = 4
	cfg.Analysis.MaxRetries = 3
	cfg.Web.Addr = ":8080"
	return cfg
}

// Load reads a YAML config file over the defaults and then applies
// environment overrides. A missing file is not an error; the defaults and
// environment still apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the environment override the file. GEMINI_API_KEYS is a
// comma-separated list; blanks are dropped.
func (c *Config) applyEnv() {
	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		c.Gemini.APIKeys = nil
		for _, key := range strings.Split(keys, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.Gemini.APIKeys = append(c.Gemini.APIKeys, key)
			}
		}
	}
	if path := os.Getenv("NEWSWATCH_DB"); path != "" {
		c.Database.Path = path
	}
	if addr := os.Getenv("NEWSWATCH_ADDR"); addr != "" {
		c.Web.Addr = addr
	}
}
