package review

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds everything the review server and the CLI need. Values come
// from a YAML file and can be overridden through POLYPMARK_* environment
// variables.
type Config struct {
	BackendURL   string  `yaml:"backend_url" env:"POLYPMARK_BACKEND_URL"`
	Token        string  `yaml:"token" env:"POLYPMARK_TOKEN"`
	SamplingRate int     `yaml:"sampling_rate" env:"POLYPMARK_SAMPLING_RATE"`
	MinBoxSize   float64 `yaml:"min_box_size" env:"POLYPMARK_MIN_BOX_SIZE"`
	ReviewAddr   string  `yaml:"review_addr" env:"POLYPMARK_REVIEW_ADDR"`
	Database     string  `yaml:"database" env:"POLYPMARK_DATABASE"`
	CacheDir     string  `yaml:"cache_dir" env:"POLYPMARK_CACHE_DIR"`
}

// LoadConfig reads a YAML config file, applies environment overrides and
// fills in defaults. A missing file is fine as long as the environment
// carries the backend URL.
func LoadConfig(filename string) (*Config, error) {
	var ret Config
	f, err := os.Open(filename)
	if err == nil {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("while reading config file '%s': %w", filename, err)
		}
		if err := yaml.Unmarshal(data, &ret); err != nil {
			return nil, fmt.Errorf("while parsing config file '%s': %w", filename, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("while opening config file '%s': %w", filename, err)
	}
	if err := env.Parse(&ret); err != nil {
		return nil, fmt.Errorf("while applying environment overrides: %w", err)
	}
	ret.applyDefaults()
	if ret.BackendURL == "" {
		return nil, fmt.Errorf("no backend URL configured")
	}
	if ret.SamplingRate < 1 {
		return nil, fmt.Errorf("sampling rate must be at least 1, got %d", ret.SamplingRate)
	}
	return &ret, nil
}

func (c *Config) applyDefaults() {
	if c.SamplingRate == 0 {
		c.SamplingRate = 30
	}
	if c.MinBoxSize == 0 {
		c.MinBoxSize = 30
	}
	if c.ReviewAddr == "" {
		c.ReviewAddr = ":8669"
	}
	if c.Database == "" {
		c.Database = "polypmark.db"
	}
	if c.CacheDir == "" {
		c.CacheDir = "frame-cache"
	}
}
