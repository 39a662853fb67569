package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Well-known file names, all siblings of the config file.
const (
	ConfigFilename   = "vault.yaml"
	DatabaseFilename = "vault.db"
	UpdatesFilename  = "vault.updates.csv"
)

// Config holds all application configuration.
type Config struct {
	Default struct {
		Tickers []string `yaml:"tickers"`
	} `yaml:"default"`
	History struct {
		LookbackMonths int `yaml:"lookback_months"`
	} `yaml:"history"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`

	// Dir is the directory the config file was found in; the database and
	// corrections files live next to it.
	Dir string `yaml:"-"`
}

// FindDir walks up from start looking for the config file, like git does
// with .git. Returns an error when no config file exists up to the root.
func FindDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start dir: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFilename)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory (run 'vault init' to create one)", ConfigFilename, start)
		}
		dir = parent
	}
}

// Load reads the config file in dir, then applies environment variable
// overrides and defaults.
func Load(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFilename))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("VAULT_REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}

	// Defaults
	if cfg.History.LookbackMonths == 0 {
		cfg.History.LookbackMonths = 12
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 19 * * 1-5"
	}

	return cfg, nil
}

// Validate checks the loaded configuration once, at the boundary.
func (c *Config) Validate() error {
	if c.History.LookbackMonths < 1 || c.History.LookbackMonths > 120 {
		return fmt.Errorf("history.lookback_months must be between 1 and 120, got %d", c.History.LookbackMonths)
	}
	for _, t := range c.Default.Tickers {
		if t == "" {
			return fmt.Errorf("default.tickers must not contain empty entries")
		}
	}
	return nil
}

// DatabasePath returns the archive file path.
func (c *Config) DatabasePath() string { return filepath.Join(c.Dir, DatabaseFilename) }

// UpdatesPath returns the corrections CSV path.
func (c *Config) UpdatesPath() string { return filepath.Join(c.Dir, UpdatesFilename) }

const starterConfig = `# StockVault configuration file

default:
  # List your stock tickers here
  tickers: []

history:
  # Months of dividends considered by the yield report
  lookback_months: 12

schedule:
  # When 'vault watch' refreshes the archive (cron spec with seconds)
  refresh_cron: "0 0 19 * * 1-5"
`

// Init writes a starter config and an empty corrections CSV into dir.
// Fails when a config file already exists.
func Init(dir string) (string, error) {
	cfgPath := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(cfgPath); err == nil {
		return "", fmt.Errorf("%s already exists in %s", ConfigFilename, dir)
	}
	if err := os.WriteFile(cfgPath, []byte(starterConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	updatesPath := filepath.Join(dir, UpdatesFilename)
	if _, err := os.Stat(updatesPath); os.IsNotExist(err) {
		header := "Date,Symbol,Open,High,Low,Close,Volume,Dividends,Splits\n"
		if err := os.WriteFile(updatesPath, []byte(header), 0o644); err != nil {
			return "", fmt.Errorf("write corrections file: %w", err)
		}
	}
	return cfgPath, nil
}
