// Package config loads application configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Dialect string `yaml:"dialect"` // sqlite3 or postgres
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`

	Upload struct {
		Dir string `yaml:"dir"`
	} `yaml:"upload"`

	LLM struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		// Token comes from MENUAUDIT_LLM_TOKEN, never from the file.
		Token string `yaml:"-"`
	} `yaml:"llm"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns a configuration usable without any file at all.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Database.Dialect = "sqlite3"
	cfg.Database.DSN = "menuaudit.db"
	cfg.Upload.Dir = "uploads"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults plus environment overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if token := os.Getenv("MENUAUDIT_LLM_TOKEN"); token != "" {
		cfg.LLM.Token = token
		cfg.LLM.Enabled = true
	}
	if dsn := os.Getenv("MENUAUDIT_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}
