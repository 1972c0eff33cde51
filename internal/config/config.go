package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"unsplash-cli/internal/api"
)

const AppName = "unsplash-cli"

const (
	defaultRedirectURI = "http://127.0.0.1:8890/oauth/authorize/native"
	defaultPageSize    = 10
	defaultOrderBy     = "latest"
	defaultLogLevel    = "info"
)

var defaultScopes = []string{"public", "read_user", "write_likes"}

// Config is the static application configuration: OAuth credentials plus feed
// and logging settings. It is read from an optional YAML file, with the
// credentials overridable through UNSPLASH_CLIENT_ID / UNSPLASH_CLIENT_SECRET.
type Config struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`

	PageSize int    `yaml:"page_size"`
	OrderBy  string `yaml:"order_by"`

	LogLevel string `yaml:"log_level"`
	CacheDir string `yaml:"cache_dir"`
}

// Load reads the configuration from path (or the default location when path
// is empty; a missing file is not an error), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		RedirectURI: defaultRedirectURI,
		Scopes:      defaultScopes,
		PageSize:    defaultPageSize,
		OrderBy:     defaultOrderBy,
		LogLevel:    defaultLogLevel,
		CacheDir:    filepath.Join(configDir(), "photos"),
	}

	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &api.ConfigurationError{Reason: "config file " + path + " is not valid YAML: " + err.Error()}
		}
	} else if !os.IsNotExist(err) {
		return nil, &api.ConfigurationError{Reason: "cannot read config file " + path + ": " + err.Error()}
	}

	if v := os.Getenv("UNSPLASH_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("UNSPLASH_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, &api.ConfigurationError{Reason: "client_id and client_secret must be set (config file or UNSPLASH_CLIENT_ID / UNSPLASH_CLIENT_SECRET)"}
	}
	if cfg.OrderBy != "latest" && cfg.OrderBy != "popular" {
		return nil, &api.ConfigurationError{Reason: "order_by must be \"latest\" or \"popular\", got " + cfg.OrderBy}
	}
	if cfg.PageSize <= 0 {
		return nil, &api.ConfigurationError{Reason: "page_size must be positive"}
	}

	return cfg, nil
}

// Credentials returns the OAuth credentials in the form the api package
// consumes.
func (c *Config) Credentials() api.Credentials {
	return api.Credentials{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Scopes:       c.Scopes,
	}
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(homeDir, ".config", AppName)
}
