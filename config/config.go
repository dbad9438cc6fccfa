package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when SENTIX_CONFIG is unset. It may be absent.
const DefaultPath = "config/sentix.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the dashboard.
type Config struct {
	Server      Server      `yaml:"server"`
	Gemini      Gemini      `yaml:"gemini"`
	Credentials Credentials `yaml:"credentials"`
	Journal     Journal     `yaml:"journal"`
	Logging     Logging     `yaml:"logging"`
	Dashboard   Dashboard   `yaml:"dashboard"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is the listen address in host:port form.
func (s Server) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Gemini configures the generative model endpoint.
type Gemini struct {
	// APIKey is the lowest-priority credential source.
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Credentials lists where the API key may be found, in priority order.
type Credentials struct {
	EnvVars     []string `yaml:"env_vars"`
	DotEnvFiles []string `yaml:"dotenv_files"`
}

// Journal configures the scan journal database.
type Journal struct {
	DSN   string `yaml:"dsn"`
	Limit int    `yaml:"limit"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dashboard controls page behaviour.
type Dashboard struct {
	RefreshOnStart bool `yaml:"refresh_on_start"`
	// PollSeconds is the meta-refresh interval while a scan is running.
	PollSeconds int `yaml:"poll_seconds"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{Host: "", Port: 8090},
		Gemini: Gemini{
			Model:   "gemini-3-flash-preview",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: 120 * time.Second,
		},
		Credentials: Credentials{
			EnvVars: []string{
				"REACT_APP_API_KEY",
				"VITE_API_KEY",
				"NEXT_PUBLIC_API_KEY",
				"API_KEY",
				"GEMINI_API_KEY",
			},
			DotEnvFiles: []string{".env"},
		},
		Journal: Journal{
			DSN:   "file:sentix?mode=memory&cache=shared",
			Limit: 50,
		},
		Logging:   Logging{Level: "info", Format: "text"},
		Dashboard: Dashboard{RefreshOnStart: true, PollSeconds: 3},
	}
}

// Load reads the YAML configuration file at path over the defaults, then
// applies environment variable overrides. When optional is set a missing file
// is not an error.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set. The API key is not
// read here; credential providers look it up on every scan.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTIX_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}

	if v := os.Getenv("SENTIX_JOURNAL_DSN"); v != "" {
		cfg.Journal.DSN = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
