package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"sentix/config"
)

// Provider is one named place a key may be configured.
// Lookup returns "" with a nil error when the source holds nothing.
type Provider interface {
	Name() string
	Lookup() (string, error)
}

type envProvider struct {
	name   string
	lookup func(string) (string, bool)
}

// Env reads a process environment variable.
func Env(name string) Provider {
	return EnvWith(name, os.LookupEnv)
}

// EnvWith reads name through lookup, which tests substitute for os.LookupEnv.
func EnvWith(name string, lookup func(string) (string, bool)) Provider {
	return envProvider{name: name, lookup: lookup}
}

func (p envProvider) Name() string { return "env:" + p.name }

func (p envProvider) Lookup() (string, error) {
	v, _ := p.lookup(p.name)
	return v, nil
}

type dotEnvProvider struct {
	path  string
	names []string
}

// DotEnv reads the first of names that is set in the .env file at path. The
// file is re-read on every lookup so edits apply to the next scan. A missing
// file yields no value.
func DotEnv(path string, names ...string) Provider {
	return dotEnvProvider{path: path, names: names}
}

func (p dotEnvProvider) Name() string { return "dotenv:" + p.path }

func (p dotEnvProvider) Lookup() (string, error) {
	vars, err := godotenv.Read(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", p.path, err)
	}
	for _, name := range p.names {
		if v := vars[name]; strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", nil
}

type staticProvider struct {
	name  string
	value string
}

// Static serves a fixed value, e.g. the key from the config file.
func Static(name, value string) Provider {
	return staticProvider{name: name, value: value}
}

func (p staticProvider) Name() string { return p.name }

func (p staticProvider) Lookup() (string, error) { return p.value, nil }

// DefaultProviders builds the lookup chain from configuration: every env var,
// then the same names in each dotenv file, then the config file value.
func DefaultProviders(cfg config.Credentials, configKey string) []Provider {
	providers := make([]Provider, 0, len(cfg.EnvVars)+len(cfg.DotEnvFiles)+1)
	for _, name := range cfg.EnvVars {
		providers = append(providers, Env(name))
	}
	for _, path := range cfg.DotEnvFiles {
		providers = append(providers, DotEnv(path, cfg.EnvVars...))
	}
	if configKey != "" {
		providers = append(providers, Static("config:gemini.api_key", configKey))
	}
	return providers
}
