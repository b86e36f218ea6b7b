package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dcu/soapinvoker"
)

// Config is the content of a soapcall config file. Flags override it.
type Config struct {
	URL       string            `yaml:"url" toml:"url"`
	Namespace string            `yaml:"namespace" toml:"namespace"`
	Method    string            `yaml:"method" toml:"method"`
	Params    map[string]string `yaml:"params" toml:"params"`
	DotNet    bool              `yaml:"dotnet" toml:"dotnet"`
	Threads   int               `yaml:"threads" toml:"threads"`
	Timeout   string            `yaml:"timeout" toml:"timeout"`
	Username  string            `yaml:"username" toml:"username"`
	Password  string            `yaml:"password" toml:"password"`
	KeepAlive bool              `yaml:"keep_alive" toml:"keep_alive"`
	Debug     bool              `yaml:"debug" toml:"debug"`
}

// LoadConfig reads a YAML or TOML file, chosen by extension. Unknown extensions are read as TOML.
func LoadConfig(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("YAML parse error in %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("TOML parse error in %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Endpoint returns the target of the call
func (c *Config) Endpoint() soapinvoker.Endpoint {
	return soapinvoker.Endpoint{URL: c.URL, Namespace: c.Namespace, Method: c.Method}
}

// Options builds the invoker options
func (c *Config) Options() (soapinvoker.Options, error) {
	var timeout time.Duration
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return soapinvoker.Options{}, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		timeout = d
	}

	return soapinvoker.Options{
		ThreadSize: c.Threads,
		DotNet:     c.DotNet,
		Dispatcher: soapinvoker.Inline,
		Client: soapinvoker.ClientOpts{
			Username:  c.Username,
			Password:  c.Password,
			KeepAlive: c.KeepAlive,
			Timeout:   timeout,
			Debug:     c.Debug,
		},
	}, nil
}
