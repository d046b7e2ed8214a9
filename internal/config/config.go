// Package config loads promptree settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/promptree/config.toml (or
// ~/.config/promptree/config.toml). A missing file is not an error; every
// setting has a default and command-line flags override file values.
//
//	response_count = 3
//
//	[generator]
//	provider    = "openai"          # or "static"
//	model       = "gpt-3.5-turbo"
//	base_url    = ""                # OpenAI compatible endpoint
//	api_key_env = "OPENAI_API_KEY"  # env var holding the key
//	top_p       = 0.8
//	attempts    = 3                 # retries on rate limits and 5xx
//	timeout     = "2m"              # per call, retries included
//
//	[layout]
//	vertical_spacing = 120
//	cluster_spacing  = 150
//
//	[server]
//	addr            = "127.0.0.1:8080"
//	allowed_origins = ["http://localhost:5173"]
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/generate"
	"github.com/matzehuels/promptree/pkg/layout"
)

const appName = "promptree"

// Generator providers.
const (
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
)

// Defaults for values not set in the file.
const (
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	DefaultAddr      = "127.0.0.1:8080"
	DefaultFile      = "promptree.json"
)

// Config is the decoded configuration file.
type Config struct {
	ResponseCount int       `toml:"response_count"`
	Generator     Generator `toml:"generator"`
	Layout        Layout    `toml:"layout"`
	Server        Server    `toml:"server"`
}

// Generator selects and configures the generation client.
type Generator struct {
	Provider   string        `toml:"provider"`
	Model      string        `toml:"model"`
	BaseURL    string        `toml:"base_url"`
	APIKeyEnv  string        `toml:"api_key_env"`
	TopP       float64       `toml:"top_p"`
	MaxTokens  int           `toml:"max_tokens"`
	Attempts   int           `toml:"attempts"`
	Timeout    time.Duration `toml:"timeout"`
	StaticText string        `toml:"static_text"`
}

// Layout overrides spacing constants. Zero fields keep their defaults.
type Layout struct {
	VerticalSpacing float64 `toml:"vertical_spacing"`
	ClusterSpacing  float64 `toml:"cluster_spacing"`
	GroupSpacing    float64 `toml:"group_spacing"`
	LevelSpread     float64 `toml:"level_spread"`
	SystemX         float64 `toml:"system_x"`
	SystemRowY      float64 `toml:"system_row_y"`
	ImportGap       float64 `toml:"import_gap"`
}

// Server configures `promptree serve`.
type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Generator: Generator{
			Provider:  ProviderOpenAI,
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Server: Server{Addr: DefaultAddr},
	}
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/promptree/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path on top of [Default]. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.ResponseCount != 0 {
		if err := errors.ValidateResponseCount(c.ResponseCount); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "response_count")
		}
	}
	switch c.Generator.Provider {
	case "", ProviderOpenAI, ProviderStatic:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown generator provider %q", c.Generator.Provider)
	}
	if c.Generator.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "attempts cannot be negative")
	}
	if c.Generator.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	if c.Generator.TopP < 0 || c.Generator.TopP > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "top_p must be within [0, 1]")
	}
	l := c.Layout
	for _, v := range []float64{l.VerticalSpacing, l.ClusterSpacing, l.GroupSpacing, l.LevelSpread, l.ImportGap} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "layout spacing cannot be negative")
		}
	}
	return nil
}

// LayoutEngine returns the default engine with the configured overrides.
func (c *Config) LayoutEngine() layout.Engine {
	e := layout.Default()
	l := c.Layout
	override(&e.VerticalSpacing, l.VerticalSpacing)
	override(&e.ClusterSpacing, l.ClusterSpacing)
	override(&e.GroupSpacing, l.GroupSpacing)
	override(&e.LevelSpread, l.LevelSpread)
	override(&e.SystemX, l.SystemX)
	override(&e.SystemRowY, l.SystemRowY)
	override(&e.ImportGap, l.ImportGap)
	return e
}

func override(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// APIKey reads the API key from the configured environment variable.
func (c *Config) APIKey() string {
	name := c.Generator.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	return os.Getenv(name)
}

// NewGenerator builds the configured generation client.
func (c *Config) NewGenerator() (generate.Generator, error) {
	g := c.Generator
	if g.Provider == ProviderStatic {
		return generate.Static{Text: g.StaticText}, nil
	}
	return generate.NewOpenAI(generate.OpenAIConfig{
		APIKey:    c.APIKey(),
		BaseURL:   g.BaseURL,
		Model:     g.Model,
		TopP:      g.TopP,
		MaxTokens: g.MaxTokens,
		Attempts:  g.Attempts,
	})
}
