package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/generate"
	"github.com/matzehuels/promptree/pkg/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generator.Provider != ProviderOpenAI || cfg.Server.Addr != DefaultAddr {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.LayoutEngine() != layout.Default() {
		t.Error("missing file should keep the default layout")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
response_count = 5

[generator]
provider = "static"
static_text = "canned"
timeout = "45s"

[layout]
vertical_spacing = 200
level_spread = 1.5

[server]
addr = ":9090"
allowed_origins = ["http://localhost:5173"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResponseCount != 5 {
		t.Errorf("ResponseCount = %d, want 5", cfg.ResponseCount)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Generator.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Generator.Timeout)
	}
	// Keys not in the file keep their defaults
	if cfg.Generator.APIKeyEnv != DefaultAPIKeyEnv {
		t.Errorf("APIKeyEnv = %q, want default", cfg.Generator.APIKeyEnv)
	}

	e := cfg.LayoutEngine()
	if e.VerticalSpacing != 200 || e.LevelSpread != 1.5 {
		t.Errorf("overrides not applied: %+v", e)
	}
	if e.ClusterSpacing != layout.DefaultClusterSpacing {
		t.Errorf("ClusterSpacing = %v, want default", e.ClusterSpacing)
	}

	gen, err := cfg.NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if s, ok := gen.(generate.Static); !ok || s.Text != "canned" {
		t.Errorf("generator = %#v, want Static{canned}", gen)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `response_count = `},
		{"response count", `response_count = 11`},
		{"provider", "[generator]\nprovider = \"llama\""},
		{"top_p", "[generator]\ntop_p = 2.0"},
		{"timeout", "[generator]\ntimeout = \"-1s\""},
		{"negative spacing", "[layout]\ncluster_spacing = -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("PROMPTREE_TEST_KEY", "sk-test")

	cfg := Default()
	cfg.Generator.APIKeyEnv = "PROMPTREE_TEST_KEY"
	if got := cfg.APIKey(); got != "sk-test" {
		t.Errorf("APIKey() = %q, want sk-test", got)
	}

	gen, err := cfg.NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if _, ok := gen.(*generate.OpenAI); !ok {
		t.Errorf("generator = %T, want *generate.OpenAI", gen)
	}
}

func TestNewGeneratorWithoutKey(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")

	_, err := Default().NewGenerator()
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("NewGenerator() error = %v, want UNAUTHORIZED", err)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-config", appName); dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}

	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-config", appName, "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestDirDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", appName); dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}
