package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/internal/config"
	"github.com/matzehuels/promptree/pkg/buildinfo"
	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/generate"
	"github.com/matzehuels/promptree/pkg/graph"
	pkgio "github.com/matzehuels/promptree/pkg/io"
	"github.com/matzehuels/promptree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "promptree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	file       string // working file
	configPath string // empty means config.Path()

	// newGenerator overrides the configured generator; set by tests.
	newGenerator func(*config.Config) (generate.Generator, error)
	// now drives ids and export names; nil means time.Now.
	now func() time.Time
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Promptree explores branching AI conversations as a graph",
		Long: `Promptree keeps a conversation as a graph: system nodes configure a
conversation, prompts branch from any node and every prompt fans out into
several completions generated at different temperatures.

The graph lives in a JSON working file (--file) that every command loads
and saves. 'promptree serve' exposes the same operations over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.file, "file", "f", config.DefaultFile, "working graph file")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/promptree/config.toml)")

	// Register all subcommands
	root.AddCommand(c.initCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.promptCommand())
	root.AddCommand(c.systemCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.disconnectCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			c.Logger.Debug("no config directory", "err", err)
			return config.Default(), nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", path)
	return cfg, nil
}

func (c *CLI) clock() func() time.Time {
	if c.now != nil {
		return c.now
	}
	return time.Now
}

// newRunner creates a runner over g. A valid saved response count wins over
// the configured one; an out-of-range one is ignored so the file stays usable.
func (c *CLI) newRunner(g *graph.Graph, savedCount int) (*pipeline.Runner, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	newGen := c.newGenerator
	if newGen == nil {
		newGen = lazyGenerator
	}
	gen, err := newGen(cfg)
	if err != nil {
		return nil, nil, err
	}

	n := savedCount
	if n != 0 {
		if err := errors.ValidateResponseCount(n); err != nil {
			c.Logger.Warn("ignoring saved response count", "file", c.file, "err", err)
			n = 0
		}
	}
	if n == 0 {
		n = cfg.ResponseCount
	}
	r, err := pipeline.NewRunner(g, gen, pipeline.Options{
		ResponseCount: n,
		Layout:        cfg.LayoutEngine(),
		Clock:         c.clock(),
		CallTimeout:   cfg.Generator.Timeout,
	}, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	return r, cfg, nil
}

// lazyGenerator defers client construction to the first call, so commands
// that never generate work without an API key.
func lazyGenerator(cfg *config.Config) (generate.Generator, error) {
	build := sync.OnceValues(cfg.NewGenerator)
	return generate.GeneratorFunc(func(ctx context.Context, prompt string, temperature float64) (string, error) {
		gen, err := build()
		if err != nil {
			return "", err
		}
		return gen.Generate(ctx, prompt, temperature)
	}), nil
}

// =============================================================================
// Working File
// =============================================================================

// openWorkingFile loads the working file into a runner.
func (c *CLI) openWorkingFile() (*pipeline.Runner, *config.Config, error) {
	if err := errors.ValidateFilePath(c.file); err != nil {
		return nil, nil, err
	}
	g, n, err := pkgio.Load(c.file)
	if err != nil {
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			return nil, nil, fmt.Errorf("%w (run '%s init' first)", err, appName)
		}
		return nil, nil, fmt.Errorf("load %s: %w", c.file, err)
	}
	c.Logger.Debug("working file loaded", "path", c.file, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return c.newRunner(g, n)
}

// save writes the runner's graph back to the working file. The document is
// written to a temporary file first so an interrupted save keeps the old one.
func (c *CLI) save(r *pipeline.Runner) error {
	tmp := c.file + ".tmp"
	if err := pkgio.ExportJSON(r.Graph, r.ResponseCount(), tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save %s: %w", c.file, err)
	}
	if err := os.Rename(tmp, c.file); err != nil {
		return fmt.Errorf("save %s: %w", c.file, err)
	}
	c.Logger.Debug("working file saved", "path", c.file)
	return nil
}
