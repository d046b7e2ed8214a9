// Package cli implements the promptree command-line interface.
//
// Every command operates on a JSON working file (--file, default
// promptree.json) holding one conversation graph. Commands load the file,
// apply one action through a [pipeline.Runner] and save it again, so the
// file is always a complete, importable export.
//
// # Commands
//
// The main commands are:
//   - init: Create a working file with the default system node
//   - show, nodes: Print the conversation tree or a node table
//   - prompt: Branch a prompt from a node and generate completions
//   - system, edit, connect, disconnect, delete: Edit the graph
//   - export, import: Write downloads or merge another graph
//   - serve: Expose the graph over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is created once and passed to the runner and the server.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import "github.com/matzehuels/promptree/pkg/buildinfo"

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time. Empty values keep the defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}
