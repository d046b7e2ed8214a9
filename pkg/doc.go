// Package pkg provides the core libraries for promptree.
//
// # Overview
//
// Promptree models a branching AI conversation as a graph. System nodes
// start a conversation, prompts hang below any node and every prompt fans
// out into several completions generated concurrently at different
// temperatures. The pkg directory is organized as follows:
//
//  1. [graph] - Nodes, edges, ids and tree operations
//  2. [layout] - Deterministic placement of new nodes
//  3. [generate] - The generation collaborator and its OpenAI client
//  4. [pipeline] - The runner that applies user actions to a graph
//  5. [io] - JSON export, load and merge, text outline
//  6. [render] - DOT, SVG, PNG and PDF rendering
//  7. [api] - HTTP API over a runner
//
// # Architecture
//
// The typical data flow of a prompt:
//
//	user action (CLI or HTTP)
//	         ↓
//	    [pipeline] Runner.SubmitPrompt
//	         ↓
//	    [layout] positions  →  [graph] placeholders inserted
//	         ↓
//	    [generate] one call per completion (errgroup)
//	         ↓
//	    [graph] placeholders settled in one update
//	         ↓
//	    [io] / [render] exports
//
// # Quick Start
//
//	g := graph.NewDefault()
//	r, _ := pipeline.NewRunner(g, generate.Static{}, pipeline.Options{}, nil)
//
//	batch, _ := r.SubmitPrompt(ctx, graph.DefaultSystemID, "Hello")
//	_ = batch.Wait()
//
//	fmt.Print(g.RenderTreeText(graph.DefaultSystemID))
//
// # Errors
//
// Errors carry machine-readable codes from [errors], which the CLI prints
// and the HTTP API maps to status codes.
package pkg
