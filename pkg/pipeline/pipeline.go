// Package pipeline applies user actions to a conversation graph.
//
// This package is the single entry point the CLI and the HTTP API use to
// change a graph. By centralizing this logic, both drivers get the same
// placement, id and generation behavior.
//
// # Prompt Batches
//
// Submitting a prompt runs in two phases:
//
//  1. Insert: the prompt node, ResponseCount placeholder completions
//     ("Generating response...") and their edges are laid out and inserted
//     as one unit. Edges to placeholders are animated.
//  2. Settle: ResponseCount generation calls run concurrently with
//     temperatures spaced over [0.7, 1.0), each bounded by CallTimeout.
//     When all of them succeed every
//     placeholder receives its response and its edge stops animating. If
//     any call fails, every placeholder of the batch receives the error
//     text instead. Either way the batch is applied in one graph update.
//
// [Runner.SubmitPrompt] returns after phase 1 with a [Batch] handle; the
// caller decides whether to wait for phase 2.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(graph.NewDefault(), generate.Static{}, pipeline.Options{}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	batch, err := runner.SubmitPrompt(ctx, graph.DefaultSystemID, "Hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = batch.Wait()
//	fmt.Print(runner.Graph.RenderTreeText(graph.DefaultSystemID))
package pipeline

import (
	"time"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultResponseCount is the number of responses generated per prompt.
	DefaultResponseCount = 3

	// DefaultCallTimeout bounds one generation call, retries included.
	DefaultCallTimeout = 2 * time.Minute

	// PlaceholderContent is the content of a completion whose batch has not
	// settled yet.
	PlaceholderContent = "Generating response..."

	// ErrorContent replaces every placeholder of a failed batch.
	ErrorContent = "Error generating response. Please try again."

	// NewSystemContent is the content of roots added with AddSystemNode.
	NewSystemContent = "Configure system behavior..."
)

// Format constants for exports.
const (
	FormatJSON = "json"
	FormatTree = "tree"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatTree: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ContentTypes maps export formats to their MIME types.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatTree: "text/plain; charset=utf-8",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a Runner.
type Options struct {
	// ResponseCount is the initial batch size; 0 means DefaultResponseCount.
	ResponseCount int

	// Layout holds the spacing constants; the zero value means layout.Default().
	Layout layout.Engine

	// Clock drives id generation; nil means time.Now.
	Clock func() time.Time

	// CallTimeout bounds each generation call; 0 means DefaultCallTimeout.
	// A call that runs out of time fails its batch.
	CallTimeout time.Duration
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ResponseCount == 0 {
		o.ResponseCount = DefaultResponseCount
	}
	if err := errors.ValidateResponseCount(o.ResponseCount); err != nil {
		return err
	}
	if o.CallTimeout == 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.CallTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "call timeout cannot be negative")
	}
	if o.Layout == (layout.Engine{}) {
		o.Layout = layout.Default()
	}
	if o.Layout.LevelSpread <= 0 || o.Layout.VerticalSpacing <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout spacing must be positive")
	}
	return nil
}

// ValidateFormat checks that an export format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, tree, dot, svg, png, pdf)", format)
	}
	return nil
}
