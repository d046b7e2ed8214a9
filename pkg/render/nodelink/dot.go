package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/promptree/pkg/graph"
	"github.com/matzehuels/promptree/pkg/render"
)

// DefaultMaxLabel is the label truncation length used when Options.MaxLabel is 0.
const DefaultMaxLabel = 40

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed prefixes labels with the node id and kind.
	Detailed bool

	// MaxLabel truncates content labels to this many runes.
	MaxLabel int
}

// ToDOT converts a graph snapshot to Graphviz DOT with pinned positions.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(s graph.Snapshot, opts Options) string {
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = DefaultMaxLabel
	}

	pending := make(map[string]bool)
	for _, e := range s.Edges {
		if e.Animated {
			pending[e.Target] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts), pending[n.ID])
		fmt.Fprintf(&buf, "  %s [%s];\n", dotQuote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		if e.Animated {
			fmt.Fprintf(&buf, "  %s -> %s [style=dashed];\n", dotQuote(e.Source), dotQuote(e.Target))
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", dotQuote(e.Source), dotQuote(e.Target))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, opts Options) string {
	text := truncate(firstLine(n.Content), opts.MaxLabel)
	if !opts.Detailed {
		return text
	}
	return fmt.Sprintf("%s (%s)\n%s", n.ID, n.Kind, text)
}

func fmtAttrs(n graph.Node, label string, pending bool) []string {
	attrs := []string{
		"label=" + dotQuote(label),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtCoord(n.Position.X), fmtCoord(-n.Position.Y)),
	}
	switch {
	case pending:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=white", "fontcolor=grey40")
	case n.Kind == graph.KindSystem:
		attrs = append(attrs, "style=filled", "fillcolor=lightblue")
	case n.Kind == graph.KindCompletion:
		attrs = append(attrs, "fillcolor=whitesmoke")
	}
	return attrs
}

// dotEscaper escapes a DOT double-quoted string. Newlines become the \n
// line break escape; other characters pass through unchanged.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// RenderSVG renders a DOT graph to SVG using Graphviz with the neato engine,
// which honors pinned positions.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
