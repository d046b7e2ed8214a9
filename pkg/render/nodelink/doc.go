// Package nodelink renders conversation graphs as node-link diagrams.
//
// # Overview
//
// Unlike a classic Graphviz layout, the diagram keeps the positions the
// conversation was built with: every node is pinned at its canvas position
// (pos="x,-y!", neato engine, inputscale=72 so one canvas pixel is one
// point). Y is negated because canvas y grows downward and Graphviz y grows
// upward.
//
// # Usage
//
//	dot := nodelink.ToDOT(g.Snapshot(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Styling
//
//   - system nodes: filled light blue boxes
//   - prompts: rounded boxes
//   - completions: rounded light grey boxes
//   - pending completions (target of an animated edge): dashed outline,
//     reached by a dashed edge
//
// Labels show the first line of the node's content, truncated to
// [Options].MaxLabel runes. With Detailed set the node id and kind are
// prepended.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package and
// requires librsvg (rsvg-convert).
package nodelink
