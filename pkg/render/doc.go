// Package render turns a positioned conversation graph into images.
//
// # Overview
//
// The [nodelink] subpackage produces Graphviz DOT with every node pinned at
// its canvas position and renders it to SVG in process. This package adds
// generic format conversion on top of that:
//
//	dot := nodelink.ToDOT(g.Snapshot(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). They fail
// with an install hint when the tool is not on PATH.
//
// [nodelink]: github.com/matzehuels/promptree/pkg/render/nodelink
package render
