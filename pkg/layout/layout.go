// Package layout computes canvas positions for newly created conversation
// nodes.
//
// Positions are assigned once, when a node is created, and never
// recomputed. Every method of [Engine] is a pure function of its arguments:
// the same parent position, child index, depth and response count always
// produce the same coordinates.
//
// # Geometry
//
// A new prompt is placed one level below its parent and shifted right by
// its sibling index. The shift grows exponentially with depth
// (LevelSpread^depth) so deeper subtrees fan out further and cross less:
//
//	x = parent.X + index * GroupSpacing * LevelSpread^depth
//	y = parent.Y + VerticalSpacing
//
// The completions of a prompt are centered under it, ClusterSpacing apart:
//
//	x_i = prompt.X + (i - (n-1)/2) * ClusterSpacing
//	y   = prompt.Y + VerticalSpacing
//
// New system roots are appended to the right of everything else on a fixed
// top row.
package layout

import (
	"math"

	"github.com/matzehuels/promptree/pkg/graph"
)

// Default spacing constants.
const (
	DefaultVerticalSpacing = 120 // space between levels
	DefaultClusterSpacing  = 150 // space between responses of one prompt
	DefaultGroupSpacing    = 400 // space between sibling prompts and between roots
	DefaultLevelSpread     = 1.2 // per-depth spread multiplier
	DefaultSystemX         = 300 // x of the first root when nothing is to its left
	DefaultSystemRowY      = 200 // y of every system root
	DefaultImportGap       = 400 // gap between existing nodes and an imported graph
)

// Engine holds the spacing parameters. The zero value is not useful; start
// from [Default] and override fields from configuration.
type Engine struct {
	VerticalSpacing float64
	ClusterSpacing  float64
	GroupSpacing    float64
	LevelSpread     float64
	SystemX         float64
	SystemRowY      float64
	ImportGap       float64
}

// Default returns an Engine with the default spacing constants.
func Default() Engine {
	return Engine{
		VerticalSpacing: DefaultVerticalSpacing,
		ClusterSpacing:  DefaultClusterSpacing,
		GroupSpacing:    DefaultGroupSpacing,
		LevelSpread:     DefaultLevelSpread,
		SystemX:         DefaultSystemX,
		SystemRowY:      DefaultSystemRowY,
		ImportGap:       DefaultImportGap,
	}
}

// Spread returns LevelSpread^depth.
func (e Engine) Spread(depth int) float64 {
	return math.Pow(e.LevelSpread, float64(depth))
}

// Prompt returns the position of a new prompt that becomes child number
// index (0-based, equal to the parent's existing child count) of a parent
// at parent, where depth is the parent's distance from its root plus one.
func (e Engine) Prompt(parent graph.Position, index, depth int) graph.Position {
	return graph.Position{
		X: parent.X + float64(index)*e.GroupSpacing*e.Spread(depth),
		Y: parent.Y + e.VerticalSpacing,
	}
}

// Completions returns the positions of n completions centered under a
// prompt at prompt. Returns nil for n <= 0.
func (e Engine) Completions(prompt graph.Position, n int) []graph.Position {
	if n <= 0 {
		return nil
	}
	out := make([]graph.Position, n)
	center := float64(n-1) / 2
	for i := range out {
		out[i] = graph.Position{
			X: prompt.X + (float64(i)-center)*e.ClusterSpacing,
			Y: prompt.Y + e.VerticalSpacing,
		}
	}
	return out
}

// System returns the position of a new conversation root given the current
// rightmost x. hasNodes is false for an empty graph.
func (e Engine) System(maxX float64, hasNodes bool) graph.Position {
	x := e.SystemX
	if hasNodes && maxX >= 0 {
		x = maxX + e.GroupSpacing
	}
	return graph.Position{X: x, Y: e.SystemRowY}
}

// ImportOffset returns the x shift applied to imported nodes so they land
// to the right of the existing graph.
func (e Engine) ImportOffset(maxX float64, hasNodes bool) float64 {
	if !hasNodes || maxX < 0 {
		return e.SystemX
	}
	return maxX + e.ImportGap
}
