package graph

import (
	"slices"
	"strings"
)

// Tree-text markers.
const (
	branchMarker = "|__ "
	lastIndent   = "    "
	midIndent    = "|   "
)

// DescendantIDs returns the IDs reachable from id by following edges
// forward, in breadth-first discovery order. The result never contains id
// itself, and the walk terminates when edges form a cycle.
func (g *Graph) DescendantIDs(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.descendants(id, map[string]bool{id: true})
}

func (g *Graph) descendants(id string, visited map[string]bool) []string {
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range g.outgoing[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// CascadingDelete removes every node in ids, all of their descendants, and
// every edge touching a removed node. It returns the removed node IDs in
// graph order. Deleting a node never leaves orphans.
func (g *Graph) CascadingDelete(ids ...string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	doomed := make(Selection)
	visited := make(map[string]bool)
	for _, id := range ids {
		if _, ok := g.nodeIdx[id]; !ok {
			continue
		}
		doomed[id] = struct{}{}
		visited[id] = true
	}
	for _, id := range doomed.IDs() {
		for _, d := range g.descendants(id, visited) {
			doomed[d] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return g.removeNodes(doomed)
}

// RenderTreeText renders the tree rooted at rootID as indented text, one
// line per node. Only the first line of each node's content is shown.
// Children appear in edge insertion order; a node reachable twice is
// printed once. Returns "" if rootID does not exist.
func (g *Graph) RenderTreeText(rootID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodeIdx[rootID]; !ok {
		return ""
	}

	type frame struct {
		id     string
		prefix string
	}

	var b strings.Builder
	visited := make(map[string]bool)
	stack := []frame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] {
			continue
		}
		visited[f.id] = true

		b.WriteString(f.prefix)
		if f.prefix != "" {
			b.WriteString(branchMarker)
		}
		b.WriteString(firstLine(g.nodes[g.nodeIdx[f.id]].Content))
		b.WriteByte('\n')

		children := slices.DeleteFunc(slices.Clone(g.outgoing[f.id]), func(c string) bool {
			return visited[c]
		})
		for i := len(children) - 1; i >= 0; i-- {
			indent := midIndent
			if i == len(children)-1 {
				indent = lastIndent
			}
			stack = append(stack, frame{id: children[i], prefix: f.prefix + indent})
		}
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
