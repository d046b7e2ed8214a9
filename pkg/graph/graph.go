package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrInvalidID is returned by [Graph.AddNode] and [Graph.AddEdge] when
	// the ID is empty. All nodes and edges must have non-empty identifiers.
	ErrInvalidID = errors.New("id must not be empty")

	// ErrDuplicateID is returned when a node or edge with the same ID already
	// exists in the graph. IDs are generated from a monotonic source, so this
	// signals a programming error or a repeated import rather than a normal
	// runtime path.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrDanglingEdge is returned by [Graph.AddEdge] when the source or the
	// target node does not exist.
	ErrDanglingEdge = errors.New("edge endpoint does not exist")

	// ErrInvalidKind is returned by [Graph.AddNode] for a node whose Kind is
	// not one of the declared kinds.
	ErrInvalidKind = errors.New("invalid node kind")

	// ErrNodeNotFound is returned by operations that require an existing node.
	ErrNodeNotFound = errors.New("node not found")
)

// Default root created by [NewDefault].
const (
	DefaultSystemID      = "system-node"
	DefaultSystemContent = "You are a helpful AI assistant..."
)

// DefaultSystemPosition is where [NewDefault] places its root.
var DefaultSystemPosition = Position{X: 400, Y: 200}

// Graph is the canonical store of conversation nodes and edges.
//
// The zero value is not usable - use New or NewDefault.
type Graph struct {
	mu       sync.RWMutex
	nodes    []Node
	edges    []Edge
	nodeIdx  map[string]int      // node ID -> index in nodes
	edgeIdx  map[string]int      // edge ID -> index in edges
	outgoing map[string][]string // node ID -> child IDs, edge insertion order
	incoming map[string][]string // node ID -> parent IDs, edge insertion order
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeIdx:  make(map[string]int),
		edgeIdx:  make(map[string]int),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// NewDefault creates a graph holding the single default system node.
func NewDefault() *Graph {
	g := New()
	_ = g.AddNode(Node{
		ID:       DefaultSystemID,
		Kind:     KindSystem,
		Content:  DefaultSystemContent,
		Position: DefaultSystemPosition,
	})
	return g
}

// AddNode inserts n. Returns ErrInvalidID for an empty ID, ErrInvalidKind for
// an undeclared kind, or ErrDuplicateID if the ID is already present.
func (g *Graph) AddNode(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkNode(n, nil); err != nil {
		return err
	}
	g.appendNode(n)
	return nil
}

// AddEdge inserts e. Returns ErrInvalidID for an empty ID, ErrDuplicateID if
// the edge ID is taken, or ErrDanglingEdge if either endpoint is missing.
//
// AddEdge does not reject cycles or parallel edges.
func (g *Graph) AddEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkEdge(e, nil, nil); err != nil {
		return err
	}
	g.appendEdge(e)
	return nil
}

// Insert adds nodes and then edges as one unit. Edges may reference nodes
// from the same call. If any node or edge is rejected nothing is inserted
// and the error names the offending entity.
func (g *Graph) Insert(nodes []Node, edges []Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pendingNodes := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if err := g.checkNode(n, pendingNodes); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		pendingNodes[n.ID] = struct{}{}
	}
	pendingEdges := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if err := g.checkEdge(e, pendingNodes, pendingEdges); err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
		pendingEdges[e.ID] = struct{}{}
	}

	for _, n := range nodes {
		g.appendNode(n)
	}
	for _, e := range edges {
		g.appendEdge(e)
	}
	return nil
}

func (g *Graph) checkNode(n Node, pending map[string]struct{}) error {
	if n.ID == "" {
		return ErrInvalidID
	}
	if !n.Kind.Valid() {
		return ErrInvalidKind
	}
	if _, exists := g.nodeIdx[n.ID]; exists {
		return ErrDuplicateID
	}
	if _, exists := pending[n.ID]; exists {
		return ErrDuplicateID
	}
	return nil
}

func (g *Graph) checkEdge(e Edge, pendingNodes, pendingEdges map[string]struct{}) error {
	if e.ID == "" {
		return ErrInvalidID
	}
	if _, exists := g.edgeIdx[e.ID]; exists {
		return ErrDuplicateID
	}
	if _, exists := pendingEdges[e.ID]; exists {
		return ErrDuplicateID
	}
	for _, id := range []string{e.Source, e.Target} {
		_, ok := g.nodeIdx[id]
		_, okPending := pendingNodes[id]
		if !ok && !okPending {
			return fmt.Errorf("%w: %q", ErrDanglingEdge, id)
		}
	}
	return nil
}

func (g *Graph) appendNode(n Node) {
	g.nodeIdx[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

func (g *Graph) appendEdge(e Edge) {
	g.edgeIdx[e.ID] = len(g.edges)
	g.edges = append(g.edges, e)
	if !slices.Contains(g.outgoing[e.Source], e.Target) {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e.Target)
	}
	if !slices.Contains(g.incoming[e.Target], e.Source) {
		g.incoming[e.Target] = append(g.incoming[e.Target], e.Source)
	}
}

// UpdateNodeContent replaces the content of node id in place and reports
// whether the node existed. Updating an absent node is a no-op.
func (g *Graph) UpdateNodeContent(id, content string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setContent(id, content)
}

// MoveNode sets the position of node id and reports whether it existed.
func (g *Graph) MoveNode(id string, pos Position) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.nodeIdx[id]
	if !ok {
		return false
	}
	g.nodes[i].Position = pos
	return true
}

func (g *Graph) setContent(id, content string) bool {
	i, ok := g.nodeIdx[id]
	if !ok {
		return false
	}
	g.nodes[i].Content = content
	return true
}

func (g *Graph) setAnimated(id string, animated bool) bool {
	i, ok := g.edgeIdx[id]
	if !ok {
		return false
	}
	g.edges[i].Animated = animated
	return true
}

// Tx groups in-place updates applied under a single lock by [Graph.Update].
// A Tx must not be retained after the update function returns.
type Tx struct {
	g *Graph
}

// UpdateNodeContent is the transactional form of [Graph.UpdateNodeContent].
func (tx *Tx) UpdateNodeContent(id, content string) bool {
	return tx.g.setContent(id, content)
}

// SetEdgeAnimated sets the pending flag of edge id and reports whether the
// edge existed.
func (tx *Tx) SetEdgeAnimated(id string, animated bool) bool {
	return tx.g.setAnimated(id, animated)
}

// Update runs fn with exclusive access. All changes made through tx become
// visible to readers at once.
func (g *Graph) Update(fn func(tx *Tx)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&Tx{g: g})
}

// RemoveNodes removes the nodes whose IDs are in ids together with every edge
// touching them. It returns the removed node IDs in graph order. Unknown IDs
// are ignored.
func (g *Graph) RemoveNodes(ids []string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeNodes(Select(ids...))
}

func (g *Graph) removeNodes(doomed Selection) []string {
	var removed []string
	g.nodes = slices.DeleteFunc(g.nodes, func(n Node) bool {
		if doomed.Has(n.ID) {
			removed = append(removed, n.ID)
			return true
		}
		return false
	})
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return doomed.Has(e.Source) || doomed.Has(e.Target)
	})
	g.reindex()
	return removed
}

// RemoveEdges removes the edges whose IDs are in ids and returns how many
// were removed. Nodes are never removed by this call.
func (g *Graph) RemoveEdges(ids []string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	doomed := Select(ids...)
	before := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return doomed.Has(e.ID) })
	g.reindex()
	return before - len(g.edges)
}

// reindex rebuilds every lookup table from the node and edge slices.
func (g *Graph) reindex() {
	g.nodeIdx = make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		g.nodeIdx[n.ID] = i
	}
	edges := g.edges
	g.edges = make([]Edge, 0, len(edges))
	g.edgeIdx = make(map[string]int, len(edges))
	g.outgoing = make(map[string][]string)
	g.incoming = make(map[string][]string)
	for _, e := range edges {
		g.appendEdge(e)
	}
}

// Find returns the nodes matching pred in graph order.
func (g *Graph) Find(pred func(Node) bool) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Node
	for _, n := range g.nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// FindSelected returns the selected nodes in graph order.
func (g *Graph) FindSelected(sel Selection) []Node {
	return g.Find(func(n Node) bool { return sel.Has(n.ID) })
}

// FirstOfKind returns the first node of kind k in graph order.
func (g *Graph) FirstOfKind(k Kind) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		if n.Kind == k {
			return n, true
		}
	}
	return Node{}, false
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Edge returns a copy of the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.edgeIdx[id]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Nodes returns a copy of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.nodes)
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// Snapshot returns nodes and edges copied under one lock.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{Nodes: slices.Clone(g.nodes), Edges: slices.Clone(g.edges)}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Children returns the distinct targets of edges leaving id, in the order
// those edges were inserted. Returns nil for a leaf or unknown node.
func (g *Graph) Children(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.outgoing[id])
}

// Parents returns the distinct sources of edges entering id.
func (g *Graph) Parents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.incoming[id])
}

// Depth returns the number of edges between id and the root of its tree,
// following the first parent at each step. A root has depth 0. If the
// parent chain loops, the walk stops at the first repeated node.
func (g *Graph) Depth(id string) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.nodeIdx[id]; !ok {
		return 0, false
	}
	depth := 0
	seen := map[string]bool{id: true}
	for cur := id; ; depth++ {
		parents := g.incoming[cur]
		if len(parents) == 0 || seen[parents[0]] {
			return depth, true
		}
		cur = parents[0]
		seen[cur] = true
	}
}

// MaxX returns the largest X coordinate among all nodes, or false for an
// empty graph.
func (g *Graph) MaxX() (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.nodes) == 0 {
		return 0, false
	}
	maxX := g.nodes[0].Position.X
	for _, n := range g.nodes[1:] {
		maxX = max(maxX, n.Position.X)
	}
	return maxX, true
}
