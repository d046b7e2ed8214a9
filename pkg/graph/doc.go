// Package graph provides the conversation graph: the canonical store of
// system, prompt and completion nodes and the directed edges between them.
//
// # Overview
//
// A [Graph] holds an ordered sequence of [Node] values and an ordered sequence
// of [Edge] values as one consistent unit. Insertion order is preserved and is
// significant: children are always visited in the order their edges were
// added, which makes tree exports and layouts reproducible.
//
// The store enforces two invariants:
//
//   - Node and edge IDs are unique ([ErrDuplicateID])
//   - Every edge references existing nodes ([ErrDanglingEdge])
//
// Cycles are not rejected. A user may connect nodes by hand, so every
// traversal in this package ([Graph.DescendantIDs], [Graph.Depth],
// [Graph.RenderTreeText]) is iterative and guarded by a visited set.
//
// # Mutations
//
// All mutations go through the Graph API and are serialized by an internal
// lock, so observers never see a half-applied change:
//
//	g := graph.NewDefault()
//	err := g.Insert(nodes, edges)          // all or nothing
//	g.UpdateNodeContent(id, "new text")    // no-op if id is absent
//	removed := g.CascadingDelete(id)       // node + whole subtree + edges
//
// Several content or edge-flag changes can be grouped with [Graph.Update].
//
// # Tree Operations
//
// [Graph.DescendantIDs] collects a subtree, [Graph.CascadingDelete] is the
// sole node-deletion primitive, and [Graph.RenderTreeText] produces the
// indented plain-text view used by the text export:
//
//	You are a helpful AI assistant...
//	    |__ Hello
//	    |   |__ Hi there!
//	        |__ Hello! How can I help?
//
// # Selection
//
// Which nodes are selected is UI state. It is passed in explicitly as a
// [Selection] rather than stored on nodes.
//
// # Concurrency
//
// Graph is safe for concurrent use. Read methods return copies.
package graph
