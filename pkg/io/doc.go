// Package io provides JSON save/load, JSON import-merge and text tree export
// for conversation graphs.
//
// # JSON Format
//
// A saved graph is a single object with the node and edge lists plus the
// batch size that was active when it was saved:
//
//	{
//	  "nodes": [
//	    {"id": "system-node", "kind": "system", "content": "You are...", "position": {"x": 400, "y": 200}},
//	    {"id": "prompt-1", "kind": "prompt", "content": "Hello", "position": {"x": 400, "y": 320}}
//	  ],
//	  "edges": [
//	    {"id": "edge-system-node-prompt-1", "source": "system-node", "target": "prompt-1"}
//	  ],
//	  "responseCount": 3
//	}
//
// "animated" is written only for edges whose target is still a pending
// placeholder.
//
// # Load versus Import
//
// [Load] and [ReadJSON] restore a document verbatim into a fresh graph: ids
// are kept as they are. This is how the CLI reopens its working file.
//
// [Merge] appends a document to an existing graph. Every node id, edge id,
// source and target is rewritten with [ImportPrefix], and every node is
// shifted right by a caller supplied offset so imported trees never overlap
// existing ones. A merge is all-or-nothing: if any rewritten id collides with
// an existing one, the graph is left untouched.
//
// Malformed input (bad JSON, missing arrays, unknown kinds, empty ids) fails
// with [errors.ErrCodeImportParse].
//
// # Text Export
//
// [WriteTree] renders the conversation rooted at the first system node as an
// indented outline, one line per node, showing only the first line of each
// node's content.
//
// # File Names
//
// [JSONFileName] and [TreeFileName] produce the dated download names
// graph-YYYY-MM-DD.json and conversation-tree-YYYY-MM-DD.txt. Dates are UTC.
//
// [errors.ErrCodeImportParse]: github.com/matzehuels/promptree/pkg/errors.ErrCodeImportParse
package io
