package io

import (
	"io"
	"os"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
)

// ImportPrefix is prepended to every id of a merged document.
const ImportPrefix = "imported-"

// Merge appends d to g. Node, edge, source and target ids are rewritten
// with [ImportPrefix]; node x positions are shifted by offsetX, y positions
// are kept. It returns the ids of the inserted nodes in document order.
//
// On error g is unchanged.
func Merge(g *graph.Graph, d *Document, offsetX float64) ([]string, error) {
	nodes := d.graphNodes(ImportPrefix)
	for i := range nodes {
		nodes[i].Position.X += offsetX
	}
	if err := g.Insert(nodes, d.graphEdges(ImportPrefix)); err != nil {
		return nil, integrityError(err)
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids, nil
}

// MergeJSON decodes a document from r and merges it into g with [Merge].
func MergeJSON(g *graph.Graph, r io.Reader, offsetX float64) ([]string, error) {
	d, err := ReadDocument(r)
	if err != nil {
		return nil, err
	}
	return Merge(g, d, offsetX)
}

// MergeFile opens path and merges its document into g with [MergeJSON].
func MergeFile(g *graph.Graph, path string, offsetX float64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return MergeJSON(g, f, offsetX)
}
