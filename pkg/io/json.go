package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
)

// Document is the JSON representation of a saved graph.
type Document struct {
	Nodes         []NodeRecord `json:"nodes"`
	Edges         []EdgeRecord `json:"edges"`
	ResponseCount int          `json:"responseCount"`
}

// NodeRecord is one node in a [Document].
type NodeRecord struct {
	ID       string         `json:"id"`
	Kind     graph.Kind     `json:"kind"`
	Content  string         `json:"content"`
	Position PositionRecord `json:"position"`
}

// PositionRecord is a node position in a [Document].
type PositionRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeRecord is one edge in a [Document].
type EdgeRecord struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Animated bool   `json:"animated,omitempty"`
}

// NewDocument converts a graph snapshot into its JSON representation.
func NewDocument(s graph.Snapshot, responseCount int) *Document {
	d := &Document{
		Nodes:         make([]NodeRecord, len(s.Nodes)),
		Edges:         make([]EdgeRecord, len(s.Edges)),
		ResponseCount: responseCount,
	}
	for i, n := range s.Nodes {
		d.Nodes[i] = NewNodeRecord(n)
	}
	for i, e := range s.Edges {
		d.Edges[i] = NewEdgeRecord(e)
	}
	return d
}

// NewNodeRecord converts a node into its JSON representation.
func NewNodeRecord(n graph.Node) NodeRecord {
	return NodeRecord{
		ID:       n.ID,
		Kind:     n.Kind,
		Content:  n.Content,
		Position: PositionRecord{X: n.Position.X, Y: n.Position.Y},
	}
}

// NewEdgeRecord converts an edge into its JSON representation.
func NewEdgeRecord(e graph.Edge) EdgeRecord {
	return EdgeRecord{ID: e.ID, Source: e.Source, Target: e.Target, Animated: e.Animated}
}

// Graph builds a fresh graph holding exactly the document's nodes and edges,
// ids unchanged. Duplicate ids and dangling edges are reported with their
// integrity error codes.
func (d *Document) Graph() (*graph.Graph, error) {
	g := graph.New()
	if err := g.Insert(d.graphNodes(""), d.graphEdges("")); err != nil {
		return nil, integrityError(err)
	}
	return g, nil
}

func (d *Document) graphNodes(prefix string) []graph.Node {
	nodes := make([]graph.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = graph.Node{
			ID:       prefix + n.ID,
			Kind:     n.Kind,
			Content:  n.Content,
			Position: graph.Position{X: n.Position.X, Y: n.Position.Y},
		}
	}
	return nodes
}

func (d *Document) graphEdges(prefix string) []graph.Edge {
	edges := make([]graph.Edge, len(d.Edges))
	for i, e := range d.Edges {
		edges[i] = graph.Edge{
			ID:       prefix + e.ID,
			Source:   prefix + e.Source,
			Target:   prefix + e.Target,
			Animated: e.Animated,
		}
	}
	return edges
}

func (d *Document) validate() error {
	if d.Nodes == nil {
		return errors.New(errors.ErrCodeImportParse, "missing \"nodes\" array")
	}
	if d.Edges == nil {
		return errors.New(errors.ErrCodeImportParse, "missing \"edges\" array")
	}
	for i, n := range d.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeImportParse, "node %d: empty id", i)
		}
		if !n.Kind.Valid() {
			return errors.New(errors.ErrCodeImportParse, "node %s: missing kind", n.ID)
		}
	}
	for i, e := range d.Edges {
		if e.ID == "" || e.Source == "" || e.Target == "" {
			return errors.New(errors.ErrCodeImportParse, "edge %d: id, source and target are required", i)
		}
	}
	return nil
}

// WriteJSON encodes g and the active response count as an indented JSON
// document and writes it to w.
func WriteJSON(g *graph.Graph, responseCount int, w io.Writer) error {
	return WriteDocument(NewDocument(g.Snapshot(), responseCount), w)
}

// WriteDocument encodes d as indented JSON and writes it to w.
func WriteDocument(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *graph.Graph, responseCount int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, responseCount, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadDocument decodes and validates a JSON document from r. It does not
// check referential integrity; that happens when the document is turned
// into or merged with a graph. ReadDocument does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportParse, err, "decode graph")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadJSON decodes a document from r into a fresh graph with the saved ids
// and returns it with the saved response count (0 if absent).
func ReadJSON(r io.Reader) (*graph.Graph, int, error) {
	d, err := ReadDocument(r)
	if err != nil {
		return nil, 0, err
	}
	g, err := d.Graph()
	if err != nil {
		return nil, 0, err
	}
	return g, d.ResponseCount, nil
}

// Load reads a JSON file at path with [ReadJSON].
// A missing file is reported as [errors.ErrCodeFileNotFound].
func Load(path string) (*graph.Graph, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func integrityError(err error) error {
	switch {
	case stderrors.Is(err, graph.ErrDuplicateID):
		return errors.Wrap(errors.ErrCodeDuplicateID, err, "conflicting ids")
	case stderrors.Is(err, graph.ErrDanglingEdge):
		return errors.Wrap(errors.ErrCodeDanglingEdge, err, "edge references a missing node")
	case stderrors.Is(err, graph.ErrInvalidKind), stderrors.Is(err, graph.ErrInvalidID):
		return errors.Wrap(errors.ErrCodeImportParse, err, "invalid node")
	}
	return err
}
