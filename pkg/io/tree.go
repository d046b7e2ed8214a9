package io

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
)

const dateLayout = "2006-01-02"

// WriteTree writes the text outline of the conversation rooted at the first
// system node of g. Returns [errors.ErrCodeNotFound] if g has no system node.
func WriteTree(g *graph.Graph, w io.Writer) error {
	root, ok := g.FirstOfKind(graph.KindSystem)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "graph has no system node")
	}
	if _, err := io.WriteString(w, g.RenderTreeText(root.ID)); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	return nil
}

// ExportTree writes the text outline of g to a file at path.
func ExportTree(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTree(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// JSONFileName returns the download name of a JSON export made at t.
func JSONFileName(t time.Time) string {
	return "graph-" + t.UTC().Format(dateLayout) + ".json"
}

// TreeFileName returns the download name of a text export made at t.
func TreeFileName(t time.Time) string {
	return "conversation-tree-" + t.UTC().Format(dateLayout) + ".txt"
}
