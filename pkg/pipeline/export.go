package pipeline

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
	pkgio "github.com/matzehuels/promptree/pkg/io"
	"github.com/matzehuels/promptree/pkg/render"
	"github.com/matzehuels/promptree/pkg/render/nodelink"
)

// PNGScale is the scale factor used for PNG exports.
const PNGScale = 2.0

// Export renders the current graph in the given format.
func (r *Runner) Export(format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		err = pkgio.WriteDocument(r.Document(), &buf)
		data = buf.Bytes()
	case FormatTree:
		var buf bytes.Buffer
		err = pkgio.WriteTree(r.Graph, &buf)
		data = buf.Bytes()
	default:
		data, err = renderNodelink(r.Graph.Snapshot(), format)
	}
	if stderrors.Is(err, render.ErrConverterMissing) {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "%s export is not available", format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	r.Logger.Debug("exported graph", "format", format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func renderNodelink(s graph.Snapshot, format string) ([]byte, error) {
	dot := nodelink.ToDOT(s, nodelink.Options{})
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(dot)
	case FormatPNG:
		return nodelink.RenderPNG(dot, PNGScale)
	case FormatPDF:
		return nodelink.RenderPDF(dot)
	}
	return nil, fmt.Errorf("unsupported nodelink format: %s", format)
}

// FileName returns the download name for an export of format made at t.
func FileName(format string, t time.Time) string {
	switch format {
	case FormatJSON:
		return pkgio.JSONFileName(t)
	case FormatTree:
		return pkgio.TreeFileName(t)
	}
	return "graph-" + t.UTC().Format("2006-01-02") + "." + format
}
