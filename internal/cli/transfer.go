package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/pipeline"
)

// exportCommand creates the export command for downloads of the graph.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <format>",
		Short: "Export the graph as json, tree, dot, svg, png or pdf",
		Long: `Export the graph.

Formats:
  json   the full graph, importable with 'import'
  tree   the text outline of the first conversation
  dot    Graphviz source with pinned node positions
  svg    rendered graph
  png    rendered graph (requires rsvg-convert)
  pdf    rendered graph (requires rsvg-convert)

Without --output the file is named after the format and today's date, e.g.
graph-2024-03-05.json. Use --output - to write to stdout.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{pipeline.FormatJSON, pipeline.FormatTree, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := args[0]
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}

			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}

			spinner := newSpinner(cmd.Context(), os.Stderr, "Rendering "+format)
			spinner.Start()
			data, err := r.Export(format)
			spinner.Stop()
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if output == "" {
				output = pipeline.FileName(format, c.clock()())
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Exported %s", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: dated name)")
	return cmd
}

// importCommand creates the import command that merges another graph.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <graph.json>",
		Short: "Merge an exported graph into the working file",
		Long: `Merge an exported graph into the working file.

Every id of the imported graph gets the "imported-" prefix and the graph is
shifted to the right of the existing nodes. If the file cannot be parsed or
its ids collide with existing ones, the working file is left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := errors.ValidateFilePath(path); err != nil {
				return err
			}

			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					return errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s not found", path)
				}
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			ids, err := r.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Imported %s nodes from %s", StyleNumber.Render(fmt.Sprint(len(ids))), path)
			printStats(r.Graph.NodeCount(), r.Graph.EdgeCount())
			return nil
		},
	}
}
