package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
)

// initCommand creates the init command for starting a new working file.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a working file with a default system node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateFilePath(c.file); err != nil {
				return err
			}
			if _, err := os.Stat(c.file); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", c.file)
			}

			r, _, err := c.newRunner(graph.NewDefault(), 0)
			if err != nil {
				return err
			}
			if err := c.save(r); err != nil {
				return err
			}

			printSuccess("Initialized conversation graph")
			printFile(c.file)
			printNewline()
			printNextStep("Ask something", appName+" prompt --parent "+graph.DefaultSystemID+" \"Hello\"")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing working file")
	return cmd
}

// showCommand creates the show command that prints the conversation tree.
func (c *CLI) showCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the conversation tree",
		Long: `Print the conversation tree as indented text, one line per node.

Without --root the tree of the first system node is printed, the same
outline 'export tree' writes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			if root == "" {
				n, ok := r.Graph.FirstOfKind(graph.KindSystem)
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "graph has no system node")
				}
				root = n.ID
			}
			if _, ok := r.Graph.Node(root); !ok {
				return errors.New(errors.ErrCodeNotFound, "node %s not found", root)
			}
			fmt.Print(r.Graph.RenderTreeText(root))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "node to start from (default: first system node)")
	_ = cmd.RegisterFlagCompletionFunc("root", c.completeNodeIDFlag)
	return cmd
}

// nodesCommand creates the nodes command that lists nodes as a table.
func (c *CLI) nodesCommand() *cobra.Command {
	var kindStr string

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List nodes with their ids, kinds and content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind graph.Kind
			if kindStr != "" {
				k, err := graph.ParseKind(kindStr)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --kind")
				}
				kind = k
			}

			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			rows := nodeRows(r.Graph, kind)
			if len(rows) == 0 {
				printDetail("No nodes")
				return nil
			}
			fmt.Println(nodeTable(rows, 0, -1).Render())
			printStats(r.Graph.NodeCount(), r.Graph.EdgeCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&kindStr, "kind", "", "only list nodes of this kind: system, prompt, completion")
	return cmd
}
