package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
)

// editCommand creates the edit command that changes node content or position.
func (c *CLI) editCommand() *cobra.Command {
	var x, y float64

	cmd := &cobra.Command{
		Use:   "edit <id> [content...]",
		Short: "Change the content or position of a node",
		Long: `Change the content or position of a node.

Content given after the id replaces the node's content. --x and --y move
the node; a coordinate that is not given keeps its current value.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeNodeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			moved := cmd.Flags().Changed("x") || cmd.Flags().Changed("y")
			if len(args) == 1 && !moved {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to change (give content, --x or --y)")
			}

			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			n, ok := r.Graph.Node(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "node %s not found", id)
			}

			if len(args) > 1 {
				if err := r.UpdateContent(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
					return err
				}
			}
			if moved {
				pos := n.Position
				if cmd.Flags().Changed("x") {
					pos.X = x
				}
				if cmd.Flags().Changed("y") {
					pos.Y = y
				}
				if err := r.Move(cmd.Context(), id, pos); err != nil {
					return err
				}
			}

			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Updated %s", StyleHighlight.Render(id))
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "new x coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "new y coordinate")
	return cmd
}

// connectCommand creates the connect command that adds a manual edge.
func (c *CLI) connectCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "connect <source> <target>",
		Short:             "Add an edge between two existing nodes",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeNodeIDs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := errors.ValidateNodeID(id); err != nil {
					return err
				}
			}
			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			e, err := r.Connect(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Connected %s %s %s", e.Source, iconArrow, e.Target)
			printKeyValue("Edge", e.ID)
			return nil
		},
	}
}

// disconnectCommand creates the disconnect command that removes an edge.
func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <edge-id>",
		Short: "Remove an edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			if err := r.Disconnect(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Removed edge %s", args[0])
			return nil
		},
	}
}

// deleteCommand creates the delete command that removes nodes and their
// descendants.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete nodes together with everything below them",
		Long: `Delete nodes together with everything below them.

Every node reachable from a selected node is removed as well, along with
all edges touching a removed node. Unknown ids are ignored.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeNodeIDs(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			removed := r.Delete(cmd.Context(), graph.Select(args...))
			if len(removed) == 0 {
				printDetail("Nothing to delete")
				return nil
			}
			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Deleted %s nodes", StyleNumber.Render(fmt.Sprint(len(removed))))
			for _, id := range removed {
				printDetail("%s", id)
			}
			return nil
		},
	}
}
