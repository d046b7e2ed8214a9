package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/pipeline"
)

// promptCommand creates the prompt command that branches a prompt from a
// node and generates its completions.
func (c *CLI) promptCommand() *cobra.Command {
	var (
		parent    string
		responses int
	)

	cmd := &cobra.Command{
		Use:   "prompt [text...]",
		Short: "Branch a prompt from a node and generate completions",
		Long: `Branch a prompt from a node and generate completions.

The prompt is attached below --parent, which may be any node. One
completion per response is generated concurrently, each at a different
temperature. If any call fails, every completion of the prompt shows an
error message instead.

Without --parent an interactive picker is shown when running in a terminal.
--responses changes the number of completions for this and later prompts
and is saved in the working file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrompt(cmd.Context(), parent, strings.Join(args, " "), responses)
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "id of the node to branch from")
	cmd.Flags().IntVarP(&responses, "responses", "n", 0, "number of completions (1-5)")
	_ = cmd.RegisterFlagCompletionFunc("parent", c.completeNodeIDFlag)
	return cmd
}

func (c *CLI) runPrompt(ctx context.Context, parent, text string, responses int) error {
	if err := errors.ValidatePromptText(text); err != nil {
		return err
	}

	r, _, err := c.openWorkingFile()
	if err != nil {
		return err
	}
	if responses != 0 {
		if err := r.SetResponseCount(responses); err != nil {
			return err
		}
	}

	if parent == "" {
		parent, err = pickParent(r)
		if err != nil || parent == "" {
			return err
		}
	}

	batch, err := r.SubmitPrompt(ctx, parent, text)
	if err != nil {
		return err
	}

	batchErr := waitBatch(ctx, os.Stderr, batch)

	// The placeholders are settled either way; keep the outcome on disk.
	if err := c.save(r); err != nil {
		return err
	}

	if batchErr != nil {
		printDetail("%v", batchErr)
	} else {
		printSuccess("Prompt %s", StyleHighlight.Render(batch.PromptID))
	}
	for _, id := range batch.CompletionIDs {
		n, ok := r.Graph.Node(id)
		if !ok {
			continue
		}
		printNewline()
		fmt.Println(StyleDim.Render(id))
		fmt.Println(n.Content)
	}
	printNewline()
	printNextStep("Continue a branch", appName+" prompt --parent "+batch.CompletionIDs[0]+" \"...\"")
	return nil
}

// waitBatch shows a spinner on w until b settles and prints the outcome.
// It returns the batch error.
func waitBatch(ctx context.Context, w io.Writer, b *pipeline.Batch) error {
	s := newSpinner(ctx, w, fmt.Sprintf("Generating %d responses", b.Size()))
	s.Start()
	if err := b.Wait(); err != nil {
		s.StopWithWarning("Generation failed: %s", errors.UserMessage(err))
		return err
	}
	s.StopWithSuccess("Generated %d responses", b.Size())
	return nil
}

// pickParent asks for the parent node interactively. It fails when stdin
// is not a terminal and returns "" if the user cancels.
func pickParent(r *pipeline.Runner) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidInput, "--parent is required when not running in a terminal")
	}

	rows := nodeRows(r.Graph, 0)
	if len(rows) == 0 {
		return "", errors.New(errors.ErrCodeNotFound, "graph is empty (add a system node first)")
	}

	p := tea.NewProgram(NewNodeListModel(rows))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	fm, ok := finalModel.(NodeListModel)
	if !ok || fm.Selected == nil {
		printDetail("No selection made")
		return "", nil
	}
	return fm.Selected.ID, nil
}

// systemCommand creates the system command that adds a conversation root.
func (c *CLI) systemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system [content...]",
		Short: "Add a system node to start a new conversation",
		Long: `Add a system node to start a new conversation.

The node is placed to the right of everything in the graph. Without
content it holds a placeholder instruction that can be changed with 'edit'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := c.openWorkingFile()
			if err != nil {
				return err
			}
			n, err := r.AddSystemNode(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := c.save(r); err != nil {
				return err
			}
			printSuccess("Added system node %s", StyleHighlight.Render(n.ID))
			printKeyValue("Position", fmt.Sprintf("%g, %g", n.Position.X, n.Position.Y))
			return nil
		},
	}
	return cmd
}
