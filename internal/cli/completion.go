package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/pkg/graph"
	pkgio "github.com/matzehuels/promptree/pkg/io"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for promptree.

Besides commands and flags, the scripts complete node ids read from the
working file: the arguments of edit, connect and delete, and the values
of --parent and --root. Each candidate is described by its kind and the
first line of its content.

  $ source <(promptree completion bash)
  $ promptree completion zsh > "${fpath[1]}/_promptree"
  $ promptree completion fish > ~/.config/fish/completions/promptree.fish
  PS> promptree completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// nodeIDCandidates lists the node ids of the working file that start with
// prefix, as "id\tkind: preview" completion entries. A missing or broken
// working file yields no candidates.
func (c *CLI) nodeIDCandidates(prefix string, exclude []string) []string {
	g, _, err := pkgio.Load(c.file)
	if err != nil {
		return nil
	}
	skip := graph.Select(exclude...)

	var out []string
	for _, n := range g.Nodes() {
		if !strings.HasPrefix(n.ID, prefix) || skip.Has(n.ID) {
			continue
		}
		out = append(out, n.ID+"\t"+n.Kind.String()+": "+preview(n.Content, previewWidth))
	}
	return out
}

// completeNodeIDs completes up to maxArgs node id arguments; maxArgs < 0
// means any number.
func (c *CLI) completeNodeIDs(maxArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if maxArgs >= 0 && len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.nodeIDCandidates(toComplete, args), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeNodeIDFlag completes a flag whose value is one node id.
func (c *CLI) completeNodeIDFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.nodeIDCandidates(toComplete, nil), cobra.ShellCompDirectiveNoFileComp
}
