package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/glossary"
)

// completionCommand prints a shell completion script for conceptmap.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for conceptmap.

Glossary arguments complete to .toml and .json files, and --section
completes to the sections of the glossary already on the command line.

  bash        source <(conceptmap completion bash)
  zsh         conceptmap completion zsh > "${fpath[1]}/_conceptmap"
  fish        conceptmap completion fish > ~/.config/fish/completions/conceptmap.fish
  powershell  conceptmap completion powershell | Out-String | Invoke-Expression

Start a new shell after installing the script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "zsh":
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(stdout)
			default:
				return root.GenBashCompletionV2(stdout, true)
			}
		},
	}

	return cmd
}

// completeGlossary wires completion for a command whose first argument is a
// glossary file. If the command has a --section flag it completes to the
// sections of that glossary.
func completeGlossary(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{"toml", "json"}, cobra.ShellCompDirectiveFilterFileExt
	}
	if cmd.Flags().Lookup("section") == nil {
		return
	}
	_ = cmd.RegisterFlagCompletionFunc("section", completeSections)
}

// completeSections lists the sections of the glossary in args[0] that start
// with the typed prefix.
func completeSections(_ *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	doc, err := glossary.ReadFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, s := range doc.Sections() {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
