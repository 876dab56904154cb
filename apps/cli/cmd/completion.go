package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/mock"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for teapot. Fixture names complete for
--fixture and --override once --fixtures (or fixtures.dir) points at a
directory.

  $ source <(teapot completion bash)
  $ teapot completion zsh > "${fpath[1]}/_teapot"
  $ teapot completion fish | source
  PS> teapot completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

// registerCompletions wires fixture-name completion onto the settings flags.
// It must run after addSettingsFlags.
func registerCompletions(c *cobra.Command) {
	_ = c.RegisterFlagCompletionFunc("fixture", completeFixtureNames)
	_ = c.RegisterFlagCompletionFunc("override", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		endpoint, partial, ok := strings.Cut(toComplete, "=")
		if !ok {
			return nil, cobra.ShellCompDirectiveNoSpace
		}
		names, directive := completeFixtureNames(cmd, args, partial)
		for i, name := range names {
			names[i] = endpoint + "=" + name
		}
		return names, directive
	})
}

func completeFixtureNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadSettings()
	if err != nil || !cfg.UsesFixtures() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, err := mock.ListFixtures(os.DirFS(cfg.Fixtures.Dir))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	matches := names[:0]
	for _, name := range names {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}
