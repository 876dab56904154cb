package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
)

var listCmd = &cobra.Command{
	Use:   "list <script|directory>...",
	Short: "List the requests in scripts",
	Long: `List every request defined in request scripts.

Examples:
  teapot list login.yaml
  teapot list ./scripts/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no .yaml or .yml scripts found"))
	}

	for _, file := range files {
		s, err := runner.LoadScript(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %v\n", err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, step := range s.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s: %s %s\n", step.Name, step.Method, step.Path)
			if len(step.Captures) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    captures: %v\n", sortedNames(step.Captures))
			}
		}
	}

	return nil
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
