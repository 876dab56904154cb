package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script|directory>...",
	Short: "Check request scripts without sending them",
	Long: `Parse every script and check request names, methods, status
expectations, captures and assertions. Nothing is sent.

Examples:
  teapot validate login.yaml
  teapot validate ./scripts/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no .yaml or .yml scripts found"))
	}

	invalid := 0
	for _, file := range files {
		script, err := runner.LoadScript(file)
		if err != nil {
			invalid++
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %v\n", err)
			continue
		}

		asserts := 0
		for _, step := range script.Requests {
			asserts += len(step.Assert)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests, %d assertions)\n", file, len(script.Requests), asserts)
	}

	if invalid > 0 {
		return exitWith(ExitScriptError, fmt.Errorf("%d of %d scripts invalid", invalid, len(files)))
	}
	return nil
}
