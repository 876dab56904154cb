package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "teapot",
	Short: "Send HTTP requests, live or from fixtures.",
	Long: `teapot sends JSON HTTP requests against a base URL, or answers them from a
directory of fixture files for offline development and tests.

Examples:
  teapot get /users --base-url https://api.example.com
  teapot get /users/me --fixtures ./fixtures --fixture get
  teapot run login.yaml --fixtures ./fixtures --fixture login --watch`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exit.err)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}
}

func init() {
	addSettingsFlags(rootCmd)
	registerCompletions(rootCmd)

	rootCmd.AddCommand(getCmd, postCmd, putCmd, deleteCmd, imageCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(fixturesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// setupLogging routes the package-level apex logger to stderr. Debug
// entries, including outgoing wire logs, need -v or --log-level all.
func setupLogging(cmd *cobra.Command, args []string) error {
	log.SetHandler(cli.New(cmd.ErrOrStderr()))
	switch {
	case verboseFlag > 0 || logLevelFlag == "all":
		log.SetLevel(log.DebugLevel)
	case quietFlag:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	return nil
}
