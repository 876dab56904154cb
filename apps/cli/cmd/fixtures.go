package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/teapot/packages/core/config"
	"github.com/abdul-hamid-achik/teapot/packages/mock"
)

var (
	servePortFlag    int
	serveDelayFlag   string
	serveVerboseFlag bool

	recordTargetFlag    string
	recordPortFlag      int
	recordExcludeFlag   []string
	recordOverwriteFlag bool
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Work with fixture directories",
	Long: `List, validate, record and serve the JSON fixtures answering mock requests.

A fixture is a file <name>.json holding a single JSON object. The directory
defaults to --fixtures or fixtures.dir from the config file.`,
}

var fixturesListCmd = &cobra.Command{
	Use:   "list [directory]",
	Short: "List fixture names",
	Args:  cobra.MaximumNArgs(1),
	RunE:  fixturesListCommand,
}

var fixturesValidateCmd = &cobra.Command{
	Use:   "validate [directory]",
	Short: "Check that every fixture is a JSON object, optionally against --schema",
	Long: `Check that every fixture is a single JSON object. With --schema, every
fixture must also satisfy the JSON schema.

Examples:
  teapot fixtures validate ./fixtures
  teapot fixtures validate ./fixtures --schema user.schema.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: fixturesValidateCommand,
}

var fixturesServeCmd = &cobra.Command{
	Use:   "serve [directory]",
	Short: "Serve fixtures over HTTP",
	Long: `Start an HTTP server answering every request the way the mock client does:
the default fixture, or the override registered for the endpoint.

Examples:
  teapot fixtures serve ./fixtures --fixture get
  teapot fixtures serve ./fixtures --fixture get --port 8080 --delay 100ms
  teapot fixtures serve ./fixtures --fixture get --override users=user_list --status 201`,
	Args: cobra.MaximumNArgs(1),
	RunE: fixturesServeCommand,
}

var fixturesRecordCmd = &cobra.Command{
	Use:   "record [directory]",
	Short: "Record fixtures from a live service",
	Long: `Start a proxy in front of --target. Every successful JSON response is
saved as <endpoint>.json in the fixture directory, where the endpoint is the
last path segment of the request. The first response per endpoint wins.

Examples:
  teapot fixtures record ./fixtures --target https://api.example.com
  teapot fixtures record ./fixtures --target https://api.example.com --port 9090 --exclude /health`,
	Args: cobra.MaximumNArgs(1),
	RunE: fixturesRecordCommand,
}

func init() {
	fixturesRecordCmd.Flags().StringVarP(&recordTargetFlag, "target", "t", getEnvString("TEAPOT_RECORD_TARGET", ""), "Service to proxy to (env: TEAPOT_RECORD_TARGET)")
	fixturesRecordCmd.Flags().IntVarP(&recordPortFlag, "port", "p", 8080, "Port to run the recording proxy on")
	fixturesRecordCmd.Flags().StringArrayVar(&recordExcludeFlag, "exclude", nil, "Skip paths containing this fragment (repeatable)")
	fixturesRecordCmd.Flags().BoolVar(&recordOverwriteFlag, "overwrite", false, "Replace fixture files that already exist")

	fixturesServeCmd.Flags().IntVarP(&servePortFlag, "port", "p", getEnvInt("TEAPOT_PORT", 3000), "Port to run the fixture server on (env: TEAPOT_PORT)")
	fixturesServeCmd.Flags().StringVarP(&serveDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	fixturesServeCmd.Flags().BoolVar(&serveVerboseFlag, "log-requests", false, "Log every request served")

	fixturesCmd.AddCommand(fixturesListCmd, fixturesValidateCmd, fixturesServeCmd, fixturesRecordCmd)
}

// fixtureSettings loads settings and points the fixture directory at the
// positional argument when one is given.
func fixtureSettings(args []string) (*config.Config, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg = cfg.Merge(&config.Config{Fixtures: &config.Fixtures{Dir: args[0]}})
	}
	if !cfg.UsesFixtures() {
		return nil, exitWith(ExitUsageError, fmt.Errorf("no fixture directory: pass one or use --fixtures"))
	}
	return cfg, nil
}

func fixturesListCommand(cmd *cobra.Command, args []string) error {
	cfg, err := fixtureSettings(args)
	if err != nil {
		return err
	}

	names, err := mock.ListFixtures(os.DirFS(cfg.Fixtures.Dir))
	if err != nil {
		return exitWith(ExitFixtureError, err)
	}
	for _, name := range names {
		marker := " "
		if name == cfg.Fixtures.Default {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
	}
	return nil
}

func fixturesValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := fixtureSettings(args)
	if err != nil {
		return err
	}

	var schema *gojsonschema.Schema
	if cfg.Fixtures.Schema != "" {
		if schema, err = mock.LoadSchemaFile(cfg.Fixtures.Schema); err != nil {
			return exitWith(ExitConfigError, err)
		}
	}

	reports, err := mock.Validate(os.DirFS(cfg.Fixtures.Dir), schema)
	if err != nil {
		return exitWith(ExitFixtureError, err)
	}
	if len(reports) == 0 {
		return exitWith(ExitFixtureError, fmt.Errorf("no fixtures found in %s", cfg.Fixtures.Dir))
	}

	invalid := 0
	for _, r := range reports {
		if r.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s%s\n", r.Name, mock.FixtureExt)
			continue
		}
		invalid++
		fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s%s\n", r.Name, mock.FixtureExt)
		for _, e := range r.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", e)
		}
	}

	if invalid > 0 {
		return exitWith(ExitFixtureError, fmt.Errorf("%d of %d fixtures invalid", invalid, len(reports)))
	}
	return nil
}

func fixturesServeCommand(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if serveDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(serveDelayFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("invalid delay value %q: %w", serveDelayFlag, err))
		}
	}

	cfg, err := fixtureSettings(args)
	if err != nil {
		return err
	}
	mc, err := buildMockClient(cfg.Fixtures, nil)
	if err != nil {
		return err
	}

	server := mock.NewServer(mc.Fixtures(),
		mock.WithPort(servePortFlag),
		mock.WithDelay(delay),
		mock.WithVerbose(serveVerboseFlag),
		mock.WithLogger(log.Log),
	)

	ctx, stop := signalContext()
	defer stop()

	return server.StartWithContext(ctx)
}

func fixturesRecordCommand(cmd *cobra.Command, args []string) error {
	dir := "fixtures"
	if len(args) == 1 {
		dir = args[0]
	} else if cfg, err := loadSettings(); err == nil && cfg.UsesFixtures() {
		dir = cfg.Fixtures.Dir
	}

	rec, err := mock.NewRecorder(recordTargetFlag, dir,
		mock.WithRecorderPort(recordPortFlag),
		mock.WithExclude(recordExcludeFlag),
		mock.WithOverwrite(recordOverwriteFlag),
		mock.WithRecorderLogger(log.Log),
	)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	ctx, stop := signalContext()
	defer stop()

	if err := rec.StartWithContext(ctx); err != nil {
		return exitWith(ExitNetworkError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d fixtures in %s\n", len(rec.Recordings()), dir)
	return nil
}
