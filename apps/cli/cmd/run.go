package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/core/config"
	"github.com/abdul-hamid-achik/teapot/packages/core/env"
	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
	"github.com/abdul-hamid-achik/teapot/packages/output"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

var runCmd = &cobra.Command{
	Use:   "run <script|directory>...",
	Short: "Run request scripts",
	Long: `Run YAML request scripts. Steps run in order and values captured from one
response can be used in later steps as {{step.capture}}.

Examples:
  teapot run login.yaml --base-url http://localhost:8080
  teapot run ./scripts --fixtures ./fixtures --fixture get
  teapot run login.yaml --env-file .env --var user=admin
  teapot run login.yaml --rate 10 --repeat 100
  teapot run login.yaml --fixtures ./fixtures --fixture login --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	rateFlag    float64
	repeatFlag  int
	bailFlag    bool
	envFileFlag string
	varFlags    []string
	watchFlag   bool
)

func init() {
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Maximum requests per second, 0 for unlimited")
	runCmd.Flags().IntVar(&repeatFlag, "repeat", 0, "Run every script this many times")
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("TEAPOT_BAIL", false), "Stop on first failure (env: TEAPOT_BAIL)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("TEAPOT_ENV_FILE", ""), "Path to .env file for variable interpolation (env: TEAPOT_ENV_FILE)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Script variable name=value (repeatable)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch scripts and fixtures for changes and re-run")
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if rateFlag > 0 {
		cfg.Rate = rateFlag
	}
	if repeatFlag > 0 {
		cfg.Repeat = repeatFlag
	}

	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no .yaml or .yml scripts found"))
	}

	variables, err := loadVariables()
	if err != nil {
		return err
	}

	client, _, err := buildClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	runOnce := func() (int, error) {
		return runScripts(ctx, cmd, cfg, client, files, variables)
	}

	failed, err := runOnce()
	if !watchFlag {
		if err != nil {
			return err
		}
		if failed > 0 {
			return exitWith(ExitRequestFailure, nil)
		}
		return nil
	}
	if err != nil {
		log.WithError(err).Error("run failed")
	}

	return watch(ctx, cmd, cfg, args, files, func() {
		if _, err := runOnce(); err != nil {
			log.WithError(err).Error("run failed")
		}
	})
}

// loadVariables merges TEAPOT_VAR_* variables, the env file and --var flags.
func loadVariables() (map[string]any, error) {
	sources := []map[string]any{env.LoadSystemEnv(env.VariablePrefix)}
	if envFileFlag != "" {
		vars, err := env.LoadAndExportDotEnv(envFileFlag)
		if err != nil {
			return nil, exitWith(ExitConfigError, err)
		}
		sources = append(sources, env.ToVariables(vars))
	}
	flags, err := parsePairs(varFlags, "=")
	if err != nil {
		return nil, exitWith(ExitUsageError, fmt.Errorf("--var: %w", err))
	}
	sources = append(sources, env.ToVariables(flags))
	return env.MergeVariables(sources...), nil
}

// runScripts runs every file and reports the number of failed requests.
func runScripts(ctx context.Context, cmd *cobra.Command, cfg *config.Config, client *teapot.Client, files []string, variables map[string]any) (int, error) {
	formatter, closeOutput, err := newFormatter(cmd, cfg)
	if err != nil {
		return 0, err
	}
	defer closeOutput()

	formatter.FormatHeader(version)

	r := runner.NewRunner(client, &runner.Config{
		Rate:      cfg.Rate,
		Repeat:    cfg.Repeat,
		Bail:      bailFlag,
		Variables: variables,
		Logger:    log.Log,
	})

	start := time.Now()
	failed := 0
	var firstErr error
	for _, file := range files {
		result, err := r.RunFile(ctx, file)
		if result != nil {
			formatter.FormatResult(result)
			failed += result.Failed
		}
		if err != nil {
			formatter.FormatError(err)
			if errors.Is(err, context.Canceled) {
				firstErr = exitWith(ExitRequestFailure, err)
				break
			}
			if firstErr == nil {
				firstErr = exitWith(ExitScriptError, err)
			}
		}
	}

	if err := output.Flush(formatter, time.Since(start)); err != nil {
		return failed, err
	}
	return failed, firstErr
}

func watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	add := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			log.WithError(err).Warnf("failed to watch %s", dir)
		}
		watchedDirs[dir] = true
	}
	for _, file := range files {
		add(filepath.Dir(file))
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err == nil && info.IsDir() {
					add(path)
				}
				return nil
			})
		}
	}
	if cfg.UsesFixtures() {
		add(cfg.Fixtures.Dir)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce: the timer only signals, runs happen on this goroutine so
	// they never overlap.
	trigger := make(chan string, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isScriptFile(event.Name) && filepath.Ext(event.Name) != ".json" {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case trigger <- name:
				default:
				}
			})

		case name := <-trigger:
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", name)
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("watcher error")
		}
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isScriptFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isScriptFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}

// isScriptFile matches YAML files other than teapot config files.
func isScriptFile(path string) bool {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	base := filepath.Base(path)
	for _, name := range config.ConfigFilenames {
		if base == name {
			return false
		}
	}
	return true
}
