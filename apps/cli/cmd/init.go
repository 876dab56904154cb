package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new teapot project",
	Long: `Initialize a new teapot project in the current directory.

This creates:
  - .teapot.yaml         - Configuration file using the fixtures below
  - fixtures/get.json    - Default fixture
  - fixtures/login.json  - Fixture for the /login endpoint
  - example.yaml         - Example request script

Examples:
  teapot init
  teapot init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleScript = `name: example
variables:
  user: admin
requests:
  - name: login
    method: POST
    path: /login
    body:
      user: "{{user}}"
      password: "{{$TEAPOT_PASSWORD}}"
    expectStatus: 200
    captures:
      token: body.token

  - name: profile
    path: /users/{{user}}
    headers:
      Authorization: Bearer {{login.token}}
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".teapot.yaml")
	fixtureDir := filepath.Join(cwd, "fixtures")
	files := map[string]string{
		filepath.Join(fixtureDir, "get.json"):   "{\n  \"key\": \"value\"\n}\n",
		filepath.Join(fixtureDir, "login.json"): "{\n  \"token\": \"abc123\"\n}\n",
		filepath.Join(cwd, "example.yaml"):      exampleScript,
	}

	if !forceInit {
		check := []string{configFile}
		for f := range files {
			check = append(check, f)
		}
		for _, f := range check {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	cfg.Headers = map[string]string{"User-Agent": "teapot/" + version}
	cfg.Fixtures = &config.Fixtures{
		Dir:       "fixtures",
		Default:   "get",
		Overrides: map[string]string{"login": "login"},
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.MkdirAll(fixtureDir, 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	for _, path := range []string{
		filepath.Join(fixtureDir, "get.json"),
		filepath.Join(fixtureDir, "login.json"),
		filepath.Join(cwd, "example.yaml"),
	} {
		if err := os.WriteFile(path, []byte(files[path]), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nteapot project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'teapot run example.yaml' to run the example against the fixtures.\n")

	return nil
}
