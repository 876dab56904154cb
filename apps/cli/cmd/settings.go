package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/core/config"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/mock"
	"github.com/abdul-hamid-achik/teapot/packages/output"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

var (
	configFlag         string
	baseURLFlag        string
	timeoutFlag        string
	logLevelFlag       string
	outputFlag         string
	outputFileFlag     string
	noColorFlag        bool
	verboseFlag        int
	quietFlag          bool
	proxyFlag          string
	noFollowFlag       bool
	fixturesDirFlag    string
	fixtureFlag        string
	fixtureStatusFlag  int
	fixtureLatencyFlag string
	fixtureSchemaFlag  string
	overrideFlags      []string
	expectHeaderFlags  []string
)

func addSettingsFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.StringVar(&configFlag, "config", getEnvString("TEAPOT_CONFIG", ""), "Path to config file (env: TEAPOT_CONFIG)")
	f.StringVar(&baseURLFlag, "base-url", getEnvString("TEAPOT_BASE_URL", ""), "Base URL requests are resolved against (env: TEAPOT_BASE_URL)")
	f.StringVar(&timeoutFlag, "timeout", getEnvString("TEAPOT_TIMEOUT", ""), "Request timeout, e.g. 5s or 500ms (env: TEAPOT_TIMEOUT)")
	f.StringVar(&logLevelFlag, "log-level", getEnvString("TEAPOT_LOG_LEVEL", ""), "Wire log level: all, incoming, error, none (env: TEAPOT_LOG_LEVEL)")
	f.StringVarP(&outputFlag, "output", "o", getEnvString("TEAPOT_OUTPUT", ""), "Output format: console, json (env: TEAPOT_OUTPUT)")
	f.StringVar(&outputFileFlag, "output-file", getEnvString("TEAPOT_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: TEAPOT_OUTPUT_FILE)")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("TEAPOT_NO_COLOR", false), "Disable colored output (env: TEAPOT_NO_COLOR)")
	f.CountVarP(&verboseFlag, "verbose", "v", "Verbose output")
	f.BoolVarP(&quietFlag, "quiet", "q", getEnvBool("TEAPOT_QUIET", false), "Only log errors (env: TEAPOT_QUIET)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("TEAPOT_PROXY", ""), "Proxy URL for live requests (env: TEAPOT_PROXY)")
	f.BoolVar(&noFollowFlag, "no-follow", getEnvBool("TEAPOT_NO_FOLLOW", false), "Do not follow redirects (env: TEAPOT_NO_FOLLOW)")

	f.StringVar(&fixturesDirFlag, "fixtures", getEnvString("TEAPOT_FIXTURES", ""), "Answer requests from this fixture directory (env: TEAPOT_FIXTURES)")
	f.StringVar(&fixtureFlag, "fixture", getEnvString("TEAPOT_FIXTURE", ""), "Default fixture name, without .json (env: TEAPOT_FIXTURE)")
	f.IntVar(&fixtureStatusFlag, "status", getEnvInt("TEAPOT_STATUS", 0), "Status code reported by fixtures (env: TEAPOT_STATUS)")
	f.StringVar(&fixtureLatencyFlag, "latency", getEnvString("TEAPOT_LATENCY", ""), "Simulated fixture latency, e.g. 100ms (env: TEAPOT_LATENCY)")
	f.StringVar(&fixtureSchemaFlag, "schema", getEnvString("TEAPOT_SCHEMA", ""), "JSON schema every fixture must satisfy (env: TEAPOT_SCHEMA)")
	f.StringArrayVar(&overrideFlags, "override", nil, "Answer an endpoint with another fixture: endpoint=fixture (repeatable)")
	f.StringArrayVar(&expectHeaderFlags, "expect-header", nil, "Header fixtures require: 'Key: Value' (repeatable)")
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// loadSettings merges defaults, the config file and flags, in that order.
func loadSettings() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	flags, err := flagConfig()
	if err != nil {
		return nil, exitWith(ExitUsageError, err)
	}

	cfg := config.DefaultConfig().Merge(fileConfig).Merge(flags)
	if err := cfg.Validate(); err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return cfg, nil
}

func flagConfig() (*config.Config, error) {
	c := &config.Config{
		BaseURL:  baseURLFlag,
		Proxy:    proxyFlag,
		LogLevel: logLevelFlag,
		Output:   outputFlag,
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 5s, 500ms)", timeoutFlag, err)
		}
		c.Timeout = int(d.Milliseconds())
	}
	if noColorFlag {
		c.NoColor = config.BoolPtr(true)
	}
	if noFollowFlag {
		c.FollowRedirects = config.BoolPtr(false)
	}

	fx := &config.Fixtures{
		Dir:        fixturesDirFlag,
		Default:    fixtureFlag,
		StatusCode: fixtureStatusFlag,
		Schema:     fixtureSchemaFlag,
	}
	if fixtureLatencyFlag != "" {
		d, err := time.ParseDuration(fixtureLatencyFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid latency value %q: %w", fixtureLatencyFlag, err)
		}
		fx.Latency = int(d.Milliseconds())
	}
	var err error
	if fx.Overrides, err = parsePairs(overrideFlags, "="); err != nil {
		return nil, fmt.Errorf("--override: %w", err)
	}
	if fx.ExpectedHeaders, err = parseHeaders(expectHeaderFlags); err != nil {
		return nil, fmt.Errorf("--expect-header: %w", err)
	}
	if fx.Dir != "" || fx.Default != "" || fx.StatusCode != 0 || fx.Latency > 0 || fx.Schema != "" ||
		len(fx.Overrides) > 0 || len(fx.ExpectedHeaders) > 0 {
		c.Fixtures = fx
	}
	return c, nil
}

// parsePairs splits "key<sep>value" items.
func parsePairs(items []string, sep string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, sep)
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key%svalue, got %q", sep, item)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// parseHeaders accepts "Key: Value" and "Key=Value".
func parseHeaders(items []string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		sep := ":"
		if !strings.Contains(item, ":") {
			sep = "="
		}
		pair, err := parsePairs([]string{item}, sep)
		if err != nil {
			return nil, err
		}
		for k, v := range pair {
			out[k] = v
		}
	}
	return out, nil
}

// buildClient returns a fixture-backed client when a fixture directory is
// configured and a live one otherwise. mc is nil for live clients.
func buildClient(cfg *config.Config) (*teapot.Client, *teapot.MockClient, error) {
	level, err := cfg.WireLevel()
	if err != nil {
		return nil, nil, exitWith(ExitConfigError, err)
	}
	opts := []teapot.Option{
		teapot.WithDefaultTimeout(cfg.TimeoutDuration()),
		teapot.WithDefaultAllowCellular(cfg.GetAllowCellular()),
		teapot.WithWireLog(log.Log, level),
	}

	if cfg.UsesFixtures() {
		mc, err := buildMockClient(cfg.Fixtures, opts)
		if err != nil {
			return nil, nil, err
		}
		return mc.Client, mc, nil
	}

	if cfg.BaseURL == "" {
		return nil, nil, exitWith(ExitUsageError, fmt.Errorf("no base URL: use --base-url, TEAPOT_BASE_URL or baseURL in the config file"))
	}
	if err := http.ValidateURL(cfg.BaseURL); err != nil {
		return nil, nil, exitWith(ExitConfigError, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err))
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	opts = append(opts, teapot.WithTransport(http.NewClient(clientOpts...)))
	return teapot.NewClient(cfg.BaseURL, opts...), nil, nil
}

func buildMockClient(fx *config.Fixtures, clientOpts []teapot.Option) (*teapot.MockClient, error) {
	if fx.Default == "" {
		return nil, exitWith(ExitUsageError, fmt.Errorf("no default fixture: use --fixture, TEAPOT_FIXTURE or fixtures.default in the config file"))
	}
	info, err := os.Stat(fx.Dir)
	if err != nil || !info.IsDir() {
		return nil, exitWith(ExitConfigError, fmt.Errorf("fixture directory %q not found", fx.Dir))
	}

	var mockOpts []mock.Option
	if fx.StatusCode != 0 {
		mockOpts = append(mockOpts, mock.WithStatusCode(fx.StatusCode))
	}
	if fx.Latency > 0 {
		mockOpts = append(mockOpts, mock.WithLatency(time.Duration(fx.Latency)*time.Millisecond))
	}
	if fx.Schema != "" {
		schema, err := mock.LoadSchemaFile(fx.Schema)
		if err != nil {
			return nil, exitWith(ExitConfigError, err)
		}
		mockOpts = append(mockOpts, mock.WithSchema(schema))
	}

	mc := teapot.NewMockClientDir(fx.Dir, fx.Default,
		teapot.WithMockOptions(mockOpts...),
		teapot.WithClientOptions(clientOpts...))
	for endpoint, fixture := range fx.Overrides {
		mc.OverrideEndpoint(endpoint, fixture)
	}
	if len(fx.ExpectedHeaders) > 0 {
		mc.SetExpectedHeaders(fx.ExpectedHeaders)
	}
	return mc, nil
}

// newFormatter opens --output-file when set. The returned closer is never nil.
func newFormatter(cmd *cobra.Command, cfg *config.Config) (output.Formatter, func() error, error) {
	var w io.Writer = cmd.OutOrStdout()
	closer := func() error { return nil }
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create output file: %w", err)
		}
		w = f
		closer = f.Close
	}
	formatter, err := output.New(cfg.Output, w, verboseFlag > 0, cfg.GetNoColor())
	if err != nil {
		_ = closer()
		return nil, nil, exitWith(ExitUsageError, err)
	}
	return formatter, closer, nil
}
