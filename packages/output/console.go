package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
)

const maxValueLen = 100

// formatValue formats a captured value for display, truncating large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+result.Script))

	for _, r := range result.Results {
		name := r.Name
		if r.Iteration > 1 {
			name = fmt.Sprintf("%s #%d", r.Name, r.Iteration)
		}

		if r.Passed {
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", green("✓"), name,
				statusText(r.Status), cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
		} else {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), name, red(fmt.Sprintf("(%v)", r.Error)))
		}

		if f.verbose {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Method, r.Path)
			if len(r.Captures) > 0 {
				fmt.Fprintf(f.writer, "    Captures:\n")
				for _, k := range sortedKeys(r.Captures) {
					fmt.Fprintf(f.writer, "      %s = %s\n", k, formatValue(r.Captures[k], maxValueLen))
				}
			}
			for _, a := range r.Assertions {
				if a.Passed {
					fmt.Fprintf(f.writer, "    %s %s %s\n", green("✓"), a.Subject, a.Operator)
				} else {
					fmt.Fprintf(f.writer, "    %s %s %s: %s\n", red("✗"), a.Subject, a.Operator, a.Message)
				}
			}
		}
	}

	fmt.Fprintf(f.writer, "\nRequests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Passed+result.Failed)
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())

	if l := result.Latency; l != nil && l.Overall != nil && l.Overall.Total > 1 {
		o := l.Overall
		fmt.Fprintf(f.writer, "Latency:  min %s  p50 %s  p95 %s  p99 %s  max %s  (%.1f req/s)\n",
			ms(o.Min), ms(o.P50), ms(o.P95), ms(o.P99), ms(o.Max), l.RPS)
	}
	fmt.Fprintf(f.writer, "\n")
}

// FormatExchange prints the status line and body of a single call. Headers
// are printed in verbose mode.
func (f *ConsoleFormatter) FormatExchange(ex *Exchange) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	res := ex.Result
	mark := green("✓")
	if res.Err() != nil {
		mark = red("✗")
	}
	fmt.Fprintf(f.writer, "%s %s %s %s %s\n", mark, bold(ex.Method), ex.URL,
		statusText(res.Status()), cyan(fmt.Sprintf("(%dms)", ex.Duration.Milliseconds())))

	if err := res.Err(); err != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("→"), err)
	}

	if f.verbose {
		fmt.Fprintf(f.writer, "  %s %s\n", cyan("id:"), ex.ID)
		if headers := headersOf(res); len(headers) > 0 {
			fmt.Fprintf(f.writer, "  %s\n", cyan("headers:"))
			for _, k := range sortedKeys(headers) {
				fmt.Fprintf(f.writer, "    %s: %s\n", k, headers[k])
			}
		}
	}

	if body := bodyOf(res); body != nil {
		fmt.Fprintf(f.writer, "%s\n", prettyJSON(body))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("teapot"), version)
}

func statusText(code int) string {
	if code == 0 {
		return "[no status]"
	}
	return fmt.Sprintf("%d", code)
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}

func headersOf(res http.Result) map[string]string {
	switch r := res.(type) {
	case *http.Success:
		return r.Headers
	case *http.Failure:
		return r.Headers
	}
	return nil
}

func bodyOf(res http.Result) []byte {
	p := res.Payload()
	if p == nil {
		return nil
	}
	data, err := p.Bytes()
	if err != nil {
		return nil
	}
	return data
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return wirelog.BodyString(data)
	}
	return buf.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
