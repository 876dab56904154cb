package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
	"github.com/abdul-hamid-achik/teapot/packages/http"
)

// Exchange is a single request and the result delivered for it.
type Exchange struct {
	ID       string
	Method   string
	URL      string
	Result   http.Result
	Duration time.Duration
}

type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *runner.RunResult)
	FormatExchange(ex *Exchange)
	FormatError(err error)
}

// Flushable is implemented by formatters that buffer output.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// New returns the formatter registered under name.
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// Flush flushes f if it buffers output.
func Flush(f Formatter, totalDuration time.Duration) error {
	if fl, ok := f.(Flushable); ok {
		return fl.Flush(totalDuration)
	}
	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
