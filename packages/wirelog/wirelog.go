// Package wirelog logs request and response traffic through an injected sink.
//
// The sink interface is satisfied out of the box by github.com/apex/log, both
// the package-level log.Log and any *log.Entry.
package wirelog

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Logger is the sink wire logs are written to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// DiscardLogger drops everything.
var DiscardLogger Logger = discard{}

type discard struct{}

func (discard) Debugf(format string, v ...interface{}) {}
func (discard) Infof(format string, v ...interface{}) {}
func (discard) Warnf(format string, v ...interface{}) {}
func (discard) Errorf(format string, v ...interface{}) {}

// Level selects how much traffic is logged. Higher levels log less.
type Level int

const (
	// LevelIncomingAndOutgoing logs requests sent, responses received and errors.
	LevelIncomingAndOutgoing Level = iota
	// LevelIncoming logs responses received and errors.
	LevelIncoming
	// LevelError logs errors only.
	LevelError
	// LevelNone logs nothing. It is the default.
	LevelNone
)

func (l Level) String() string {
	switch l {
	case LevelIncomingAndOutgoing:
		return "all"
	case LevelIncoming:
		return "incoming"
	case LevelError:
		return "error"
	default:
		return "none"
	}
}

// ParseLevel accepts the names produced by Level.String.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "incoming-and-outgoing", "outgoing":
		return LevelIncomingAndOutgoing, nil
	case "incoming":
		return LevelIncoming, nil
	case "error", "errors":
		return LevelError, nil
	case "", "none", "off":
		return LevelNone, nil
	default:
		return LevelNone, fmt.Errorf("unknown log level %q", s)
	}
}

// Wire gates traffic logging by Level.
type Wire struct {
	Logger Logger
	Level  Level
}

// New returns a Wire writing to logger. A nil logger discards.
func New(logger Logger, level Level) *Wire {
	if logger == nil {
		logger = DiscardLogger
	}
	return &Wire{Logger: logger, Level: level}
}

// Disabled is a Wire that never logs.
func Disabled() *Wire {
	return New(nil, LevelNone)
}

func (w *Wire) enabled(at Level) bool {
	return w != nil && at >= w.Level && w.Level != LevelNone
}

// Outgoing logs a request about to be sent. It reports whether it logged.
func (w *Wire) Outgoing(id, method, url string, headers map[string]string, body []byte) bool {
	if !w.enabled(LevelIncomingAndOutgoing) {
		return false
	}
	w.Logger.Debugf("teapot: [%s] sending %s %s\nheaders:\n\t%s\ncontents:\n\t%s",
		id, method, url, HeaderString(headers), BodyString(body))
	return true
}

// Incoming logs a response received. It reports whether it logged.
func (w *Wire) Incoming(id string, status int, headers map[string]string, body []byte) bool {
	if !w.enabled(LevelIncoming) {
		return false
	}
	w.Logger.Infof("teapot: [%s] received data\nstatus: %d\nheaders:\n\t%s\ncontents:\n\t%s",
		id, status, HeaderString(headers), BodyString(body))
	return true
}

// Error logs a failed exchange. status 0 means no response was received.
func (w *Wire) Error(id string, status int, headers map[string]string, body []byte, err error) bool {
	if !w.enabled(LevelError) {
		return false
	}
	if status == 0 {
		w.Logger.Errorf("teapot: [%s] no response\nerror:\n\t%v", id, err)
		return true
	}
	w.Logger.Errorf("teapot: [%s] received error\nstatus: %d\nerror:\n\t%v\nheaders:\n\t%s\ncontents:\n\t%s",
		id, status, err, HeaderString(headers), BodyString(body))
	return true
}

// BuildError logs a request that could not be built, so nothing was sent.
func (w *Wire) BuildError(id, method, path string, err error) bool {
	if !w.enabled(LevelError) {
		return false
	}
	w.Logger.Errorf("teapot: [%s] could not build %s %s\nerror:\n\t%v", id, method, path, err)
	return true
}

// BodyString renders a body for logs.
func BodyString(data []byte) string {
	if data == nil {
		return "[no data]"
	}
	if !utf8.Valid(data) {
		return "[data not convertible to UTF-8 string]"
	}
	return string(data)
}

// HeaderString renders headers for logs, one per line in key order.
func HeaderString(headers map[string]string) string {
	if len(headers) == 0 {
		return "[no headers available]"
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+headers[k])
	}
	return strings.Join(lines, "\n\t")
}
