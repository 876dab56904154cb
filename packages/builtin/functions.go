package builtin

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/google/uuid"
)

// Func computes a value from its string arguments.
type Func func(args []string) (any, error)

// Registry maps function names to implementations.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["basicAuth"] = funcBasicAuth
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["date"] = funcDate
	r.funcs["env"] = funcEnv
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as uuid() or basicAuth("admin", "pw").
// ok is false when expr is not a call to a registered function.
func (r *Registry) Call(expr string) (value any, ok bool, err error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return nil, false, nil
	}

	fn, found := r.funcs[matches[1]]
	if !found {
		return nil, false, nil
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	value, err = fn(args)
	if err != nil {
		return nil, true, fmt.Errorf("%s(): %w", matches[1], err)
	}
	return value, true, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func funcNow(_ []string) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(_ []string) (any, error) {
	return time.Now().Unix(), nil
}

func funcTimestampMs(_ []string) (any, error) {
	return time.Now().UnixMilli(), nil
}

func funcUUID(_ []string) (any, error) {
	return uuid.NewString(), nil
}

func funcRandom(args []string) (any, error) {
	min, max := 0, 100
	if len(args) >= 2 {
		var err error
		if min, err = strconv.Atoi(args[0]); err != nil {
			return nil, fmt.Errorf("min %q is not an integer", args[0])
		}
		if max, err = strconv.Atoi(args[1]); err != nil {
			return nil, fmt.Errorf("max %q is not an integer", args[1])
		}
	}
	if max < min {
		return nil, fmt.Errorf("max %d is below min %d", max, min)
	}
	return rand.Intn(max-min+1) + min, nil
}

func funcRandomString(args []string) (any, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("length %q is not a positive integer", args[0])
		}
		length = v
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcBase64(args []string) (any, error) {
	if len(args) < 1 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcBasicAuth(args []string) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected user and password, got %d arguments", len(args))
	}
	return http.BasicAuthValue(args[0], args[1]), nil
}

func funcURLEncode(args []string) (any, error) {
	if len(args) < 1 {
		return "", nil
	}
	return url.QueryEscape(args[0]), nil
}

func funcDate(args []string) (any, error) {
	format := "2006-01-02"
	if len(args) >= 1 {
		format = args[0]
	}
	return time.Now().UTC().Format(format), nil
}

func funcEnv(args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("variable name is missing")
	}
	return os.Getenv(args[0]), nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
