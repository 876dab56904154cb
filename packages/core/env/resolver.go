package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/teapot/packages/builtin"
	"github.com/abdul-hamid-achik/teapot/packages/capture"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{...}} expressions in script values. An expression is
// looked up, in order, as $ENV_VAR, a builtin call, a capture and a variable.
// Resolver is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	captures  map[string]any
	funcs     *builtin.Registry
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		captures:  make(map[string]any),
		funcs:     builtin.NewRegistry(),
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetCapture stores a value captured by requestName. It resolves both as
// {{requestName.captureName}} and {{captureName}}.
func (r *Resolver) SetCapture(requestName, captureName string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requestName != "" {
		r.captures[requestName+"."+captureName] = value
	}
	r.captures[captureName] = value
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if strings.HasPrefix(expr, "$") {
		if val, ok := os.LookupEnv(expr[1:]); ok {
			return val, true
		}
		return "", false
	}

	if strings.Contains(expr, "(") {
		val, ok, err := r.funcs.Call(expr)
		if err != nil {
			r.warn("%v", err)
			return "", false
		}
		if ok {
			return capture.Stringify(val), true
		}
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if val, ok := r.captures[expr]; ok {
		return capture.Stringify(val), true
	}
	if val, ok := r.variables[expr]; ok {
		return capture.Stringify(val), true
	}
	return "", false
}

// Resolve substitutes every expression it can. Unresolved expressions are
// left in place and reported through the warn function.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		r.warn("unresolved variable: %s", expr)
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// ResolveValue substitutes expressions in every string inside v, which is
// a decoded YAML or JSON value.
func (r *Resolver) ResolveValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.Resolve(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.ResolveValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.ResolveValue(item)
		}
		return out
	default:
		return v
	}
}

// GetUnresolvedVariables returns the expressions in input that do not
// resolve, in order of appearance.
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var unresolved []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if _, ok := r.lookup(expr); !ok {
			unresolved = append(unresolved, expr)
		}
	}
	return unresolved
}

func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	return nil, false
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	for k, v := range r.captures {
		clone.captures[k] = v
	}
	clone.warnFunc = r.warnFunc
	return clone
}

// String lists the known names, for debugging.
func (r *Resolver) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Resolver{variables: %d, captures: %d}", len(r.variables), len(r.captures))
}
