package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/capture"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/xeipuuv/gojsonschema"
)

type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "notContains"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpMatches        Operator = "matches"
	OpExists         Operator = "exists"
	OpNotExists      Operator = "notExists"
	OpLength         Operator = "length"
	OpIncludes       Operator = "includes"
	OpIn             Operator = "in"
	OpType           Operator = "type"
	OpSchema         Operator = "schema"
)

var operators = map[Operator]bool{
	OpEquals: true, OpNotEquals: true, OpGreaterThan: true, OpGreaterOrEqual: true,
	OpLessThan: true, OpLessOrEqual: true, OpContains: true, OpNotContains: true,
	OpStartsWith: true, OpEndsWith: true, OpMatches: true, OpExists: true,
	OpNotExists: true, OpLength: true, OpIncludes: true, OpIn: true, OpType: true,
	OpSchema: true,
}

// Assertion is one expectation on a step result.
//
//	assert:
//	  - {subject: status, op: lt, value: 300}
//	  - {subject: body.items, op: length, value: 3}
//	  - {subject: header.Content-Type, op: contains, value: json}
type Assertion struct {
	Subject  string   `yaml:"subject" json:"subject"`
	Operator Operator `yaml:"op" json:"op"`
	Expected any      `yaml:"value,omitempty" json:"value,omitempty"`
}

// Validate checks the subject parses and the operator is known. An empty
// operator is treated as equals.
func (a *Assertion) Validate() error {
	if a.Operator == "" {
		a.Operator = OpEquals
	}
	if !operators[a.Operator] {
		return fmt.Errorf("unknown operator %q", a.Operator)
	}
	if _, err := subject(a.Subject); err != nil {
		return err
	}
	return nil
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return fmt.Sprintf("%s %s", a.Subject, a.Operator)
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

type Result struct {
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
}

type Evaluator struct {
	extractor *capture.Extractor
}

func NewEvaluator(result http.Result, duration time.Duration) *Evaluator {
	return &Evaluator{extractor: capture.NewExtractor(result, duration)}
}

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	op := a.Operator
	if op == "" {
		op = OpEquals
	}
	result := &Result{
		Subject:  a.Subject,
		Operator: string(op),
		Expected: a.Expected,
	}

	c, err := subject(a.Subject)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	actual, _ := e.extractor.Extract(c)
	result.Actual = actual

	result.Passed, result.Message = compare(actual, op, a.Expected)
	if op == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

func EvaluateAll(result http.Result, duration time.Duration, list []*Assertion) []*Result {
	e := NewEvaluator(result, duration)
	results := make([]*Result, 0, len(list))
	for _, a := range list {
		results = append(results, e.Evaluate(a))
	}
	return results
}

// FirstFailure returns the first failed result, or nil.
func FirstFailure(results []*Result) *Result {
	for _, r := range results {
		if !r.Passed {
			return r
		}
	}
	return nil
}

func subject(s string) (*capture.Capture, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("assertion has no subject")
	}
	source, _, _ := strings.Cut(s, ".")
	switch source {
	case "body", "header", "status", "duration":
	default:
		s = "body." + s
	}
	return capture.Parse(s, s)
}

func compare(actual any, op Operator, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equals(actual, expected)
	case OpNotEquals:
		if passed, _ := equals(actual, expected); passed {
			return false, fmt.Sprintf("expected not to equal %v", expected)
		}
		return true, ""
	case OpGreaterThan:
		return compareNumeric(actual, expected, ">")
	case OpGreaterOrEqual:
		return compareNumeric(actual, expected, ">=")
	case OpLessThan:
		return compareNumeric(actual, expected, "<")
	case OpLessOrEqual:
		return compareNumeric(actual, expected, "<=")
	case OpContains:
		return contains(actual, expected)
	case OpNotContains:
		if passed, _ := contains(actual, expected); passed {
			return false, fmt.Sprintf("expected not to contain %v", expected)
		}
		return true, ""
	case OpStartsWith:
		if strings.HasPrefix(capture.Stringify(actual), capture.Stringify(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to start with '%v'", actual, expected)
	case OpEndsWith:
		if strings.HasSuffix(capture.Stringify(actual), capture.Stringify(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to end with '%v'", actual, expected)
	case OpMatches:
		return matches(actual, expected)
	case OpExists:
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case OpNotExists:
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case OpLength:
		return length(actual, expected)
	case OpIncludes:
		return includes(actual, expected)
	case OpIn:
		return in(actual, expected)
	case OpType:
		if got := typeName(actual); got != fmt.Sprint(expected) {
			return false, fmt.Sprintf("expected type %v, got %s", expected, got)
		}
		return true, ""
	case OpSchema:
		return schema(actual, expected)
	default:
		return false, fmt.Sprintf("unknown operator: %v", op)
	}
}

// equals compares deeply, then numerically, then by rendered string, so a
// YAML 200 matches a status of 200 and a JSON 1.0 matches 1.
func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	a, aok := toFloat64(actual)
	b, bok := toFloat64(expected)
	if aok && bok && a == b {
		return true, ""
	}
	if actual != nil && capture.Stringify(actual) == capture.Stringify(expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func compareNumeric(actual, expected any, op string) (bool, string) {
	a, aok := toFloat64(actual)
	b, bok := toFloat64(expected)
	if !aok || !bok {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case ">":
		passed = a > b
	case ">=":
		passed = a >= b
	case "<":
		passed = a < b
	case "<=":
		passed = a <= b
	}
	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func contains(actual, expected any) (bool, string) {
	if actual != nil && strings.Contains(capture.Stringify(actual), capture.Stringify(expected)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to contain '%v'", actual, expected)
}

func matches(actual, expected any) (bool, string) {
	pattern := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprint(expected), "/"), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	if re.MatchString(capture.Stringify(actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%s/", actual, pattern)
}

// computeLength returns -1 when actual has no length.
func computeLength(actual any) int {
	switch v := actual.(type) {
	case string:
		return len(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		return -1
	}
}

func length(actual, expected any) (bool, string) {
	want, ok := toFloat64(expected)
	if !ok {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := computeLength(actual)
	if got == -1 {
		return false, fmt.Sprintf("cannot get length of %T", actual)
	}
	if float64(got) == want {
		return true, ""
	}
	return false, fmt.Sprintf("expected length %v, got %d", expected, got)
}

func includes(actual, expected any) (bool, string) {
	arr, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	for _, item := range arr {
		if passed, _ := equals(item, expected); passed {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected array to include %v", expected)
}

func in(actual, expected any) (bool, string) {
	arr, ok := expected.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'in' operator, got %T", expected)
	}
	for _, item := range arr {
		if passed, _ := equals(actual, item); passed {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected %v to be in %v", actual, expected)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

// schema validates actual against an inline JSON schema given as a map.
func schema(actual, expected any) (bool, string) {
	def, ok := expected.(map[string]any)
	if !ok {
		return false, fmt.Sprintf("schema must be an object, got %T", expected)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(def), gojsonschema.NewGoLoader(actual))
	if err != nil {
		return false, fmt.Sprintf("invalid schema: %v", err)
	}
	if result.Valid() {
		return true, ""
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return false, "schema validation failed: " + strings.Join(msgs, "; ")
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
