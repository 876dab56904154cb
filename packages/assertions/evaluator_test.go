package assertions

import (
	"testing"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newResult() http.Result {
	return &http.Success{
		Data:       payload.FromBytes([]byte(`{"id":7,"name":"teapot","tags":["short","stout"],"ratio":1.5,"active":true,"owner":null}`)),
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

func TestEvaluate(t *testing.T) {
	e := NewEvaluator(newResult(), 120*time.Millisecond)

	tests := []struct {
		name string
		a    Assertion
		pass bool
	}{
		{"status equals", Assertion{Subject: "status", Operator: OpEquals, Expected: 200}, true},
		{"status default op", Assertion{Subject: "status", Expected: 200}, true},
		{"status mismatch", Assertion{Subject: "status", Operator: OpEquals, Expected: 201}, false},
		{"status lt", Assertion{Subject: "status", Operator: OpLessThan, Expected: 300}, true},
		{"duration lte", Assertion{Subject: "duration", Operator: OpLessOrEqual, Expected: 120}, true},
		{"duration gt", Assertion{Subject: "duration", Operator: OpGreaterThan, Expected: 500}, false},
		{"body number", Assertion{Subject: "body.id", Operator: OpEquals, Expected: 7}, true},
		{"bare path", Assertion{Subject: "name", Operator: OpEquals, Expected: "teapot"}, true},
		{"not equals", Assertion{Subject: "name", Operator: OpNotEquals, Expected: "kettle"}, true},
		{"header contains", Assertion{Subject: "header.content-type", Operator: OpContains, Expected: "json"}, true},
		{"not contains", Assertion{Subject: "name", Operator: OpNotContains, Expected: "pot"}, false},
		{"starts with", Assertion{Subject: "name", Operator: OpStartsWith, Expected: "tea"}, true},
		{"ends with", Assertion{Subject: "name", Operator: OpEndsWith, Expected: "pot"}, true},
		{"matches", Assertion{Subject: "name", Operator: OpMatches, Expected: "/^t.+t$/"}, true},
		{"bad regex", Assertion{Subject: "name", Operator: OpMatches, Expected: "("}, false},
		{"exists", Assertion{Subject: "body.tags", Operator: OpExists}, true},
		{"missing exists", Assertion{Subject: "body.nope", Operator: OpExists}, false},
		{"not exists", Assertion{Subject: "body.nope", Operator: OpNotExists}, true},
		{"length", Assertion{Subject: "body.tags", Operator: OpLength, Expected: 2}, true},
		{"length of number", Assertion{Subject: "body.id", Operator: OpLength, Expected: 1}, false},
		{"includes", Assertion{Subject: "body.tags", Operator: OpIncludes, Expected: "stout"}, true},
		{"in", Assertion{Subject: "status", Operator: OpIn, Expected: []any{200, 204}}, true},
		{"not in", Assertion{Subject: "status", Operator: OpIn, Expected: []any{404}}, false},
		{"type number", Assertion{Subject: "body.ratio", Operator: OpType, Expected: "number"}, true},
		{"type boolean", Assertion{Subject: "body.active", Operator: OpType, Expected: "boolean"}, true},
		{"type array", Assertion{Subject: "body.tags", Operator: OpType, Expected: "array"}, true},
		{"type object", Assertion{Subject: "body", Operator: OpType, Expected: "object"}, true},
		{"non-numeric compare", Assertion{Subject: "name", Operator: OpGreaterThan, Expected: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Evaluate(&tt.a)
			assert.Equal(t, tt.pass, r.Passed, r.Message)
			if !tt.pass {
				assert.NotEmpty(t, r.Message)
			}
		})
	}
}

func TestEvaluate_LengthReportsComputedLength(t *testing.T) {
	r := NewEvaluator(newResult(), 0).Evaluate(&Assertion{Subject: "body.tags", Operator: OpLength, Expected: 3})
	assert.False(t, r.Passed)
	assert.Equal(t, 2, r.Actual)
	assert.Equal(t, "expected length 3, got 2", r.Message)
}

func TestEvaluate_Schema(t *testing.T) {
	e := NewEvaluator(newResult(), 0)

	ok := e.Evaluate(&Assertion{Subject: "body", Operator: OpSchema, Expected: map[string]any{
		"type":     "object",
		"required": []any{"id", "name"},
	}})
	assert.True(t, ok.Passed, ok.Message)

	bad := e.Evaluate(&Assertion{Subject: "body", Operator: OpSchema, Expected: map[string]any{
		"type":     "object",
		"required": []any{"missing"},
	}})
	assert.False(t, bad.Passed)
	assert.Contains(t, bad.Message, "schema validation failed")
}

func TestEvaluate_FailureResult(t *testing.T) {
	res := http.NewFailure(http.InvalidResponseStatus(404))
	res.StatusCode = 404

	results := EvaluateAll(res, 0, []*Assertion{
		{Subject: "status", Operator: OpEquals, Expected: 404},
		{Subject: "body.id", Operator: OpExists},
	})
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Same(t, results[1], FirstFailure(results))
}

func TestAssertion_DecodeAndValidate(t *testing.T) {
	var list []*Assertion
	err := yaml.Unmarshal([]byte(`
- {subject: status, op: in, value: [200, 201]}
- {subject: body.id, value: 7}
- {subject: header.X-Trace, op: exists}
`), &list)
	require.NoError(t, err)
	require.Len(t, list, 3)

	for _, a := range list {
		require.NoError(t, a.Validate())
	}
	assert.Equal(t, OpEquals, list[1].Operator)
	assert.Equal(t, "header.X-Trace exists", list[2].String())
	assert.Equal(t, "body.id equals 7", list[1].String())

	results := EvaluateAll(newResult(), 0, list[:2])
	assert.Nil(t, FirstFailure(results))

	assert.Error(t, (&Assertion{Subject: "status", Operator: "roughly"}).Validate())
	assert.Error(t, (&Assertion{Subject: "  "}).Validate())
	assert.Error(t, (&Assertion{Subject: "header"}).Validate())
}
