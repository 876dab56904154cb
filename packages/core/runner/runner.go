package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/teapot/packages/assertions"
	"github.com/abdul-hamid-achik/teapot/packages/capture"
	"github.com/abdul-hamid-achik/teapot/packages/core/env"
	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
)

type Config struct {
	// Rate limits requests per second across the run. Zero means unlimited.
	Rate float64
	// Repeat runs the whole script this many times. Values below 1 mean once.
	Repeat int
	// Bail stops the run at the first failed request.
	Bail bool
	// Variables seed {{...}} resolution. Script variables override them.
	Variables map[string]any
	Logger    wirelog.Logger
}

// Runner runs one script at a time.
type Runner struct {
	client  *teapot.Client
	config  *Config
	limiter *rate.Limiter
	logger  wirelog.Logger

	resolver *env.Resolver
}

func NewRunner(client *teapot.Client, cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	r := &Runner{
		client: client,
		config: cfg,
		logger: cfg.Logger,
	}
	if r.logger == nil {
		r.logger = wirelog.DiscardLogger
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

type RunResult struct {
	Script   string            `json:"script"`
	Results  []*RequestResult  `json:"results"`
	Duration time.Duration     `json:"duration"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Latency  *Summary          `json:"latency"`
	Captures map[string]string `json:"captures,omitempty"`
}

// OK reports whether every request passed.
func (r *RunResult) OK() bool {
	return r.Failed == 0
}

type RequestResult struct {
	Name      string         `json:"name"`
	Iteration int            `json:"iteration"`
	Method    string         `json:"method"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Passed    bool           `json:"passed"`
	Duration  time.Duration  `json:"duration"`
	Captures  map[string]any `json:"captures,omitempty"`
	// Assertions holds one result per step assertion, in order.
	Assertions []*assertions.Result `json:"assertions,omitempty"`
	Error      error                `json:"-"`
	// Result is nil when the request never settled.
	Result http.Result `json:"-"`
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	script, err := LoadScript(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, script)
}

// Run executes every step of script in order, Repeat times. Captures from a
// step are visible to the steps after it. The returned error is non-nil only
// when the run could not proceed, such as ctx ending or waitFor timing out;
// request failures are reported in the result.
func (r *Runner) Run(ctx context.Context, script *Script) (*RunResult, error) {
	resolver := env.NewResolver()
	resolver.SetWarnFunc(r.logger.Warnf)
	resolver.SetVariables(r.config.Variables)
	resolver.SetVariables(script.Variables)
	r.resolver = resolver

	name := script.Name
	if name == "" {
		name = script.Path
	}
	result := &RunResult{Script: name}
	metrics := NewMetrics()
	captured := make(map[string]string)
	start := time.Now()
	defer func() {
		metrics.Stop()
		result.Duration = time.Since(start)
		result.Latency = metrics.Summary(false)
		if len(captured) > 0 {
			result.Captures = captured
		}
	}()

	if err := r.waitForService(ctx, script.WaitFor); err != nil {
		return result, err
	}

	repeat := r.config.Repeat
	if repeat < 1 {
		repeat = 1
	}

	metrics.Start()
	for iter := 1; iter <= repeat; iter++ {
		for _, step := range script.Requests {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if r.limiter != nil {
				if err := r.limiter.Wait(ctx); err != nil {
					return result, err
				}
			}

			rr := r.runStep(ctx, script, step, iter)
			result.Results = append(result.Results, rr)
			metrics.Record(step.Name, rr.Duration, !rr.Passed)
			for k, v := range rr.Captures {
				captured[step.Name+"."+k] = capture.Stringify(v)
			}

			if rr.Passed {
				result.Passed++
				r.logger.Debugf("%s #%d passed (%d, %v)", step.Name, iter, rr.Status, rr.Duration)
				continue
			}
			result.Failed++
			r.logger.Warnf("%s #%d failed: %v", step.Name, iter, rr.Error)
			if r.config.Bail {
				return result, nil
			}
		}
	}
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, script *Script, step *Step, iter int) *RequestResult {
	rr := &RequestResult{
		Name:      step.Name,
		Iteration: iter,
		Method:    step.Method,
		Path:      r.resolver.Resolve(step.Path),
	}

	headers := make(map[string]string, len(script.Headers)+len(step.Headers))
	for k, v := range script.Headers {
		headers[k] = v
	}
	for k, v := range step.Headers {
		headers[k] = v
	}

	body, err := toPayload(r.resolver.ResolveValue(step.Body))
	if err != nil {
		rr.Error = fmt.Errorf("request %q body: %w", step.Name, err)
		return rr
	}

	captures, err := parseCaptures(step.Captures)
	if err != nil {
		rr.Error = fmt.Errorf("request %q: %w", step.Name, err)
		return rr
	}

	opts := []teapot.CallOption{
		teapot.WithHeaders(r.resolver.ResolveAll(headers)),
		teapot.WithContext(ctx),
		teapot.WithDeliveryContext(delivery.Immediate),
	}
	if step.Timeout > 0 {
		opts = append(opts, teapot.WithTimeout(time.Duration(step.Timeout)*time.Millisecond))
	}

	start := time.Now()
	res, err := r.client.Do(step.Method, rr.Path, body, nil, opts...).Await(ctx)
	rr.Duration = time.Since(start)
	if err != nil {
		rr.Error = err
		return rr
	}

	rr.Result = res
	rr.Status = res.Status()
	rr.Passed, rr.Error = evaluate(step, res)
	if len(step.Assert) > 0 {
		rr.Assertions = assertions.EvaluateAll(res, rr.Duration, r.resolveAssertions(step.Assert))
		if failed := assertions.FirstFailure(rr.Assertions); failed != nil && rr.Passed {
			rr.Passed = false
			rr.Error = fmt.Errorf("assertion failed: %s %s: %s", failed.Subject, failed.Operator, failed.Message)
		}
	}

	if len(captures) > 0 {
		rr.Captures = capture.ExtractAll(res, rr.Duration, captures)
		for _, c := range captures {
			v, ok := rr.Captures[c.Name]
			if !ok {
				r.logger.Warnf("%s: capture %s not found", step.Name, c.Name)
				continue
			}
			r.resolver.SetCapture(step.Name, c.Name, v)
		}
	}
	return rr
}

// evaluate applies the step's status expectation. Without one, any Success
// passes.
func evaluate(step *Step, res http.Result) (bool, error) {
	if step.ExpectStatus == 0 {
		return res.Err() == nil, res.Err()
	}
	if res.Status() == step.ExpectStatus {
		return true, nil
	}
	if err := res.Err(); err != nil {
		return false, fmt.Errorf("expected status %d, got %d: %w", step.ExpectStatus, res.Status(), err)
	}
	return false, fmt.Errorf("expected status %d, got %d", step.ExpectStatus, res.Status())
}

func (r *Runner) resolveAssertions(list []*assertions.Assertion) []*assertions.Assertion {
	resolved := make([]*assertions.Assertion, 0, len(list))
	for _, a := range list {
		resolved = append(resolved, &assertions.Assertion{
			Subject:  a.Subject,
			Operator: a.Operator,
			Expected: r.resolver.ResolveValue(a.Expected),
		})
	}
	return resolved
}

func parseCaptures(exprs map[string]string) ([]*capture.Capture, error) {
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	captures := make([]*capture.Capture, 0, len(names))
	for _, name := range names {
		c, err := capture.Parse(name, exprs[name])
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, nil
}

// toPayload converts a decoded script body. Maps become objects, lists of
// maps become arrays and strings are sent as raw bytes.
func toPayload(v any) (*payload.Payload, error) {
	switch body := v.(type) {
	case nil:
		return nil, nil
	case string:
		return payload.NewBytes([]byte(body)), nil
	case map[string]any:
		return payload.FromMap(body)
	case []any:
		items := make([]map[string]any, 0, len(body))
		for i, item := range body {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want an object", i, item)
			}
			items = append(items, m)
		}
		return payload.FromMaps(items)
	default:
		return nil, fmt.Errorf("unsupported body type %T", v)
	}
}
