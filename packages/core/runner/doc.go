// Package runner executes request scripts through a teapot client.
//
// A script is a YAML list of named requests. Steps run in order; values
// captured from one response are substituted into later steps with
// {{step.name}} expressions. The runner can pace requests with a rate
// limiter, repeat the script and summarize latencies in a histogram.
package runner
