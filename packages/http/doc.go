// Package http builds, sends and classifies teapot requests.
//
// A call goes through three stages:
//   - BuildRequest turns a base URL, path, headers and payload into an
//     immutable Request
//   - a Transport executes the Request and reports a raw Outcome
//   - Classify maps the Outcome onto a Success or Failure
//
// Client is the Transport backed by net/http. The fixture-backed Transport
// lives in the mock package and produces Outcomes as well, so classification
// is the same for live and mocked calls.
package http
