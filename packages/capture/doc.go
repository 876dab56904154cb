// Package capture extracts values from request results for use in later
// requests.
//
// It supports capturing values from:
//   - the JSON payload (gjson paths)
//   - response headers
//   - the status code and the call duration
//
// Captured values are substituted into later script requests through the
// {{name}} syntax.
package capture
