// Package env resolves {{...}} expressions in request scripts.
//
// It provides functionality for:
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - Built-in function evaluation (uuid, basicAuth, timestamp, etc.)
//   - Capturing and resolving values from previous requests
package env
