// Package output renders script runs and single exchanges.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Both implement Formatter. The JSON formatter accumulates results and
// writes them on Flush.
package output
