// Package cmd implements the teapot CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, delete: Send a single request
//   - image: Download and decode an image
//   - run: Execute request scripts, optionally on every file change
//   - validate, list: Check scripts without sending requests
//   - fixtures: List, validate, serve or record a fixture directory
//   - init: Create a config file, a fixture and an example script
//   - version: Show teapot version information
//   - completion: Generate shell completion scripts
//
// Requests go to --base-url, or to the fixtures in --fixtures when set.
// Settings come from .teapot.yaml, TEAPOT_* variables and flags, in
// increasing precedence.
package cmd
