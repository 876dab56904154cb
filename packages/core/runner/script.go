package runner

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/teapot/packages/assertions"
)

// Script is a named sequence of requests loaded from YAML.
//
//	name: users
//	variables:
//	  user: admin
//	requests:
//	  - name: login
//	    method: POST
//	    path: /login
//	    body: {user: "{{user}}"}
//	    expectStatus: 200
//	    captures:
//	      token: body.token
//	  - name: profile
//	    assert:
//	      - {subject: body.name, op: equals, value: "{{user}}"}
//	    path: /users/{{user}}
//	    headers:
//	      Authorization: Bearer {{login.token}}
type Script struct {
	Name      string            `yaml:"name,omitempty" json:"name,omitempty"`
	Variables map[string]any    `yaml:"variables,omitempty" json:"variables,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	WaitFor   *WaitFor          `yaml:"waitFor,omitempty" json:"waitFor,omitempty"`
	Requests  []*Step           `yaml:"requests" json:"requests"`

	// Path is the file the script was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// Step is a single request in a script. Path, header values and string
// leaves of Body may contain {{...}} expressions.
type Step struct {
	Name         string            `yaml:"name" json:"name"`
	Method       string            `yaml:"method,omitempty" json:"method,omitempty"`
	Path         string            `yaml:"path" json:"path"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body         any               `yaml:"body,omitempty" json:"body,omitempty"`
	ExpectStatus int               `yaml:"expectStatus,omitempty" json:"expectStatus,omitempty"`
	Captures     map[string]string `yaml:"captures,omitempty" json:"captures,omitempty"`
	// Assert is checked after the status expectation. String values may contain
	// {{...}} expressions.
	Assert []*assertions.Assertion `yaml:"assert,omitempty" json:"assert,omitempty"`
	// Timeout in milliseconds. Zero uses the client default.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// WaitFor polls Path until it answers with Status before any step runs.
type WaitFor struct {
	Path     string `yaml:"path" json:"path"`
	Status   int    `yaml:"status,omitempty" json:"status,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Interval int    `yaml:"interval,omitempty" json:"interval,omitempty"`
}

var methods = map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true}

// ParseScript decodes and validates a YAML (or JSON) script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Validate normalizes methods and checks that step names are present and
// unique, and that captures and assertions parse.
func (s *Script) Validate() error {
	if len(s.Requests) == 0 {
		return fmt.Errorf("script has no requests")
	}
	seen := make(map[string]bool, len(s.Requests))
	for i, step := range s.Requests {
		if step == nil {
			return fmt.Errorf("request %d is empty", i+1)
		}
		if step.Name == "" {
			return fmt.Errorf("request %d has no name", i+1)
		}
		if seen[step.Name] {
			return fmt.Errorf("duplicate request name %q", step.Name)
		}
		seen[step.Name] = true

		step.Method = strings.ToUpper(strings.TrimSpace(step.Method))
		if step.Method == "" {
			step.Method = "GET"
		}
		if !methods[step.Method] {
			return fmt.Errorf("request %q: unsupported method %s", step.Name, step.Method)
		}
		if step.ExpectStatus != 0 && (step.ExpectStatus < 100 || step.ExpectStatus > 599) {
			return fmt.Errorf("request %q: expectStatus %d out of range", step.Name, step.ExpectStatus)
		}
		if step.Timeout < 0 {
			return fmt.Errorf("request %q: negative timeout", step.Name)
		}
		if _, err := parseCaptures(step.Captures); err != nil {
			return fmt.Errorf("request %q: %w", step.Name, err)
		}
		for j, a := range step.Assert {
			if a == nil {
				return fmt.Errorf("request %q: assertion %d is empty", step.Name, j+1)
			}
			if err := a.Validate(); err != nil {
				return fmt.Errorf("request %q: assertion %d: %w", step.Name, j+1, err)
			}
		}
	}
	if s.WaitFor != nil && s.WaitFor.Path == "" {
		return fmt.Errorf("waitFor needs a path")
	}
	return nil
}
