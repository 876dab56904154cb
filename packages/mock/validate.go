package mock

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/xeipuuv/gojsonschema"
)

// Report is the validation verdict for one fixture.
type Report struct {
	Name   string
	Valid  bool
	Errors []string
}

// ListFixtures returns the names of the fixtures in root, sorted.
func ListFixtures(root fs.FS) ([]string, error) {
	matches, err := fs.Glob(root, "*"+FixtureExt)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, FixtureExt))
	}
	sort.Strings(names)
	return names, nil
}

// LoadSchema compiles a JSON schema document.
func LoadSchema(data []byte) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

// LoadSchemaFile compiles the JSON schema stored at path.
func LoadSchemaFile(path string) (*gojsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return LoadSchema(data)
}

// Validate checks every fixture in root. A fixture must hold exactly one JSON
// object and, when schema is not nil, satisfy it.
func Validate(root fs.FS, schema *gojsonschema.Schema) ([]Report, error) {
	names, err := ListFixtures(root)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(names))
	for _, name := range names {
		report := Report{Name: name, Valid: true}

		data, err := fs.ReadFile(root, name+FixtureExt)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
		}

		if p, ok := payload.Decode(data); !ok || p.Shape() != payload.ShapeObject {
			report.Valid = false
			report.Errors = append(report.Errors, "fixture must contain a single JSON object")
		} else if schema != nil {
			if err := validateDocument(schema, data); err != nil {
				report.Valid = false
				report.Errors = append(report.Errors, err.Error())
			}
		}

		reports = append(reports, report)
	}
	return reports, nil
}

func validateDocument(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(problems, "; "))
}
