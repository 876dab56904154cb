package env

import (
	"os"
	"strings"
)

// VariablePrefix marks environment variables exposed to scripts.
// TEAPOT_VAR_token=abc resolves as {{token}}.
const VariablePrefix = "TEAPOT_VAR_"

func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the environment variables starting with prefix,
// keyed by the rest of their name.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}
