package config

import (
	"os"
	"regexp"
	"strings"
)

var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	envSimple      = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvVars resolves ${VAR}, ${VAR:-default}, and bare $VAR
// references against the process environment, in that precedence
// order, mirroring the teacher's config/env.go.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefault.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})

	s = envBraced.ReplaceAllStringFunc(s, func(match string) string {
		parts := envBraced.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	s = envSimple.ReplaceAllStringFunc(s, func(match string) string {
		parts := envSimple.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	return s
}

// expandEnvVarsInData walks a decoded YAML tree (the shape
// gopkg.in/yaml.v3 produces: map[string]any, []any, scalars) and
// expands environment references in every string leaf.
func expandEnvVarsInData(data any) any {
	switch v := data.(type) {
	case string:
		return expandEnvVars(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = expandEnvVarsInData(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = expandEnvVarsInData(item)
		}
		return out
	default:
		return v
	}
}
