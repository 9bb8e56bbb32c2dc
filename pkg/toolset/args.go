package toolset

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseArguments turns the LLM's raw tool-call arguments into a map by
// a three-step (plus fallback) rule:
//
//  1. already a map -> accept.
//  2. a string that strict-JSON-parses to a map -> accept.
//  3. a string, and the schema declares exactly one required string
//     property -> wrap the raw string under that property.
//  4. otherwise -> fail.
func ParseArguments(raw any, schema map[string]any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case nil:
		return map[string]any{}, nil
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return decoded, nil
		}
		if prop, ok := soleRequiredStringProperty(schema); ok {
			return map[string]any{prop: v}, nil
		}
		return nil, fmt.Errorf("arguments %q are neither a JSON object nor a single-string-property tool's bare command", v)
	default:
		return nil, fmt.Errorf("arguments of type %T are not supported", raw)
	}
}

// soleRequiredStringProperty reports the tool's one required string
// property, if its schema declares exactly one.
func soleRequiredStringProperty(schema map[string]any) (string, bool) {
	if schema == nil {
		return "", false
	}
	required, _ := schema["required"].([]any)
	if len(required) != 1 {
		return "", false
	}
	name, ok := required[0].(string)
	if !ok {
		return "", false
	}
	props, _ := schema["properties"].(map[string]any)
	prop, ok := props[name].(map[string]any)
	if !ok {
		return "", false
	}
	if t, _ := prop["type"].(string); t != "string" {
		return "", false
	}
	return name, true
}

// CanonicalKey builds a deterministic cache key for (toolName, args) by
// key-sorting the JSON encoding. Number representation is left to
// whatever encoding/json produces for the given Go values.
func CanonicalKey(toolName string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]struct {
		K string `json:"k"`
		V any    `json:"v"`
	}, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, struct {
			K string `json:"k"`
			V any    `json:"v"`
		}{K: k, V: args[k]})
	}

	raw, _ := json.Marshal(ordered)
	return toolName + "\x00" + string(raw)
}
