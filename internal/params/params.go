// Package params reads loosely typed argument maps, as decoded from YAML
// step files and MCP tool calls.
package params

import "fmt"

// String returns params[key] as a string, formatting scalars that YAML or
// JSON decoded as other types.
func String(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		// Handle numeric values that YAML may parse as int/float
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

// Int returns params[key] as an int.
func Int(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

// Bool returns params[key] as a bool.
func Bool(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// Has reports whether key is present with a non-nil value.
func Has(params map[string]interface{}, key string) bool {
	v, ok := params[key]
	return ok && v != nil
}
