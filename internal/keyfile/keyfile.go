// Package keyfile resolves dotted key paths inside JSON or YAML files,
// used by send to pull credentials without putting them on the command
// line.
package keyfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lookup reads path and walks key (dot-separated, e.g.
// "profiles.myserver.password") to a scalar value.
func Lookup(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}

	var root map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return "", fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &root); err != nil {
			return "", fmt.Errorf("parse json: %w", err)
		}
	}

	var cur interface{} = root
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("key %q: %q is not an object", key, part)
		}
		cur, ok = m[part]
		if !ok {
			return "", fmt.Errorf("key %q: %q not found", key, part)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case map[string]interface{}:
		return "", fmt.Errorf("key %q resolves to an object, not a value", key)
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
