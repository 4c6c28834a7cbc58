// Package config implements the hierarchical dotted-key configuration
// tree from §6: ten recognized top-level paths, loaded from JSON with an
// environment-variable overlay, matching the teacher's getEnv fallback
// chain generalized from flat env vars to dotted paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TopLevelPaths are the only recognized first path segments; any other
// path is rejected at Set/merge time.
var TopLevelPaths = map[string]bool{
	"connector":  true,
	"driver":     true,
	"schema":     true,
	"batch":      true,
	"executor":   true,
	"codec":      true,
	"log":        true,
	"monitoring": true,
	"engine":     true,
	"stats":      true,
}

// Tree is the hierarchical configuration tree. The zero value is an
// empty, usable tree.
type Tree struct {
	root map[string]interface{}
}

// New builds an empty Tree.
func New() *Tree {
	return &Tree{root: make(map[string]interface{})}
}

// Load reads a JSON configuration document from path and merges it into
// a new Tree.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	t := New()
	if err := t.merge(doc); err != nil {
		return nil, err
	}
	return t, nil
}

// merge validates and copies doc's top-level keys into the tree.
func (t *Tree) merge(doc map[string]interface{}) error {
	for k, v := range doc {
		if !TopLevelPaths[k] {
			return fmt.Errorf("config: unrecognized top-level path %q", k)
		}
		t.root[k] = v
	}
	return nil
}

// ApplyEnvOverlay overlays environment variables of the form
// PREFIX_CONNECTOR_CSV_URL onto the dotted path connector.csv.url,
// matching the teacher's env-var fallback chain (internal/data/conn.go's
// getEnv) generalized from flat names to dotted hierarchy. Existing
// values already set in the tree are overridden; unset env vars leave
// the tree untouched.
func (t *Tree) ApplyEnvOverlay(prefix string) {
	prefix = strings.ToUpper(prefix) + "_"
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], prefix) {
			continue
		}
		name := strings.TrimPrefix(parts[0], prefix)
		path := strings.ToLower(strings.ReplaceAll(name, "_", "."))
		segs := strings.Split(path, ".")
		if !TopLevelPaths[segs[0]] {
			continue
		}
		// Reuse the case of keys already in the tree so the override
		// replaces an existing camelCase value instead of sitting beside it.
		node := t.root
		for i, seg := range segs {
			for k := range node {
				if strings.EqualFold(k, seg) {
					segs[i] = k
					break
				}
			}
			next, ok := node[segs[i]].(map[string]interface{})
			if !ok {
				break
			}
			node = next
		}
		_ = t.Set(strings.Join(segs, "."), parts[1])
	}
}

// Set writes value at a dotted path, resolving short aliases first and
// rejecting paths outside the recognized top-level namespaces.
func (t *Tree) Set(path string, value interface{}) error {
	path = ResolveAlias(path)
	segments := strings.Split(path, ".")
	if len(segments) == 0 || !TopLevelPaths[segments[0]] {
		return fmt.Errorf("config: unrecognized path %q", path)
	}

	node := t.root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			node[seg] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
	return nil
}

// Get returns the raw value at a dotted path and whether it was present.
// A segment with no exact match falls back to a case-insensitive match,
// so values ApplyEnvOverlay stored under lower-cased paths are found under
// their camelCase names.
func (t *Tree) Get(path string) (interface{}, bool) {
	path = ResolveAlias(path)
	segments := strings.Split(path, ".")
	var node interface{} = t.root
	for _, seg := range segments {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		next, ok := m[seg]
		if !ok {
			for k, v := range m {
				if strings.EqualFold(k, seg) {
					next, ok = v, true
					break
				}
			}
		}
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// GetString returns the value at path as a string, or def if absent.
func (t *Tree) GetString(path, def string) string {
	v, ok := t.Get(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// GetInt returns the value at path as an int, or def if absent or
// unparsable. Accepts both numeric JSON values and numeric strings (the
// latter from env-var overlays, which are always strings).
func (t *Tree) GetInt(path string, def int) int {
	v, ok := t.Get(path)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// GetBool returns the value at path as a bool, or def if absent or
// unparsable.
func (t *Tree) GetBool(path string, def bool) bool {
	v, ok := t.Get(path)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// GetFloat returns the value at path as a float64, or def if absent or
// unparsable.
func (t *Tree) GetFloat(path string, def float64) float64 {
	v, ok := t.Get(path)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}
