package sensor

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Value is either a nested Tree or a scalar leaf.
type Value struct {
	Tree   Tree
	Scalar any // json.Number, float64, string, bool, nil or []any
}

// IsTree reports whether v holds nested structure.
func (v Value) IsTree() bool { return v.Tree != nil }

// Tree is a generic key -> (scalar | tree) mapping with no domain meaning.
type Tree map[string]Value

// Keys returns the tree's keys in lexical order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseTree decodes structured sensor output into a Tree. The root must be
// an object; anything else makes the whole source unavailable.
func ParseTree(data []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, unavailable("decode sensor output: %v", err)
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, unavailable("unexpected sensor output: root is %T, want object", root)
	}
	return toTree(obj), nil
}

func toTree(obj map[string]any) Tree {
	t := make(Tree, len(obj))
	for k, raw := range obj {
		if nested, ok := raw.(map[string]any); ok {
			t[k] = Value{Tree: toTree(nested)}
			continue
		}
		t[k] = Value{Scalar: raw}
	}
	return t
}
