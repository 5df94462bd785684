package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is a single directive and its value as it appeared in the source.
type Entry struct {
	Key   string
	Value any
}

// Record is an ordered mapping of directive name to a scalar or a list of
// scalars. Iteration follows insertion order.
type Record struct {
	entries []Entry
	index   map[string]int
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Set stores value under key. Re-setting an existing key replaces the value
// but keeps its original position.
func (r *Record) Set(key string, value any) *Record {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	value = normalize(value)
	if i, ok := r.index[key]; ok {
		r.entries[i].Value = value
		return r
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry{Key: key, Value: value})
	return r
}

// Append adds value under key, turning an existing scalar into a list.
func (r *Record) Append(key string, value any) *Record {
	i, ok := r.index[key]
	if !ok {
		return r.Set(key, value)
	}
	switch cur := r.entries[i].Value.(type) {
	case []any:
		r.entries[i].Value = append(cur, normalize(value))
	default:
		r.entries[i].Value = []any{cur, normalize(value)}
	}
	return r
}

// Get returns the value stored under key
func (r *Record) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.entries[i].Value, true
}

// Has reports whether key is present, regardless of its value
func (r *Record) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Declares reports whether the directive is present in either its bare or
// its @-prefixed form.
func (r *Record) Declares(name string) bool {
	name = strings.TrimPrefix(name, "@")
	return r.Has(name) || r.Has("@"+name)
}

// Keys returns the keys in insertion order
func (r *Record) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order
func (r *Record) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of keys
func (r *Record) Len() int {
	return len(r.entries)
}

// MarshalYAML encodes the record as a mapping that keeps key order.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range r.entries {
		var value yaml.Node
		if err := value.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", e.Key, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
		node.Content = append(node.Content, key, &value)
	}
	return node, nil
}

// normalize folds the numeric and list types produced by the different
// decoders into float64 and []any.
func normalize(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// present reports whether a value counts as set. nil, "", false, 0 and NaN
// do not; lists always do, even when empty.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
