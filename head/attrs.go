package head

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// Value is an attribute value - either a string or a boolean (for boolean
// HTML attributes like async or defer).
type Value struct {
	str    string
	flag   bool
	isBool bool
}

// String creates string attribute value.
func String(s string) Value { return Value{str: s} }

// Bool creates boolean attribute value.
func Bool(b bool) Value { return Value{flag: b, isBool: true} }

func (v Value) IsBool() bool { return v.isBool }

// String returns textual representation of the value, booleans are rendered
// as "true" or "false".
func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.flag)
	}
	return v.str
}

// Truthy reports whether value would be considered set: non-empty string or
// true.
func (v Value) Truthy() bool {
	if v.isBool {
		return v.flag
	}
	return len(v.str) > 0
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isBool {
		return json.Marshal(v.flag)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("attribute value must be string or boolean: %w", err)
	}
	*v = String(s)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	if v.isBool {
		return v.flag, nil
	}
	return v.str, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: attribute value must be scalar", node.Line)
	}
	if node.ShortTag() == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	}
	// numbers and everything else are kept exactly as written
	*v = String(node.Value)
	return nil
}

// Attr is a single named attribute.
type Attr struct {
	Key   string
	Value Value
}

// AttributeMap is an ordered mapping of attribute names to values. Order of
// keys is the declaration order, it is significant for tag identity
// resolution and keeps produced output stable.
type AttributeMap []Attr

// Attrs builds AttributeMap from alternating key, value string pairs. Odd
// trailing key is ignored.
func Attrs(kv ...string) AttributeMap {
	m := make(AttributeMap, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m = m.Set(kv[i], String(kv[i+1]))
	}
	return m
}

func (m AttributeMap) index(key string) int {
	for i := range m {
		if m[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns value stored under exact key.
func (m AttributeMap) Get(key string) (Value, bool) {
	if i := m.index(key); i >= 0 {
		return m[i].Value, true
	}
	return Value{}, false
}

func (m AttributeMap) Has(key string) bool {
	return m.index(key) >= 0
}

// Set stores value under key. Existing key keeps its position, new key is
// appended.
func (m AttributeMap) Set(key string, v Value) AttributeMap {
	if i := m.index(key); i >= 0 {
		m[i].Value = v
		return m
	}
	return append(m, Attr{Key: key, Value: v})
}

func (m AttributeMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, a := range m {
		keys = append(keys, a.Key)
	}
	return keys
}

func (m AttributeMap) Clone() AttributeMap {
	if m == nil {
		return nil
	}
	out := make(AttributeMap, len(m))
	copy(out, m)
	return out
}

// Merge returns shallow merge of m and other, keys from other win. Neither
// argument is modified.
func (m AttributeMap) Merge(other AttributeMap) AttributeMap {
	out := make(AttributeMap, 0, len(m)+len(other))
	out = append(out, m...)
	for _, a := range other {
		out = out.Set(a.Key, a.Value)
	}
	return out
}

// Equal compares maps including key order.
func (m AttributeMap) Equal(other AttributeMap) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

func (m AttributeMap) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, a := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(a.Key)
		if err != nil {
			return nil, err
		}
		v, err := a.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *AttributeMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes must be an object, got %v", t)
	}
	out := AttributeMap{}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		key := t.(string)
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		out = out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m AttributeMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, a := range m {
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: a.Value.String()}
		if a.Value.IsBool() {
			val.Tag = "!!bool"
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: a.Key}, val)
	}
	return node, nil
}

func (m *AttributeMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: attributes must be a mapping", node.Line)
	}
	out := make(AttributeMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v Value
		if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
			return fmt.Errorf("attribute %q: %w", node.Content[i].Value, err)
		}
		out = out.Set(node.Content[i].Value, v)
	}
	*m = out
	return nil
}
