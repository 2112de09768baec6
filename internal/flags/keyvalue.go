package flags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// OrderedMap is a string map that remembers insertion order.
// Re-setting a key overwrites its value but keeps its first position.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedMap returns an empty map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]string)}
}

// Set stores value under key.
func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m *OrderedMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys. A nil map is empty.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns an independent copy.
func (m *OrderedMap) Clone() *OrderedMap {
	out := NewOrderedMap()
	for _, k := range m.Keys() {
		out.Set(k, m.values[k])
	}
	return out
}

// MarshalJSON writes the object with keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of strings keeping the document order.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	m.keys, m.values = nil, make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

func setKeyValue(m *OrderedMap, option, token string) error {
	key, value, ok := strings.Cut(token, "=")
	if !ok {
		return Usagef("usage error: %s KEY=VALUE [KEY=VALUE ...]", option)
	}
	m.Set(key, value)
	return nil
}

// KeyValueValue is a pflag.Value collecting KEY=VALUE tokens into an
// OrderedMap, splitting each token on the first '='. A token without '='
// is a usage error naming option. Every Set call adds to the same map;
// see KeepLastOccurrence for the repeated-flag rule.
type KeyValueValue struct {
	option string
	m      *OrderedMap
}

// NewKeyValueValue binds a KeyValueValue to the flag named option
// (used in the usage error, e.g. "--application-parameters").
func NewKeyValueValue(option string) *KeyValueValue {
	return &KeyValueValue{option: option, m: NewOrderedMap()}
}

// Set implements pflag.Value.
func (v *KeyValueValue) Set(token string) error {
	return setKeyValue(v.m, v.option, token)
}

// String implements pflag.Value.
func (v *KeyValueValue) String() string {
	parts := make([]string, 0, v.m.Len())
	for _, k := range v.m.keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v.m.values[k]))
	}
	return strings.Join(parts, " ")
}

// Type implements pflag.Value.
func (*KeyValueValue) Type() string {
	return "KEY=VALUE"
}

// Map returns the collected pairs.
func (v *KeyValueValue) Map() *OrderedMap {
	return v.m
}
