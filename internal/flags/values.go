package flags

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	_ pflag.Value = (*JSONValue)(nil)
	_ pflag.Value = (*EnumValue)(nil)
	_ pflag.Value = (*KeyValueValue)(nil)
)

// JSONValue is a pflag.Value holding a JSON document given either inline
// or as @path to a file.
type JSONValue struct {
	raw   string
	Value any
}

// Set implements pflag.Value.
func (v *JSONValue) Set(s string) error {
	data := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		data = content
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	v.raw = s
	v.Value = parsed
	return nil
}

// String implements pflag.Value.
func (v *JSONValue) String() string {
	return v.raw
}

// Type implements pflag.Value.
func (*JSONValue) Type() string {
	return "json"
}

// IsSet reports whether a value was parsed.
func (v *JSONValue) IsSet() bool {
	return v.Value != nil
}

// Object returns the value as a JSON object, or an error naming option.
func (v *JSONValue) Object(option string) (map[string]any, error) {
	obj, ok := v.Value.(map[string]any)
	if !ok {
		return nil, Usagef("%s must be a JSON object", option)
	}
	return obj, nil
}

// EnumValue is a pflag.Value restricted to a fixed list. Matching is
// case-insensitive and the stored value uses the canonical spelling.
type EnumValue struct {
	allowed   []string
	canonical map[string]string
	value     string
}

// NewEnumValue creates an enum with an optional default ("" for none).
func NewEnumValue(def string, allowed ...string) *EnumValue {
	e := &EnumValue{allowed: allowed, canonical: make(map[string]string, len(allowed)), value: def}
	for _, a := range allowed {
		e.canonical[strings.ToLower(a)] = a
	}
	return e
}

// Set implements pflag.Value.
func (e *EnumValue) Set(s string) error {
	c, ok := e.canonical[strings.ToLower(s)]
	if !ok {
		return fmt.Errorf("invalid value %q, allowed values: %s", s, strings.Join(e.allowed, ", "))
	}
	e.value = c
	return nil
}

// String implements pflag.Value.
func (e *EnumValue) String() string {
	return e.value
}

// Type implements pflag.Value.
func (*EnumValue) Type() string {
	return "string"
}

// ExpandMultiValue rewrites "--opt a b c" into "--opt a --opt b --opt c"
// for the given long option names, so options that take several values
// in one go can be bound as repeatable flags. Parsing stops at "--".
func ExpandMultiValue(args []string, names ...string) []string {
	multi := sets.New[string]()
	for _, n := range names {
		multi.Insert("--" + strings.TrimPrefix(n, "--"))
	}

	out := make([]string, 0, len(args))
	current := ""
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			return out
		}
		if strings.HasPrefix(arg, "-") && !isNegativeNumber(arg) {
			current = ""
			if multi.Has(arg) {
				current = arg
			}
			out = append(out, arg)
			continue
		}
		if current != "" && len(out) > 0 && out[len(out)-1] != current {
			out = append(out, current)
		}
		out = append(out, arg)
	}
	return out
}

// KeepLastOccurrence drops every occurrence of the given long options
// except the last one, together with the values that follow each dropped
// occurrence. Use it before ExpandMultiValue so that repeating a
// multi-value option replaces the earlier values instead of adding to them.
func KeepLastOccurrence(args []string, names ...string) []string {
	want := sets.New[string]()
	for _, n := range names {
		want.Insert("--" + strings.TrimPrefix(n, "--"))
	}

	end := slices.Index(args, "--")
	if end < 0 {
		end = len(args)
	}
	optionOf := func(arg string) string {
		name, _, _ := strings.Cut(arg, "=")
		if want.Has(name) {
			return name
		}
		return ""
	}

	last := make(map[string]int)
	for i, arg := range args[:end] {
		if name := optionOf(arg); name != "" {
			last[name] = i
		}
	}

	out := make([]string, 0, len(args))
	skipping := false
	for i, arg := range args[:end] {
		isFlag := strings.HasPrefix(arg, "-") && !isNegativeNumber(arg)
		if isFlag {
			name := optionOf(arg)
			skipping = name != "" && last[name] != i
			// a forma --opt=valor não consome os argumentos seguintes
			if skipping {
				skipping = !strings.Contains(arg, "=")
				continue
			}
		} else if skipping {
			continue
		}
		out = append(out, arg)
	}
	return append(out, args[end:]...)
}

func isNegativeNumber(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	for _, r := range s[1:] {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
