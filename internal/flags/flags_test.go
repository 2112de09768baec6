package flags

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

// ============================================================
// CONCEPT: Static argument binding
// 🎓 Every option is a typed pflag.Value plus a Check entry.
// Nothing is registered at runtime by name lookup.
// ============================================================

// TestKeyValueValue tests order, first '=' split and the usage error
func TestKeyValueValue(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	v := NewKeyValueValue("--application-parameters")
	fs.Var(v, "application-parameters", "")

	args := []string{
		"--application-parameters", "Zeta=1",
		"--application-parameters", "Alpha=2",
		"--application-parameters", "C=x=y",
		"--application-parameters", "Zeta=3",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	m := v.Map()
	if diff := cmp.Diff([]string{"Zeta", "Alpha", "C"}, m.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got, _ := m.Get("Zeta"); got != "3" {
		t.Errorf("Zeta = %q, want 3 (last value wins)", got)
	}
	if got, _ := m.Get("C"); got != "x=y" {
		t.Errorf("C = %q, want x=y", got)
	}
	if v.String() != "Zeta=3 Alpha=2 C=x=y" {
		t.Errorf("String() = %q", v.String())
	}

	err := NewKeyValueValue("--application-parameters").Set("oops")
	if !IsUsageError(err) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err.Error() != "usage error: --application-parameters KEY=VALUE [KEY=VALUE ...]" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

// TestOrderedMap_JSON tests that both directions keep insertion order
func TestOrderedMap_JSON(t *testing.T) {
	m := NewOrderedMap()
	m.Set("Zeta", "1")
	m.Set("Alpha", "2")
	m.Set("Mid", "3")

	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("MarshalJSON() unexpected error: %v", err)
	}
	if string(raw) != `{"Zeta":"1","Alpha":"2","Mid":"3"}` {
		t.Errorf("MarshalJSON() = %s", raw)
	}

	var back OrderedMap
	if err := json.Unmarshal([]byte(`{"b":"1", "a":"2", "c":"3"}`), &back); err != nil {
		t.Fatalf("UnmarshalJSON() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, back.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`["a"]`), &back); err == nil {
		t.Error("UnmarshalJSON() should reject a non-object")
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &back); err == nil {
		t.Error("UnmarshalJSON() should reject non-string values")
	}

	clone := m.Clone()
	clone.Set("Alpha", "changed")
	if got, _ := m.Get("Alpha"); got != "2" {
		t.Errorf("Clone() shares storage: Alpha = %q", got)
	}

	var nilMap *OrderedMap
	if nilMap.Len() != 0 || nilMap.Keys() != nil {
		t.Error("nil map should be empty")
	}
	if _, ok := nilMap.Get("a"); ok {
		t.Error("Get() on nil map should report missing")
	}
}

// TestKeepLastOccurrence tests that repeating an option replaces its values
func TestKeepLastOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "single occurrence untouched",
			args:     []string{"--parameters", "A=1", "B=2", "-g", "rg"},
			expected: []string{"--parameters", "A=1", "B=2", "-g", "rg"},
		},
		{
			name:     "last occurrence wins",
			args:     []string{"--parameters", "A=1", "B=2", "-g", "rg", "--parameters", "C=3"},
			expected: []string{"-g", "rg", "--parameters", "C=3"},
		},
		{
			name:     "equals form dropped alone",
			args:     []string{"--parameters=A=1", "--name", "app", "--parameters", "C=3"},
			expected: []string{"--name", "app", "--parameters", "C=3"},
		},
		{
			name:     "other options untouched",
			args:     []string{"--name", "a", "--name", "b"},
			expected: []string{"--name", "a", "--name", "b"},
		},
		{
			name:     "stops at double dash",
			args:     []string{"--parameters", "A=1", "--", "--parameters", "B=2"},
			expected: []string{"--parameters", "A=1", "--", "--parameters", "B=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeepLastOccurrence(tt.args, "parameters")
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("KeepLastOccurrence() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestExpandMultiValue tests nargs-style expansion
func TestExpandMultiValue(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "several values",
			args:     []string{"sf", "application", "create", "--parameters", "A=1", "B=2", "-g", "rg"},
			expected: []string{"sf", "application", "create", "--parameters", "A=1", "--parameters", "B=2", "-g", "rg"},
		},
		{
			name:     "single value untouched",
			args:     []string{"--parameters", "A=1"},
			expected: []string{"--parameters", "A=1"},
		},
		{
			name:     "equals form untouched",
			args:     []string{"--parameters=A=1", "x"},
			expected: []string{"--parameters=A=1", "x"},
		},
		{
			name:     "other options untouched",
			args:     []string{"--name", "a", "b"},
			expected: []string{"--name", "a", "b"},
		},
		{
			name:     "stops at double dash",
			args:     []string{"--parameters", "A=1", "--", "B=2"},
			expected: []string{"--parameters", "A=1", "--", "B=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandMultiValue(tt.args, "parameters", "--thumbprints")
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("ExpandMultiValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestJSONValue tests inline and @file values
func TestJSONValue(t *testing.T) {
	var inline JSONValue
	if err := inline.Set(`{"maxPercentUnhealthyServices": 10}`); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	obj, err := inline.Object("--policy")
	if err != nil {
		t.Fatalf("Object() unexpected error: %v", err)
	}
	if obj["maxPercentUnhealthyServices"] != float64(10) {
		t.Errorf("Object() = %v", obj)
	}

	path := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(path, []byte(`["a","b"]`), 0o600); err != nil {
		t.Fatal(err)
	}
	var fromFile JSONValue
	if err := fromFile.Set("@" + path); err != nil {
		t.Fatalf("Set(@file) unexpected error: %v", err)
	}
	if !fromFile.IsSet() {
		t.Error("IsSet() = false after Set")
	}
	if _, err := fromFile.Object("--policy"); !IsUsageError(err) {
		t.Errorf("Object() on array should be a usage error, got %v", err)
	}

	var bad JSONValue
	if err := bad.Set("{not json"); err == nil {
		t.Error("Set() expected error for invalid JSON")
	}
	if err := bad.Set("@" + filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Set() expected error for missing file")
	}
}

// TestEnumValue tests canonical spelling and rejection
func TestEnumValue(t *testing.T) {
	e := NewEnumValue("Bronze", "Bronze", "Silver", "Gold")
	if e.String() != "Bronze" {
		t.Errorf("default = %q", e.String())
	}
	if err := e.Set("gOLD"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	if e.String() != "Gold" {
		t.Errorf("String() = %q, want Gold", e.String())
	}

	err := e.Set("Platinum")
	if err == nil || !strings.Contains(err.Error(), "Bronze, Silver, Gold") {
		t.Errorf("Set(Platinum) error = %v", err)
	}
}

// TestValidate tests aggregation of failed checks
func TestValidate(t *testing.T) {
	if err := Validate(Required("--name", "x"), Range("--count", 3, 1, 5)); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	err := Validate(
		Required("--name", ""),
		Range("--count", 9, 1, 5),
		ExactlyOne(map[string]bool{"--stateless": true, "--stateful": true}, "--stateless", "--stateful"),
		When(false, Required("--skipped", "")),
	)
	if !IsUsageError(err) {
		t.Fatalf("expected usage error, got %v", err)
	}
	for _, want := range []string{"--name is required", "--count must be between 1 and 5", "specify exactly one of --stateless, --stateful"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err.Error(), want)
		}
	}
	if strings.Contains(err.Error(), "--skipped") {
		t.Error("When(false) check should not run")
	}

	var u *UsageError
	if !errors.As(err, &u) || u.Unwrap() == nil {
		t.Error("UsageError should wrap the aggregate")
	}
}
