package cloudtest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/estudosdevops/fabricctl/internal/cloud"
)

var simpleExpr = regexp.MustCompile(`^\[(parameters|variables)\('([^']+)'\)\]$`)

// MaterializeTemplate is an OnDeploy hook that stores every top-level
// resource of the submitted template. Only whole-string parameters() and
// variables() expressions are resolved; other expressions stay verbatim.
func MaterializeTemplate(rm *ResourceManager, call DeploymentCall) error {
	tmpl := call.Deployment.Template
	declared, _ := tmpl["parameters"].(map[string]any)
	variables, _ := tmpl["variables"].(map[string]any)

	r := &resolver{declared: declared, values: call.Deployment.Parameters, variables: variables}

	resources, _ := tmpl["resources"].([]any)
	for i, raw := range resources {
		res, ok := r.resolve(raw).(map[string]any)
		if !ok {
			return fmt.Errorf("resource %d is not an object", i)
		}
		typ, _ := res["type"].(string)
		name, _ := res["name"].(string)
		if typ == "" || name == "" {
			return fmt.Errorf("resource %d has no type or name", i)
		}

		var out cloud.Resource
		encoded, err := json.Marshal(res)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(encoded, &out); err != nil {
			return fmt.Errorf("resource %s/%s: %w", typ, name, err)
		}

		id := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s", rm.Subscription, call.ResourceGroup, typ, name)
		if _, err := rm.PutResource(context.Background(), id, "", &out); err != nil {
			return err
		}
	}
	return nil
}

type resolver struct {
	declared  map[string]any
	values    map[string]any
	variables map[string]any
}

func (r *resolver) resolve(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = r.resolve(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = r.resolve(item)
		}
		return out
	case string:
		m := simpleExpr.FindStringSubmatch(t)
		if m == nil {
			return t
		}
		if m[1] == "variables" {
			if val, ok := r.variables[m[2]]; ok {
				return r.resolve(val)
			}
			return t
		}
		return r.parameter(m[2], t)
	default:
		return v
	}
}

func (r *resolver) parameter(name, expr string) any {
	if entry, ok := r.values[name].(map[string]any); ok {
		if val, ok := entry["value"]; ok {
			return val
		}
	}
	if decl, ok := r.declared[name].(map[string]any); ok {
		if def, ok := decl["defaultValue"]; ok {
			return r.resolve(def)
		}
	}
	return expr
}
