// Package template loads deployment templates: the embedded default cluster
// template and user supplied template and parameter files.
package template

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed cluster.json
var clusterJSON []byte

// Windows and Linux flavors of the Service Fabric VM extension.
const (
	ExtensionWindows = "ServiceFabricNode"
	ExtensionLinux   = "ServiceFabricLinuxNode"
)

// ClusterParameters are the values the default cluster template needs.
type ClusterParameters struct {
	ClusterName      string
	Location         string
	AdminUserName    string
	AdminPassword    string
	ImagePublisher   string
	ImageOffer       string
	ImageSKU         string
	Linux            bool
	NodeTypeName     string
	VMSKU            string
	InstanceCount    int
	ReliabilityLevel string
	DurabilityLevel  string

	CertificateThumbprint string
	SourceVaultID         string
	CertificateURL        string
}

// Cluster returns a fresh copy of the default cluster template.
func Cluster() (map[string]any, error) {
	var tmpl map[string]any
	if err := json.Unmarshal(clusterJSON, &tmpl); err != nil {
		return nil, fmt.Errorf("template embutido inválido: %w", err)
	}
	return tmpl, nil
}

// Values renders the deployment parameters, each wrapped as {"value": v}.
// Empty optional fields fall back to the template defaults.
func (p ClusterParameters) Values() map[string]any {
	vmImage, extension, store := "Windows", ExtensionWindows, "My"
	if p.Linux {
		vmImage, extension = "Linux", ExtensionLinux
	}

	values := map[string]any{
		"clusterName":           p.ClusterName,
		"clusterLocation":       p.Location,
		"adminPassword":         p.AdminPassword,
		"vmImagePublisher":      p.ImagePublisher,
		"vmImageOffer":          p.ImageOffer,
		"vmImageSku":            p.ImageSKU,
		"vmImage":               vmImage,
		"vmExtensionType":       extension,
		"certificateThumbprint": p.CertificateThumbprint,
		"certificateStoreValue": store,
		"sourceVaultValue":      p.SourceVaultID,
		"certificateUrlValue":   p.CertificateURL,
	}
	optional := map[string]string{
		"adminUserName":    p.AdminUserName,
		"vmNodeType0Name":  p.NodeTypeName,
		"vmNodeType0Size":  p.VMSKU,
		"reliabilityLevel": p.ReliabilityLevel,
		"durabilityLevel":  p.DurabilityLevel,
	}
	for k, v := range optional {
		if v != "" {
			values[k] = v
		}
	}
	if p.InstanceCount > 0 {
		values["nt0InstanceCount"] = p.InstanceCount
	}
	return Wrap(values)
}

// Wrap turns plain values into deployment parameters.
func Wrap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = map[string]any{"value": v}
	}
	return out
}

// LoadFile reads a JSON template.
func LoadFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler %s: %w", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s não é um JSON válido: %w", path, err)
	}
	return out, nil
}

// LoadParameterFile reads a parameter file. Both the deployment parameter
// file envelope ({"$schema":..., "parameters":{...}}) and a bare object of
// values are accepted; bare values are wrapped.
func LoadParameterFile(path string) (map[string]any, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	params := doc
	if inner, ok := doc["parameters"].(map[string]any); ok {
		_, schema := doc["$schema"]
		_, version := doc["contentVersion"]
		if schema || version || len(doc) == 1 {
			params = inner
		}
	}

	out := make(map[string]any, len(params))
	for name, v := range params {
		if isParameterEntry(v) {
			out[name] = v
			continue
		}
		out[name] = map[string]any{"value": v}
	}
	return out, nil
}

func isParameterEntry(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, value := m["value"]
	_, ref := m["reference"]
	return value || ref
}

// ParameterValue reads the value of a wrapped parameter.
func ParameterValue(params map[string]any, name string) (any, bool) {
	entry, ok := params[name].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := entry["value"]
	return v, ok
}

// SingleResource wraps one resource into a template. Every name in
// secureParams is declared as a securestring parameter.
func SingleResource(resource map[string]any, secureParams ...string) map[string]any {
	params := make(map[string]any, len(secureParams))
	for _, name := range secureParams {
		params[name] = map[string]any{"type": "securestring"}
	}
	return map[string]any{
		"$schema":        "https://schema.management.azure.com/schemas/2015-01-01/deploymentTemplate.json#",
		"contentVersion": "1.0.0.0",
		"parameters":     params,
		"resources":      []any{resource},
	}
}

// ParameterRef is the expression that reads a template parameter.
func ParameterRef(name string) string {
	return fmt.Sprintf("[parameters('%s')]", name)
}
