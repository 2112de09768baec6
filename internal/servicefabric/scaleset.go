package servicefabric

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/template"
)

// scaleSet edits the free-form payload of the scale set behind a node type.
type scaleSet struct {
	*cloud.Resource
}

// object returns m[key] as an object, creating it when missing.
func object(m map[string]any, key string) map[string]any {
	if child, ok := m[key].(map[string]any); ok {
		return child
	}
	child := map[string]any{}
	m[key] = child
	return child
}

func (s scaleSet) vmProfile() map[string]any {
	if s.Properties == nil {
		s.Properties = map[string]any{}
	}
	return object(s.Properties, "virtualMachineProfile")
}

// fabricExtension returns the properties of the Service Fabric VM extension.
func (s scaleSet) fabricExtension() (map[string]any, error) {
	extensions, _ := object(s.vmProfile(), "extensionProfile")["extensions"].([]any)
	for _, raw := range extensions {
		ext, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		props := object(ext, "properties")
		switch props["type"] {
		case template.ExtensionWindows, template.ExtensionLinux:
			return props, nil
		}
	}
	return nil, fmt.Errorf("scale set %s has no Service Fabric extension", s.Name)
}

// fabricSettings returns the settings block of the Service Fabric extension.
func (s scaleSet) fabricSettings() (map[string]any, error) {
	ext, err := s.fabricExtension()
	if err != nil {
		return nil, err
	}
	return object(ext, "settings"), nil
}

func (s scaleSet) isLinux() bool {
	ext, err := s.fabricExtension()
	return err == nil && ext["type"] == template.ExtensionLinux
}

func (s scaleSet) capacity() int64 {
	if s.SKU == nil || s.SKU.Capacity == nil {
		return 0
	}
	return *s.SKU.Capacity
}

func (s scaleSet) setCapacity(n int64) {
	if s.SKU == nil {
		s.SKU = &cloud.SKU{}
	}
	s.SKU.Capacity = &n
}

// certificateStore is where the VM agent installs vault certificates.
// Linux VMs place them under /var/lib/waagent and take no store.
func (s scaleSet) certificateStore() string {
	if s.isLinux() {
		return ""
	}
	return "My"
}

// addVaultCertificate installs a Key Vault certificate on every VM.
func (s scaleSet) addVaultCertificate(vaultID, certificateURL string) {
	osProfile := object(s.vmProfile(), "osProfile")
	secrets, _ := osProfile["secrets"].([]any)

	cert := map[string]any{"certificateUrl": certificateURL}
	if store := s.certificateStore(); store != "" {
		cert["certificateStore"] = store
	}

	for _, raw := range secrets {
		group, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := object(group, "sourceVault")["id"].(string)
		if !strings.EqualFold(id, vaultID) {
			continue
		}
		certs, _ := group["vaultCertificates"].([]any)
		for _, c := range certs {
			if existing, ok := c.(map[string]any); ok && existing["certificateUrl"] == certificateURL {
				return
			}
		}
		group["vaultCertificates"] = append(certs, cert)
		return
	}

	osProfile["secrets"] = append(secrets, map[string]any{
		"sourceVault":       map[string]any{"id": vaultID},
		"vaultCertificates": []any{cert},
	})
}

// cloneForNodeType derives the scale set of a new node type from this one.
// Load balancer pools stay with the original scale set.
func (s scaleSet) cloneForNodeType(opts NodeTypeAddOptions) (map[string]any, error) {
	raw, err := json.Marshal(s.Properties)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, err
	}
	clone := scaleSet{&cloud.Resource{Name: opts.Name, Properties: props}}

	for _, key := range []string{"provisioningState", "uniqueId"} {
		delete(props, key)
	}

	profile := clone.vmProfile()
	osProfile := object(profile, "osProfile")
	osProfile["adminUsername"] = opts.VMUserName
	osProfile["adminPassword"] = template.ParameterRef("adminPassword")
	osProfile["computerNamePrefix"] = computerNamePrefix(opts.Name)

	if disk, ok := object(profile, "storageProfile")["osDisk"].(map[string]any); ok {
		delete(disk, "name")
	}

	nics, _ := object(profile, "networkProfile")["networkInterfaceConfigurations"].([]any)
	for _, n := range nics {
		nic, ok := n.(map[string]any)
		if !ok {
			continue
		}
		configs, _ := object(nic, "properties")["ipConfigurations"].([]any)
		for _, c := range configs {
			if cfg, ok := c.(map[string]any); ok {
				ipProps := object(cfg, "properties")
				delete(ipProps, "loadBalancerInboundNatPools")
				delete(ipProps, "loadBalancerBackendAddressPools")
			}
		}
	}

	ext, err := clone.fabricExtension()
	if err != nil {
		return nil, err
	}
	delete(ext, "provisioningState")
	settings := object(ext, "settings")
	settings["nodeTypeRef"] = opts.Name
	settings["durabilityLevel"] = opts.DurabilityLevel

	extensions, _ := object(profile, "extensionProfile")["extensions"].([]any)
	for _, e := range extensions {
		if m, ok := e.(map[string]any); ok && object(m, "properties")["type"] == ext["type"] {
			m["name"] = opts.Name + "_ServiceFabricNode"
		}
	}

	tier := opts.VMTier
	if tier == "" {
		tier = "Standard"
	}
	sku := opts.VMSKU
	if sku == "" && s.SKU != nil {
		sku = s.SKU.Name
	}

	return map[string]any{
		"apiVersion": ComputeAPIVersion,
		"type":       scaleSetResourceType,
		"name":       opts.Name,
		"location":   s.Location,
		"sku": map[string]any{
			"name":     sku,
			"tier":     tier,
			"capacity": opts.Capacity,
		},
		"properties": props,
	}, nil
}

// computerNamePrefix is capped at nine characters by the compute API.
func computerNamePrefix(name string) string {
	if len(name) > 9 {
		return name[:9]
	}
	return name
}
