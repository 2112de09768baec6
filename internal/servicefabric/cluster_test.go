package servicefabric

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/cloud/cloudtest"
	"github.com/estudosdevops/fabricctl/internal/deploy"
	"github.com/estudosdevops/fabricctl/internal/template"
)

// ===== CONCEPT: read-modify-write do cluster 🎓 =====
// Todo comando de cluster lê o recurso, altera as propriedades tipadas e
// grava de volta. Campos desconhecidos sobrevivem ao ciclo.

func TestCreateCluster_DefaultTemplate(t *testing.T) {
	env := newTestEnv(t).withCluster(t)

	props := env.clusterProps(t)
	if props.ReliabilityLevel != "Silver" {
		t.Errorf("ReliabilityLevel = %s, want Silver for five nodes", props.ReliabilityLevel)
	}
	if props.Certificate == nil || props.Certificate.Thumbprint != env.thumbprint {
		t.Errorf("Certificate = %+v, want thumbprint %s", props.Certificate, env.thumbprint)
	}
	want := []NodeType{{
		Name:                         "nt1vm",
		ClientConnectionEndpointPort: 19000,
		HTTPGatewayEndpointPort:      19080,
		IsPrimary:                    true,
		VMInstanceCount:              5,
		DurabilityLevel:              "Bronze",
		ApplicationPorts:             &EndpointRange{StartPort: 20000, EndPort: 30000},
		EphemeralPorts:               &EndpointRange{StartPort: 49152, EndPort: 65534},
	}}
	if diff := cmp.Diff(want, props.NodeTypes); diff != "" {
		t.Errorf("NodeTypes mismatch (-want +got):\n%s", diff)
	}

	if env.rm.Validations() != 1 {
		t.Errorf("Validations() = %d, want 1", env.rm.Validations())
	}
	calls := env.rm.Deployments()
	if len(calls) != 1 {
		t.Fatalf("Deployments() = %d, want 1", len(calls))
	}
	params := calls[0].Deployment.Parameters
	expected := map[string]any{
		"clusterLocation":     "westus",
		"certificateUrlValue": testSecretID,
		"sourceVaultValue":    "/subscriptions/" + testSubscription + "/resourceGroups/" + testGroup + "/providers/Microsoft.KeyVault/vaults/kv-sf",
		"vmImageSku":          "2016-Datacenter",
		"vmExtensionType":     template.ExtensionWindows,
	}
	for name, value := range expected {
		if got, _ := template.ParameterValue(params, name); got != value {
			t.Errorf("parameter %s = %v, want %v", name, got, value)
		}
	}
}

func TestCreateCluster_ValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.rm.ValidationError = &cloud.ErrorDetail{
		Code:    "InvalidTemplate",
		Message: "bad",
		Details: []*cloud.ErrorDetail{{Code: "Inner", Message: "worse"}},
	}

	_, err := env.client.CreateCluster(context.Background(), env.ref, ClusterCreateOptions{
		SecretIdentifier: testSecretID,
		VMPassword:       "Pass@Word1",
	})

	var verr *deploy.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CreateCluster() error = %v, want *deploy.ValidationError", err)
	}
	if len(verr.Lines) != 3 {
		t.Errorf("Lines = %q", verr.Lines)
	}
	if len(env.rm.Deployments()) != 0 {
		t.Error("no deployment should be attempted after a failed validation")
	}
}

func TestCreateCluster_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts ClusterCreateOptions
	}{
		{name: "no secret", opts: ClusterCreateOptions{VMPassword: "p"}},
		{name: "no password", opts: ClusterCreateOptions{SecretIdentifier: testSecretID}},
		{name: "two nodes", opts: ClusterCreateOptions{SecretIdentifier: testSecretID, VMPassword: "p", ClusterSize: 2}},
		{name: "unknown os", opts: ClusterCreateOptions{SecretIdentifier: testSecretID, VMPassword: "p", VMOS: "Windows95"}},
		{name: "unknown vault", opts: ClusterCreateOptions{SecretIdentifier: "https://nope.vault.azure.net/secrets/x", VMPassword: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if _, err := env.client.CreateCluster(context.Background(), env.ref, tt.opts); err == nil {
				t.Error("CreateCluster() expected error but got none")
			}
			if len(env.rm.Deployments()) != 0 {
				t.Error("no deployment should be attempted")
			}
		})
	}
}

func TestCreateCluster_UserTemplate(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	tmplPath := filepath.Join(dir, "template.json")
	paramPath := filepath.Join(dir, "parameters.json")
	tmpl := `{
  "parameters": {"clusterName": {"type": "string"}},
  "resources": [{
    "type": "Microsoft.ServiceFabric/clusters",
    "name": "[parameters('clusterName')]",
    "location": "westus",
    "properties": {"reliabilityLevel": "Bronze", "nodeTypes": []}
  }]
}`
	if err := os.WriteFile(tmplPath, []byte(tmpl), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paramPath, []byte(`{"clusterName": "fromfile"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cluster, err := env.client.CreateCluster(context.Background(), env.ref, ClusterCreateOptions{
		TemplateFile:  tmplPath,
		ParameterFile: paramPath,
	})
	if err != nil {
		t.Fatalf("CreateCluster() unexpected error: %v", err)
	}
	if cluster.Name != "fromfile" {
		t.Errorf("cluster name = %s, want fromfile", cluster.Name)
	}
}

func TestListClusters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)
	env.rm.Seed(&cloud.Resource{
		ID:   "/subscriptions/" + testSubscription + "/resourceGroups/other/providers/Microsoft.ServiceFabric/clusters/c2",
		Name: "c2",
		Type: "Microsoft.ServiceFabric/clusters",
	})

	inGroup, err := env.client.ListClusters(ctx, testGroup)
	if err != nil || len(inGroup) != 1 {
		t.Errorf("ListClusters(%s) = %d clusters, err %v", testGroup, len(inGroup), err)
	}
	all, err := env.client.ListClusters(ctx, "")
	if err != nil || len(all) != 2 {
		t.Errorf("ListClusters() = %d clusters, err %v", len(all), err)
	}
}

func TestClusterCertificate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	secondID := "https://kv-sf.vault.azure.net/secrets/newcert/1"
	secret, second := cloudtest.CertificateSecret(t, secondID)
	env.rm.AddSecret(secret)

	if _, err := env.client.AddClusterCertificate(ctx, env.ref, CertificateAddOptions{SecretIdentifier: secondID}); err != nil {
		t.Fatalf("AddClusterCertificate() unexpected error: %v", err)
	}

	props := env.clusterProps(t)
	if props.Certificate.ThumbprintSecondary != second {
		t.Errorf("ThumbprintSecondary = %s, want %s", props.Certificate.ThumbprintSecondary, second)
	}

	vmss := env.scaleSet(t, "nt1vm")
	settings, err := vmss.fabricSettings()
	if err != nil {
		t.Fatal(err)
	}
	if sec, _ := settings["certificateSecondary"].(map[string]any); sec["thumbprint"] != second {
		t.Errorf("certificateSecondary = %v", settings["certificateSecondary"])
	}
	secrets := object(vmss.vmProfile(), "osProfile")["secrets"].([]any)
	if len(secrets) != 1 {
		t.Fatalf("secrets = %d vault groups, want 1", len(secrets))
	}
	if certs := secrets[0].(map[string]any)["vaultCertificates"].([]any); len(certs) != 2 {
		t.Errorf("vaultCertificates = %d, want 2", len(certs))
	}

	// a second secondary is rejected
	if _, err := env.client.AddClusterCertificate(ctx, env.ref, CertificateAddOptions{SecretIdentifier: secondID}); err == nil {
		t.Error("AddClusterCertificate() expected error for an existing certificate")
	}

	// removing the primary promotes the secondary
	if _, err := env.client.RemoveClusterCertificate(ctx, env.ref, env.thumbprint); err != nil {
		t.Fatalf("RemoveClusterCertificate() unexpected error: %v", err)
	}
	props = env.clusterProps(t)
	if props.Certificate.Thumbprint != second || props.Certificate.ThumbprintSecondary != "" {
		t.Errorf("Certificate = %+v, want %s promoted", props.Certificate, second)
	}

	if _, err := env.client.RemoveClusterCertificate(ctx, env.ref, second); err == nil {
		t.Error("removing the only certificate should fail")
	}
	if _, err := env.client.RemoveClusterCertificate(ctx, env.ref, "ABCDEF"); !cloud.IsNotFound(err) {
		t.Errorf("RemoveClusterCertificate(unknown) error = %v, want not found", err)
	}
}

func TestClientCertificates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	_, err := env.client.AddClientCertificates(ctx, env.ref, ClientCertificateOptions{
		Thumbprint:          "AAAA",
		IsAdmin:             true,
		ReadonlyThumbprints: []string{"BBBB", "aaaa"},
		CommonNames: []ClientCertificateCommonName{
			{IsAdmin: true, CertificateCommonName: "test.com", CertificateIssuerThumbprint: "CCCC"},
		},
	})
	if err != nil {
		t.Fatalf("AddClientCertificates() unexpected error: %v", err)
	}

	props := env.clusterProps(t)
	wantThumbprints := []ClientCertificateThumbprint{
		{IsAdmin: false, CertificateThumbprint: "AAAA"},
		{IsAdmin: false, CertificateThumbprint: "BBBB"},
	}
	if diff := cmp.Diff(wantThumbprints, props.ClientCertificateThumbprints); diff != "" {
		t.Errorf("thumbprints mismatch (-want +got):\n%s", diff)
	}
	if len(props.ClientCertificateCommonNames) != 1 {
		t.Errorf("common names = %+v", props.ClientCertificateCommonNames)
	}

	_, err = env.client.RemoveClientCertificates(ctx, env.ref, ClientCertificateOptions{
		Thumbprints: []string{"bbbb"},
		CommonName:  "TEST.com", IssuerThumbprint: "cccc",
	})
	if err != nil {
		t.Fatalf("RemoveClientCertificates() unexpected error: %v", err)
	}
	props = env.clusterProps(t)
	if len(props.ClientCertificateThumbprints) != 1 || len(props.ClientCertificateCommonNames) != 0 {
		t.Errorf("after remove: thumbprints %+v, common names %+v", props.ClientCertificateThumbprints, props.ClientCertificateCommonNames)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	settings, err := ParseSettings([]any{
		map[string]any{"section": "NamingService", "parameter": "MaxOperationTimeout", "value": float64(1000)},
		map[string]any{"section": "Security", "parameter": "ClusterProtectionLevel", "value": "None"},
	}, true)
	if err != nil {
		t.Fatalf("ParseSettings() unexpected error: %v", err)
	}
	if _, err := env.client.SetSettings(ctx, env.ref, settings); err != nil {
		t.Fatalf("SetSettings() unexpected error: %v", err)
	}

	want := []SettingsSection{
		{Name: "Security", Parameters: []SettingsParameter{{Name: "ClusterProtectionLevel", Value: "None"}}},
		{Name: "NamingService", Parameters: []SettingsParameter{{Name: "MaxOperationTimeout", Value: "1000"}}},
	}
	if diff := cmp.Diff(want, env.clusterProps(t).FabricSettings); diff != "" {
		t.Errorf("FabricSettings mismatch (-want +got):\n%s", diff)
	}

	if _, err := env.client.RemoveSettings(ctx, env.ref, []Setting{{Section: "NamingService", Parameter: "MaxOperationTimeout"}}); err != nil {
		t.Fatalf("RemoveSettings() unexpected error: %v", err)
	}
	if got := env.clusterProps(t).FabricSettings; len(got) != 1 || got[0].Name != "Security" {
		t.Errorf("empty sections should be dropped, got %+v", got)
	}
}

func TestParseSettings_Errors(t *testing.T) {
	inputs := []any{
		map[string]any{"section": "s"},
		[]any{"not an object"},
		[]any{map[string]any{"parameter": "p", "value": "v"}},
	}
	for _, in := range inputs {
		if _, err := ParseSettings(in, true); err == nil {
			t.Errorf("ParseSettings(%v) expected error but got none", in)
		}
	}

	// value is optional on remove
	if _, err := ParseSettings([]any{map[string]any{"section": "s", "parameter": "p"}}, false); err != nil {
		t.Errorf("ParseSettings() unexpected error: %v", err)
	}
}

func TestSetUpgradeType(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	if _, err := env.client.SetUpgradeType(ctx, env.ref, "manual", ""); err == nil {
		t.Error("manual without version should fail")
	}
	if _, err := env.client.SetUpgradeType(ctx, env.ref, "manual", "6.5.639.9590"); err != nil {
		t.Fatalf("SetUpgradeType() unexpected error: %v", err)
	}
	props := env.clusterProps(t)
	if props.UpgradeMode != "Manual" || props.ClusterCodeVersion != "6.5.639.9590" {
		t.Errorf("UpgradeMode = %s, ClusterCodeVersion = %s", props.UpgradeMode, props.ClusterCodeVersion)
	}
}

func TestUpdateReliability(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	if _, err := env.client.UpdateReliability(ctx, env.ref, "Gold", false); err == nil {
		t.Error("Gold on five nodes without --auto-add-node should fail")
	}
	if _, err := env.client.UpdateReliability(ctx, env.ref, "Gold", true); err != nil {
		t.Fatalf("UpdateReliability() unexpected error: %v", err)
	}

	props := env.clusterProps(t)
	if props.ReliabilityLevel != "Gold" || props.NodeTypes[0].VMInstanceCount != 7 {
		t.Errorf("ReliabilityLevel = %s, nodes = %d", props.ReliabilityLevel, props.NodeTypes[0].VMInstanceCount)
	}
	if got := env.scaleSet(t, "nt1vm").capacity(); got != 7 {
		t.Errorf("scale set capacity = %d, want 7", got)
	}
}

func TestUpdateDurability(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	if _, err := env.client.UpdateDurability(ctx, env.ref, "nt1vm", "Gold"); err == nil {
		t.Error("Gold on Standard_D2_V2 should fail")
	}
	if _, err := env.client.UpdateDurability(ctx, env.ref, "nt1vm", "Silver"); err != nil {
		t.Fatalf("UpdateDurability() unexpected error: %v", err)
	}
	if got := env.clusterProps(t).NodeTypes[0].DurabilityLevel; got != "Silver" {
		t.Errorf("DurabilityLevel = %s, want Silver", got)
	}
	settings, _ := env.scaleSet(t, "nt1vm").fabricSettings()
	if settings["durabilityLevel"] != "Silver" {
		t.Errorf("extension durabilityLevel = %v, want Silver", settings["durabilityLevel"])
	}

	if _, err := env.client.UpdateDurability(ctx, env.ref, "nt1vm", "Bronze"); err == nil {
		t.Error("downgrade to Bronze should fail")
	}
	if _, err := env.client.UpdateDurability(ctx, env.ref, "ghost", "Silver"); !cloud.IsNotFound(err) {
		t.Errorf("UpdateDurability(ghost) error = %v, want not found", err)
	}
}

func TestNodes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	if _, err := env.client.AddNodes(ctx, env.ref, "nt1vm", 2); err != nil {
		t.Fatalf("AddNodes() unexpected error: %v", err)
	}
	if got := env.clusterProps(t).NodeTypes[0].VMInstanceCount; got != 7 {
		t.Errorf("VMInstanceCount = %d, want 7", got)
	}

	// Silver keeps at least five nodes in the primary node type
	if _, err := env.client.RemoveNodes(ctx, env.ref, "nt1vm", 3); err == nil {
		t.Error("RemoveNodes() below the reliability minimum should fail")
	}
	if _, err := env.client.RemoveNodes(ctx, env.ref, "nt1vm", 2); err != nil {
		t.Fatalf("RemoveNodes() unexpected error: %v", err)
	}
	if got := env.scaleSet(t, "nt1vm").capacity(); got != 5 {
		t.Errorf("scale set capacity = %d, want 5", got)
	}

	if _, err := env.client.AddNodes(ctx, env.ref, "nt1vm", 0); err == nil {
		t.Error("AddNodes(0) should fail")
	}
}

func TestAddNodeType(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)

	opts := NodeTypeAddOptions{
		Name:            "nt2",
		Capacity:        5,
		VMUserName:      "admin",
		VMPassword:      "Pass@Word2",
		DurabilityLevel: "Gold",
		VMSKU:           "Standard_D15_v2",
	}
	cluster, err := env.client.AddNodeType(ctx, env.ref, opts)
	if err != nil {
		t.Fatalf("AddNodeType() unexpected error: %v", err)
	}

	var props ClusterProperties
	if err := cluster.DecodeProperties(&props); err != nil {
		t.Fatal(err)
	}
	if len(props.NodeTypes) != 2 {
		t.Fatalf("NodeTypes = %d, want 2", len(props.NodeTypes))
	}
	nt := props.NodeTypes[1]
	if nt.Name != "nt2" || nt.VMInstanceCount != 5 || nt.DurabilityLevel != "Gold" || nt.IsPrimary {
		t.Errorf("new node type = %+v", nt)
	}

	vmss := env.scaleSet(t, "nt2")
	if vmss.capacity() != 5 || vmss.SKU.Name != "Standard_D15_v2" {
		t.Errorf("scale set sku = %+v", vmss.SKU)
	}
	settings, _ := vmss.fabricSettings()
	if settings["nodeTypeRef"] != "nt2" || settings["durabilityLevel"] != "Gold" {
		t.Errorf("extension settings = %v", settings)
	}
	osProfile := object(vmss.vmProfile(), "osProfile")
	if osProfile["adminUsername"] != "admin" || osProfile["adminPassword"] != "Pass@Word2" {
		t.Errorf("osProfile = %v", osProfile)
	}

	if _, err := env.client.AddNodeType(ctx, env.ref, opts); err == nil {
		t.Error("AddNodeType() expected error for a duplicate node type")
	}
	opts.Name, opts.VMSKU = "nt3", "Standard_D2_V2"
	if _, err := env.client.AddNodeType(ctx, env.ref, opts); err == nil {
		t.Error("AddNodeType() expected error for Gold on a small VM")
	}
}

func TestWaitCluster(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t).withCluster(t)
	fast := WaitOptions{Interval: time.Millisecond, Timeout: time.Second}

	if _, err := env.client.WaitCluster(ctx, env.ref, fast); err != nil {
		t.Errorf("WaitCluster() unexpected error: %v", err)
	}

	failed := env.client.Ref(testGroup, "broken")
	env.rm.Seed(&cloud.Resource{
		ID:         failed.ID(),
		Name:       "broken",
		Properties: map[string]any{"provisioningState": "Failed"},
	})
	if _, err := env.client.WaitCluster(ctx, failed, fast); !errors.Is(err, ErrClusterFailed) {
		t.Errorf("WaitCluster() error = %v, want ErrClusterFailed", err)
	}

	gone := env.client.Ref(testGroup, "gone")
	deleted := fast
	deleted.Deleted = true
	if _, err := env.client.WaitCluster(ctx, gone, deleted); err != nil {
		t.Errorf("WaitCluster(deleted) unexpected error: %v", err)
	}

	ready := fast
	ready.ClusterState = "Ready"
	ready.Timeout = 20 * time.Millisecond
	if _, err := env.client.WaitCluster(ctx, env.ref, ready); err == nil {
		t.Error("WaitCluster() should time out while clusterState is not Ready")
	}
}
