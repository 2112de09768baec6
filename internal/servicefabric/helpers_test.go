package servicefabric

import (
	"context"
	"testing"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/cloud/cloudtest"
	"github.com/estudosdevops/fabricctl/internal/logger"
)

const (
	testSubscription = "00000000-0000-0000-0000-000000000000"
	testGroup        = "sfrg"
	testCluster      = "sfcluster"
	testSecretID     = "https://kv-sf.vault.azure.net/secrets/clustercert/0123"
)

type testEnv struct {
	client     *Client
	rm         *cloudtest.ResourceManager
	ref        ClusterRef
	thumbprint string
}

// newTestEnv builds a fake with a resource group, a vault and a
// certificate secret. The cluster itself is not created.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rm := cloudtest.New(testSubscription)
	rm.OnDeploy = cloudtest.MaterializeTemplate
	rm.AddResourceGroup(testGroup, "westus")
	rm.Seed(&cloud.Resource{
		ID:   "/subscriptions/" + testSubscription + "/resourceGroups/" + testGroup + "/providers/Microsoft.KeyVault/vaults/kv-sf",
		Name: "kv-sf",
		Type: "Microsoft.KeyVault/vaults",
	})
	secret, thumbprint := cloudtest.CertificateSecret(t, testSecretID)
	rm.AddSecret(secret)

	client := New(rm, logger.Discard())
	return &testEnv{client: client, rm: rm, ref: client.Ref(testGroup, testCluster), thumbprint: thumbprint}
}

// withCluster creates the default five node cluster.
func (e *testEnv) withCluster(t *testing.T) *testEnv {
	t.Helper()
	_, err := e.client.CreateCluster(context.Background(), e.ref, ClusterCreateOptions{
		SecretIdentifier: testSecretID,
		VMPassword:       "Pass@Word1",
	})
	if err != nil {
		t.Fatalf("CreateCluster() unexpected error: %v", err)
	}
	return e
}

func (e *testEnv) clusterProps(t *testing.T) *ClusterProperties {
	t.Helper()
	_, props, err := e.client.loadCluster(context.Background(), e.ref)
	if err != nil {
		t.Fatalf("loadCluster() unexpected error: %v", err)
	}
	return props
}

func (e *testEnv) scaleSet(t *testing.T, nodeType string) scaleSet {
	t.Helper()
	s, err := e.client.loadScaleSet(context.Background(), e.ref, nodeType)
	if err != nil {
		t.Fatalf("loadScaleSet(%s) unexpected error: %v", nodeType, err)
	}
	return s
}

func int64p(v int64) *int64 { return &v }
