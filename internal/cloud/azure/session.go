package azure

import (
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

const (
	// moduleName and moduleVersion identify this tool in the ARM telemetry header.
	moduleName    = "fabricctl"
	moduleVersion = "v0.1.0"
)

// SessionManager caches Azure SDK clients so a command that issues several
// calls (validate, deploy, get, put) reuses one authenticated pipeline.
//
// Thread-safe for concurrent access using RWMutex.
type SessionManager struct {
	credential azcore.TokenCredential
	options    arm.ClientOptions

	deployments map[string]*armresources.DeploymentsClient // Key: subscription
	resources   map[string]*armresources.Client            // Key: subscription
	groups      map[string]*armresources.ResourceGroupsClient
	pipelines   map[string]*arm.Client       // Key: subscription
	secrets     map[string]*azsecrets.Client // Key: vault URL
	mu          sync.RWMutex
}

// NewSessionManager creates a session manager with empty pools.
func NewSessionManager(credential azcore.TokenCredential, options arm.ClientOptions) *SessionManager {
	return &SessionManager{
		credential:  credential,
		options:     options,
		deployments: make(map[string]*armresources.DeploymentsClient),
		resources:   make(map[string]*armresources.Client),
		groups:      make(map[string]*armresources.ResourceGroupsClient),
		pipelines:   make(map[string]*arm.Client),
		secrets:     make(map[string]*azsecrets.Client),
	}
}

// getOrCreate implements the double-check locking used by every getter.
func getOrCreate[T any](sm *SessionManager, pool map[string]T, key string, create func() (T, error)) (T, error) {
	// First check: read lock (allows multiple concurrent reads)
	sm.mu.RLock()
	if client, exists := pool[key]; exists {
		sm.mu.RUnlock()
		return client, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Double-check: another goroutine might have created it while we waited
	if client, exists := pool[key]; exists {
		return client, nil
	}

	client, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	pool[key] = client
	return client, nil
}

// GetDeploymentsClient returns the cached ARM deployments client for a subscription.
func (sm *SessionManager) GetDeploymentsClient(subscriptionID string) (*armresources.DeploymentsClient, error) {
	return getOrCreate(sm, sm.deployments, subscriptionID, func() (*armresources.DeploymentsClient, error) {
		client, err := armresources.NewDeploymentsClient(subscriptionID, sm.credential, &sm.options)
		if err != nil {
			return nil, fmt.Errorf("failed to create deployments client for subscription '%s': %w", subscriptionID, err)
		}
		return client, nil
	})
}

// GetResourcesClient returns the cached generic resources client.
func (sm *SessionManager) GetResourcesClient(subscriptionID string) (*armresources.Client, error) {
	return getOrCreate(sm, sm.resources, subscriptionID, func() (*armresources.Client, error) {
		client, err := armresources.NewClient(subscriptionID, sm.credential, &sm.options)
		if err != nil {
			return nil, fmt.Errorf("failed to create resources client for subscription '%s': %w", subscriptionID, err)
		}
		return client, nil
	})
}

// GetResourceGroupsClient returns the cached resource groups client.
func (sm *SessionManager) GetResourceGroupsClient(subscriptionID string) (*armresources.ResourceGroupsClient, error) {
	return getOrCreate(sm, sm.groups, subscriptionID, func() (*armresources.ResourceGroupsClient, error) {
		client, err := armresources.NewResourceGroupsClient(subscriptionID, sm.credential, &sm.options)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource groups client for subscription '%s': %w", subscriptionID, err)
		}
		return client, nil
	})
}

// GetPipeline returns the raw ARM pipeline, used for child collection listing
// which has no generic SDK operation.
func (sm *SessionManager) GetPipeline(subscriptionID string) (*arm.Client, error) {
	return getOrCreate(sm, sm.pipelines, subscriptionID, func() (*arm.Client, error) {
		client, err := arm.NewClient(moduleName, moduleVersion, sm.credential, &sm.options)
		if err != nil {
			return nil, fmt.Errorf("failed to create ARM pipeline: %w", err)
		}
		return client, nil
	})
}

// GetSecretsClient returns the cached Key Vault secrets client for a vault URL.
func (sm *SessionManager) GetSecretsClient(vaultURL string) (*azsecrets.Client, error) {
	return getOrCreate(sm, sm.secrets, vaultURL, func() (*azsecrets.Client, error) {
		client, err := azsecrets.NewClient(vaultURL, sm.credential, &azsecrets.ClientOptions{
			ClientOptions: sm.options.ClientOptions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Key Vault client for '%s': %w", vaultURL, err)
		}
		return client, nil
	})
}

// Close clears all pools.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.deployments = make(map[string]*armresources.DeploymentsClient)
	sm.resources = make(map[string]*armresources.Client)
	sm.groups = make(map[string]*armresources.ResourceGroupsClient)
	sm.pipelines = make(map[string]*arm.Client)
	sm.secrets = make(map[string]*azsecrets.Client)
}

// GetStats returns the number of cached clients per pool.
func (sm *SessionManager) GetStats() map[string]int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	stats := map[string]int{
		"deployments": len(sm.deployments),
		"resources":   len(sm.resources),
		"groups":      len(sm.groups),
		"pipelines":   len(sm.pipelines),
		"secrets":     len(sm.secrets),
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total
	return stats
}
