package azure

import (
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	azfake "github.com/Azure/azure-sdk-for-go/sdk/azcore/fake"
)

// ============================================================
// CONCEPT: Session Manager Testing
// 🎓 SessionManager pools SDK clients per subscription (or vault).
// We test caching, concurrent access and cleanup.
// ============================================================

func newTestSessionManager() *SessionManager {
	return NewSessionManager(&azfake.TokenCredential{}, arm.ClientOptions{})
}

// TestNewSessionManager tests the creation of a new session manager
func TestNewSessionManager(t *testing.T) {
	sm := newTestSessionManager()

	stats := sm.GetStats()
	if stats["total"] != 0 {
		t.Errorf("New SessionManager should have total=0, but has %d", stats["total"])
	}
}

// TestSessionManager_Caching tests that the same client is returned per key
func TestSessionManager_Caching(t *testing.T) {
	sm := newTestSessionManager()

	first, err := sm.GetDeploymentsClient(testSubscription)
	if err != nil {
		t.Fatalf("GetDeploymentsClient() unexpected error: %v", err)
	}
	second, err := sm.GetDeploymentsClient(testSubscription)
	if err != nil {
		t.Fatalf("GetDeploymentsClient() unexpected error: %v", err)
	}
	if first != second {
		t.Error("GetDeploymentsClient() should return the cached client")
	}

	if _, err := sm.GetSecretsClient("https://kv-a.vault.azure.net"); err != nil {
		t.Fatalf("GetSecretsClient() unexpected error: %v", err)
	}
	if _, err := sm.GetSecretsClient("https://kv-b.vault.azure.net"); err != nil {
		t.Fatalf("GetSecretsClient() unexpected error: %v", err)
	}

	stats := sm.GetStats()
	if stats["deployments"] != 1 {
		t.Errorf("deployments = %d, want 1", stats["deployments"])
	}
	if stats["secrets"] != 2 {
		t.Errorf("secrets = %d, want 2", stats["secrets"])
	}
	if stats["total"] != 3 {
		t.Errorf("total = %d, want 3", stats["total"])
	}
}

// TestSessionManager_ConcurrentAccess tests double-checked locking
func TestSessionManager_ConcurrentAccess(t *testing.T) {
	sm := newTestSessionManager()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sm.GetResourcesClient(testSubscription); err != nil {
				t.Errorf("GetResourcesClient() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := sm.GetStats()["resources"]; got != 1 {
		t.Errorf("resources = %d, want 1 after concurrent access", got)
	}
}

// TestSessionManager_Close tests pool cleanup
func TestSessionManager_Close(t *testing.T) {
	sm := newTestSessionManager()

	if _, err := sm.GetResourceGroupsClient(testSubscription); err != nil {
		t.Fatalf("GetResourceGroupsClient() unexpected error: %v", err)
	}
	if _, err := sm.GetPipeline(testSubscription); err != nil {
		t.Fatalf("GetPipeline() unexpected error: %v", err)
	}

	sm.Close()

	if got := sm.GetStats()["total"]; got != 0 {
		t.Errorf("total = %d after Close(), want 0", got)
	}
}
