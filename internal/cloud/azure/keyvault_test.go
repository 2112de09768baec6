package azure

import (
	"context"
	"testing"
)

// TestAzureProvider_GetSecret_MalformedID tests the identifier is checked before any call
func TestAzureProvider_GetSecret_MalformedID(t *testing.T) {
	rt := &routeTransport{}
	p := newTestProvider(t, rt, "")

	if _, err := p.GetSecret(context.Background(), "not-a-url"); err == nil {
		t.Error("GetSecret() expected error for malformed identifier")
	}
	if len(rt.requests) != 0 {
		t.Errorf("GetSecret() sent %d requests for a malformed identifier", len(rt.requests))
	}
}
