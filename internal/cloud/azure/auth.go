package azure

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azcloud "github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// correlationHeader is sent on every ARM request so a whole CLI invocation
// can be traced on the provider side with a single ID.
const correlationHeader = "x-ms-correlation-request-id"

// AuthConfig holds Azure authentication configuration options.
type AuthConfig struct {
	TenantID string // Tenant to authenticate against (optional)
	Cloud    string // AzurePublic, AzureGovernment or AzureChina (default AzurePublic)
}

// CloudNames are the accepted --cloud values.
var CloudNames = []string{"AzurePublic", "AzureGovernment", "AzureChina"}

// CloudConfiguration maps a cloud name to the azcore configuration.
// Matching is case-insensitive; empty means AzurePublic.
func CloudConfiguration(name string) (azcloud.Configuration, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "azurepublic", "azurecloud":
		return azcloud.AzurePublic, nil
	case "azuregovernment", "azureusgovernment":
		return azcloud.AzureGovernment, nil
	case "azurechina", "azurechinacloud":
		return azcloud.AzureChina, nil
	default:
		return azcloud.Configuration{}, fmt.Errorf("unsupported Azure cloud: %s (supported: %s)", name, strings.Join(CloudNames, ", "))
	}
}

// NewCredential builds the default credential chain: environment, workload
// identity, managed identity, Azure CLI and Azure Developer CLI.
func NewCredential(authConfig AuthConfig) (azcore.TokenCredential, error) {
	cloudCfg, err := CloudConfiguration(authConfig.Cloud)
	if err != nil {
		return nil, err
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		ClientOptions: azcore.ClientOptions{Cloud: cloudCfg},
		TenantID:      authConfig.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential for tenant '%s': %w", authConfig.TenantID, err)
	}

	return cred, nil
}

// correlationPolicy stamps every request with the invocation correlation ID.
type correlationPolicy struct {
	id string
}

// Do implements policy.Policy.
func (p correlationPolicy) Do(req *policy.Request) (*http.Response, error) {
	if p.id != "" {
		req.Raw().Header.Set(correlationHeader, p.id)
	}
	return req.Next()
}
