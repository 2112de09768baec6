package provider

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/cloud/azure"
)

// ProviderType represents supported resource manager backends
type ProviderType string

const (
	// ProviderAzure represents Azure Resource Manager
	ProviderAzure ProviderType = "azure"
)

// Config holds configuration for provider initialization.
// Used with functional options pattern for flexible provider creation.
type Config struct {
	// SubscriptionID scopes every resource ID the provider builds
	SubscriptionID string

	// TenantID restricts authentication to one directory (optional)
	TenantID string

	// Cloud selects the sovereign cloud: AzurePublic, AzureGovernment, AzureChina
	Cloud string

	// CorrelationID is sent on every request of one invocation
	CorrelationID string

	// PollFrequency overrides how often long-running operations are polled
	PollFrequency time.Duration

	// Logger receives the provider's debug logs
	Logger *slog.Logger
}

// Option is a functional option for configuring Config
type Option func(*Config)

// WithSubscription sets the subscription
func WithSubscription(subscriptionID string) Option {
	return func(c *Config) {
		c.SubscriptionID = subscriptionID
	}
}

// WithTenant sets the tenant used for authentication
func WithTenant(tenantID string) Option {
	return func(c *Config) {
		c.TenantID = tenantID
	}
}

// WithCloud sets the sovereign cloud
func WithCloud(name string) Option {
	return func(c *Config) {
		c.Cloud = name
	}
}

// WithCorrelationID sets the request correlation ID
func WithCorrelationID(id string) Option {
	return func(c *Config) {
		c.CorrelationID = id
	}
}

// WithPollFrequency sets the long-running operation poll interval
func WithPollFrequency(d time.Duration) Option {
	return func(c *Config) {
		c.PollFrequency = d
	}
}

// WithLogger sets the logger the provider writes to
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// NewProvider creates a resource manager for the given backend.
// Uses Factory Pattern to keep provider construction out of the CLI layer.
//
// Parameters:
//   - providerType: backend name ("azure")
//   - options: Functional options for provider configuration
//
// Returns:
//   - cloud.ResourceManager: Initialized provider instance
//   - error: Error if the backend is unsupported or initialization fails
//
// Example usage:
//
//	rm, err := provider.NewProvider("azure",
//	    provider.WithSubscription(sub),
//	    provider.WithCloud("AzurePublic"),
//	)
func NewProvider(providerType string, options ...Option) (cloud.ResourceManager, error) {
	config := &Config{}
	for _, opt := range options {
		opt(config)
	}

	normalizedType := strings.ToLower(strings.TrimSpace(providerType))

	switch ProviderType(normalizedType) {
	case ProviderAzure:
		return azure.NewAzureProvider(azure.Config{
			SubscriptionID: config.SubscriptionID,
			TenantID:       config.TenantID,
			Cloud:          config.Cloud,
			CorrelationID:  config.CorrelationID,
			PollFrequency:  config.PollFrequency,
			Logger:         config.Logger,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: %s)", providerType, strings.Join(GetSupportedProviders(), ", "))
	}
}

// GetSupportedProviders returns list of supported provider types.
// Useful for CLI help text and validation.
func GetSupportedProviders() []string {
	return []string{string(ProviderAzure)}
}

// IsProviderSupported checks if a provider type is supported.
// Case-insensitive comparison.
func IsProviderSupported(providerType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(providerType))
	return ProviderType(normalized) == ProviderAzure
}
