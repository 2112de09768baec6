package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (wrapped) by every ResourceManager operation when the
// control plane reports that the addressed resource does not exist.
var ErrNotFound = errors.New("resource not found")

// DeploymentModeIncremental deploys template resources without deleting the
// resources of the group that are not in the template.
const DeploymentModeIncremental = "Incremental"

// ResourceManager abstracts the cloud control plane that owns every cluster,
// application and service resource. The Azure implementation lives in
// internal/cloud/azure; tests use internal/cloud/cloudtest.
type ResourceManager interface {
	// Name returns the provider name (azure)
	Name() string

	// SubscriptionID returns the subscription every resource ID is built under.
	SubscriptionID() string

	// ResourceGroupLocation resolves the location of an existing resource group.
	ResourceGroupLocation(ctx context.Context, resourceGroup string) (string, error)

	// ValidateDeployment submits a template for validation only.
	// A non-nil *ErrorDetail means the provider rejected the template;
	// the error return is reserved for transport failures.
	ValidateDeployment(ctx context.Context, resourceGroup, name string, deployment *Deployment) (*ErrorDetail, error)

	// CreateOrUpdateDeployment submits the template and polls the long-running
	// operation until it completes.
	CreateOrUpdateDeployment(ctx context.Context, resourceGroup, name string, deployment *Deployment) (*DeploymentResult, error)

	// GetResource reads a resource by its full ID.
	GetResource(ctx context.Context, id, apiVersion string) (*Resource, error)

	// PutResource creates or replaces a resource and waits for the operation.
	PutResource(ctx context.Context, id, apiVersion string, resource *Resource) (*Resource, error)

	// DeleteResource deletes a resource and waits for the operation.
	DeleteResource(ctx context.Context, id, apiVersion string) error

	// ListChildren lists a child collection (e.g. <clusterID>/applications).
	ListChildren(ctx context.Context, collectionID, apiVersion string) ([]*Resource, error)

	// ListByType lists top-level resources of a type, optionally scoped to a
	// resource group (empty = whole subscription).
	ListByType(ctx context.Context, resourceGroup, resourceType string) ([]*Resource, error)

	// GetSecret reads a Key Vault secret by its full identifier URL.
	GetSecret(ctx context.Context, secretID string) (*Secret, error)
}

// Resource is a generic ARM resource. Properties is kept as a free-form
// object so read-modify-write cycles keep fields this tool does not know.
type Resource struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Type       string            `json:"type,omitempty"`
	Location   string            `json:"location,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	SKU        *SKU              `json:"sku,omitempty"`
	Properties map[string]any    `json:"properties,omitempty"`
}

// SKU mirrors the ARM sku block (used by scale sets).
type SKU struct {
	Name     string `json:"name,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Capacity *int64 `json:"capacity,omitempty"`
}

// ProvisioningState returns properties.provisioningState, if present.
func (r *Resource) ProvisioningState() string {
	s, _ := r.Properties["provisioningState"].(string)
	return s
}

// DecodeProperties converts the free-form properties into a typed struct.
func (r *Resource) DecodeProperties(v any) error {
	raw, err := json.Marshal(r.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode properties of %s: %w", r.ID, err)
	}
	return nil
}

// EncodeProperties converts a typed properties struct into the free-form map.
func EncodeProperties(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	props := map[string]any{}
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return props, nil
}

// Deployment is a named template submission.
type Deployment struct {
	Template   map[string]any
	Parameters map[string]any
	Mode       string
}

// DeploymentResult is the final state of a completed deployment.
type DeploymentResult struct {
	ID                string         `json:"id,omitempty"`
	Name              string         `json:"name,omitempty"`
	ProvisioningState string         `json:"provisioningState,omitempty"`
	Outputs           map[string]any `json:"outputs,omitempty"`
}

// ErrorDetail is the provider-defined error tree returned by validation.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Target  string         `json:"target,omitempty"`
	Details []*ErrorDetail `json:"details,omitempty"`
}

// Secret is a Key Vault secret value.
type Secret struct {
	ID          string
	Value       string
	ContentType string
}

// ChildID joins a parent resource ID with child segments.
// ChildID("/a/clusters/c", "applications", "app") = "/a/clusters/c/applications/app"
func ChildID(parent string, segments ...string) string {
	return strings.TrimSuffix(parent, "/") + "/" + strings.Join(segments, "/")
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
