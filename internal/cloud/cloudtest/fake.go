// Package cloudtest provides an in-memory cloud.ResourceManager for tests.
package cloudtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/flags"
)

// DeploymentCall records one CreateOrUpdateDeployment invocation.
type DeploymentCall struct {
	ResourceGroup string
	Name          string
	Deployment    *cloud.Deployment
}

// ResourceManager keeps resources in a map keyed by lower-cased ID.
// Every write completes synchronously with provisioningState Succeeded.
type ResourceManager struct {
	Subscription string

	// ValidationError, when set, is returned by every ValidateDeployment.
	ValidationError *cloud.ErrorDetail

	// OnDeploy runs inside CreateOrUpdateDeployment; it may Put resources
	// the template would have created.
	OnDeploy func(rm *ResourceManager, call DeploymentCall) error

	mu          sync.Mutex
	resources   map[string]*cloud.Resource
	locations   map[string]string
	secrets     map[string]*cloud.Secret
	validations int
	deployments []DeploymentCall
}

// New returns an empty fake bound to subscription.
func New(subscription string) *ResourceManager {
	return &ResourceManager{
		Subscription: subscription,
		resources:    make(map[string]*cloud.Resource),
		locations:    make(map[string]string),
		secrets:      make(map[string]*cloud.Secret),
	}
}

// AddResourceGroup registers a resource group location.
func (f *ResourceManager) AddResourceGroup(name, location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations[strings.ToLower(name)] = location
}

// AddSecret registers a Key Vault secret by identifier.
func (f *ResourceManager) AddSecret(secret *cloud.Secret) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[secret.ID] = secret
}

// Seed stores a resource without going through PutResource.
func (f *ResourceManager) Seed(r *cloud.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[strings.ToLower(r.ID)] = clone(r)
}

// Validations returns how many times ValidateDeployment was called.
func (f *ResourceManager) Validations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validations
}

// Deployments returns the recorded deployment submissions.
func (f *ResourceManager) Deployments() []DeploymentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeploymentCall(nil), f.deployments...)
}

// Name implements cloud.ResourceManager.
func (*ResourceManager) Name() string { return "fake" }

// SubscriptionID implements cloud.ResourceManager.
func (f *ResourceManager) SubscriptionID() string { return f.Subscription }

// ResourceGroupLocation implements cloud.ResourceManager.
func (f *ResourceManager) ResourceGroupLocation(_ context.Context, resourceGroup string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.locations[strings.ToLower(resourceGroup)]
	if !ok {
		return "", fmt.Errorf("%w: resource group %s", cloud.ErrNotFound, resourceGroup)
	}
	return loc, nil
}

// ValidateDeployment implements cloud.ResourceManager.
func (f *ResourceManager) ValidateDeployment(_ context.Context, _, _ string, _ *cloud.Deployment) (*cloud.ErrorDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations++
	return f.ValidationError, nil
}

// CreateOrUpdateDeployment implements cloud.ResourceManager.
func (f *ResourceManager) CreateOrUpdateDeployment(_ context.Context, resourceGroup, name string, deployment *cloud.Deployment) (*cloud.DeploymentResult, error) {
	call := DeploymentCall{ResourceGroup: resourceGroup, Name: name, Deployment: deployment}

	f.mu.Lock()
	f.deployments = append(f.deployments, call)
	hook := f.OnDeploy
	f.mu.Unlock()

	if hook != nil {
		if err := hook(f, call); err != nil {
			return nil, err
		}
	}

	return &cloud.DeploymentResult{
		ID:                fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Resources/deployments/%s", f.Subscription, resourceGroup, name),
		Name:              name,
		ProvisioningState: "Succeeded",
	}, nil
}

// GetResource implements cloud.ResourceManager.
func (f *ResourceManager) GetResource(_ context.Context, id, _ string) (*cloud.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cloud.ErrNotFound, id)
	}
	return clone(r), nil
}

// PutResource implements cloud.ResourceManager.
func (f *ResourceManager) PutResource(_ context.Context, id, _ string, resource *cloud.Resource) (*cloud.Resource, error) {
	stored := clone(resource)
	stored.ID = id
	stored.Name = lastSegment(id)
	stored.Type = resourceType(id)
	if stored.Properties == nil {
		stored.Properties = map[string]any{}
	}
	stored.Properties["provisioningState"] = "Succeeded"

	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[strings.ToLower(id)] = stored
	return clone(stored), nil
}

// DeleteResource implements cloud.ResourceManager. Children go with the parent.
func (f *ResourceManager) DeleteResource(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.ToLower(id)
	if _, ok := f.resources[key]; !ok {
		return fmt.Errorf("%w: %s", cloud.ErrNotFound, id)
	}
	for k := range f.resources {
		if k == key || strings.HasPrefix(k, key+"/") {
			delete(f.resources, k)
		}
	}
	return nil
}

// ListChildren implements cloud.ResourceManager.
func (f *ResourceManager) ListChildren(_ context.Context, collectionID, _ string) ([]*cloud.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := strings.ToLower(strings.TrimSuffix(collectionID, "/")) + "/"
	var out []*cloud.Resource
	for k, r := range f.resources {
		rest, ok := strings.CutPrefix(k, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			out = append(out, clone(r))
		}
	}
	// cluster listing at subscription scope spans resource groups
	if len(out) == 0 && !strings.Contains(prefix, "/resourcegroups/") {
		suffix := "/providers/" + strings.ToLower(afterProviders(collectionID)) + "/"
		for k, r := range f.resources {
			i := strings.Index(k, suffix)
			if i < 0 {
				continue
			}
			if rest := k[i+len(suffix):]; rest != "" && !strings.Contains(rest, "/") {
				out = append(out, clone(r))
			}
		}
	}
	sortByID(out)
	return out, nil
}

// ListByType implements cloud.ResourceManager.
func (f *ResourceManager) ListByType(_ context.Context, resourceGroup, typ string) ([]*cloud.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rgSegment := "/resourcegroups/" + strings.ToLower(resourceGroup) + "/"
	var out []*cloud.Resource
	for k, r := range f.resources {
		if !strings.EqualFold(r.Type, typ) {
			continue
		}
		if resourceGroup != "" && !strings.Contains(k, rgSegment) {
			continue
		}
		out = append(out, clone(r))
	}
	sortByID(out)
	return out, nil
}

// GetSecret implements cloud.ResourceManager.
func (f *ResourceManager) GetSecret(_ context.Context, secretID string) (*cloud.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.secrets[secretID]
	if !ok {
		return nil, fmt.Errorf("%w: secret %s", cloud.ErrNotFound, secretID)
	}
	cp := *s
	return &cp, nil
}

func clone(r *cloud.Resource) *cloud.Resource {
	raw, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	out := &cloud.Resource{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	// a volta pelo JSON ordena as chaves; mapas ordenados são copiados como estão
	for k, v := range r.Properties {
		if m, ok := v.(*flags.OrderedMap); ok {
			out.Properties[k] = m.Clone()
		}
	}
	return out
}

func lastSegment(id string) string {
	id = strings.TrimSuffix(id, "/")
	return id[strings.LastIndex(id, "/")+1:]
}

func afterProviders(id string) string {
	_, rest, _ := strings.Cut(id, "/providers/")
	return rest
}

// resourceType derives Namespace/type[/childType...] from a resource ID.
func resourceType(id string) string {
	rest := afterProviders(id)
	if rest == "" {
		return ""
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	typ := []string{parts[0]}
	for i := 1; i < len(parts); i += 2 {
		typ = append(typ, parts[i])
	}
	return strings.Join(typ, "/")
}

func sortByID(rs []*cloud.Resource) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
