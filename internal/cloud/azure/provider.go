package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/logger"
)

const (
	// defaultPollFrequency is how often long-running operations are polled.
	// The SDK rejects anything under one second.
	defaultPollFrequency = 10 * time.Second
)

// Config holds the settings needed to reach one subscription.
type Config struct {
	SubscriptionID string
	TenantID       string
	Cloud          string
	CorrelationID  string
	PollFrequency  time.Duration

	// Logger receives request-level debug logs. Nil discards them.
	Logger *slog.Logger
}

// AzureProvider implements cloud.ResourceManager on top of Azure Resource
// Manager. Service Fabric resources are addressed through the generic
// by-ID operations so every api-version the CLI targets is reachable
// without a dedicated management SDK.
type AzureProvider struct {
	sessionManager *SessionManager
	subscriptionID string
	pollFrequency  time.Duration
	log            *slog.Logger
}

// NewAzureProvider authenticates with the default credential chain and
// returns a provider bound to cfg.SubscriptionID.
//
// Parameters:
//   - cfg: subscription, tenant, cloud and correlation settings
//
// Returns:
//   - *AzureProvider: provider ready for use
//   - error: if the subscription is missing, the cloud is unknown or
//     the credential chain cannot be built
//
// Example usage:
//
//	p, err := azure.NewAzureProvider(azure.Config{SubscriptionID: sub})
//	if err != nil {
//	    return fmt.Errorf("failed to create Azure provider: %w", err)
//	}
func NewAzureProvider(cfg Config) (*AzureProvider, error) {
	if cfg.SubscriptionID == "" {
		return nil, errors.New("subscription cannot be empty (use --subscription or AZURE_SUBSCRIPTION_ID)")
	}

	cloudCfg, err := CloudConfiguration(cfg.Cloud)
	if err != nil {
		return nil, err
	}

	cred, err := NewCredential(AuthConfig{TenantID: cfg.TenantID, Cloud: cfg.Cloud})
	if err != nil {
		return nil, err
	}

	options := arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Cloud:           cloudCfg,
			PerCallPolicies: []policy.Policy{correlationPolicy{id: cfg.CorrelationID}},
		},
	}

	return newAzureProvider(NewSessionManager(cred, options), cfg), nil
}

func newAzureProvider(sm *SessionManager, cfg Config) *AzureProvider {
	freq := cfg.PollFrequency
	if freq < time.Second {
		freq = defaultPollFrequency
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &AzureProvider{
		sessionManager: sm,
		subscriptionID: cfg.SubscriptionID,
		pollFrequency:  freq,
		log:            log,
	}
}

// Name returns the provider name
func (*AzureProvider) Name() string {
	return "azure"
}

// SubscriptionID returns the subscription this provider is bound to.
func (p *AzureProvider) SubscriptionID() string {
	return p.subscriptionID
}

// ResourceGroupLocation resolves the location of an existing resource group.
func (p *AzureProvider) ResourceGroupLocation(ctx context.Context, resourceGroup string) (string, error) {
	client, err := p.sessionManager.GetResourceGroupsClient(p.subscriptionID)
	if err != nil {
		return "", err
	}

	resp, err := client.Get(ctx, resourceGroup, nil)
	if err != nil {
		return "", mapError(err, "resource group "+resourceGroup)
	}
	if resp.Location == nil {
		return "", fmt.Errorf("resource group %s has no location", resourceGroup)
	}
	return *resp.Location, nil
}

// ValidateDeployment submits the template to the validate endpoint.
// A rejected template comes back as HTTP 400 with the error tree in the
// body; that case is returned as the detail, not as an error.
func (p *AzureProvider) ValidateDeployment(ctx context.Context, resourceGroup, name string, deployment *cloud.Deployment) (*cloud.ErrorDetail, error) {
	client, err := p.sessionManager.GetDeploymentsClient(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	p.log.Debug("Validating deployment", "resource_group", resourceGroup, "deployment", name)

	poller, err := client.BeginValidate(ctx, resourceGroup, name, toARMDeployment(deployment), nil)
	if err != nil {
		if detail := validationErrorFrom(err); detail != nil {
			return detail, nil
		}
		return nil, mapError(err, "deployment validation")
	}

	resp, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: p.pollFrequency})
	if err != nil {
		if detail := validationErrorFrom(err); detail != nil {
			return detail, nil
		}
		return nil, mapError(err, "deployment validation")
	}

	if resp.Error != nil {
		return fromARMError(resp.Error), nil
	}
	return nil, nil
}

// CreateOrUpdateDeployment submits the template and blocks until the
// deployment reaches a terminal state.
func (p *AzureProvider) CreateOrUpdateDeployment(ctx context.Context, resourceGroup, name string, deployment *cloud.Deployment) (*cloud.DeploymentResult, error) {
	client, err := p.sessionManager.GetDeploymentsClient(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	p.log.Debug("Submitting deployment", "resource_group", resourceGroup, "deployment", name)

	poller, err := client.BeginCreateOrUpdate(ctx, resourceGroup, name, toARMDeployment(deployment), nil)
	if err != nil {
		return nil, mapError(err, "deployment "+name)
	}

	resp, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: p.pollFrequency})
	if err != nil {
		return nil, mapError(err, "deployment "+name)
	}

	result := &cloud.DeploymentResult{
		ID:   deref(resp.ID),
		Name: deref(resp.Name),
	}
	if props := resp.Properties; props != nil {
		if props.ProvisioningState != nil {
			result.ProvisioningState = string(*props.ProvisioningState)
		}
		if outputs, ok := props.Outputs.(map[string]any); ok {
			result.Outputs = outputs
		}
	}
	return result, nil
}

// GetResource reads a resource by ID.
func (p *AzureProvider) GetResource(ctx context.Context, id, apiVersion string) (*cloud.Resource, error) {
	client, err := p.sessionManager.GetResourcesClient(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetByID(ctx, id, apiVersion, nil)
	if err != nil {
		return nil, mapError(err, id)
	}
	return fromGenericResource(&resp.GenericResource)
}

// PutResource creates or replaces a resource and waits for completion.
func (p *AzureProvider) PutResource(ctx context.Context, id, apiVersion string, resource *cloud.Resource) (*cloud.Resource, error) {
	client, err := p.sessionManager.GetResourcesClient(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	payload, err := toGenericResource(resource)
	if err != nil {
		return nil, err
	}

	p.log.Debug("Writing resource", "id", id, "api_version", apiVersion)

	poller, err := client.BeginCreateOrUpdateByID(ctx, id, apiVersion, *payload, nil)
	if err != nil {
		return nil, mapError(err, id)
	}
	resp, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: p.pollFrequency})
	if err != nil {
		return nil, mapError(err, id)
	}
	return fromGenericResource(&resp.GenericResource)
}

// DeleteResource deletes a resource and waits for completion.
func (p *AzureProvider) DeleteResource(ctx context.Context, id, apiVersion string) error {
	client, err := p.sessionManager.GetResourcesClient(p.subscriptionID)
	if err != nil {
		return err
	}

	p.log.Debug("Deleting resource", "id", id, "api_version", apiVersion)

	poller, err := client.BeginDeleteByID(ctx, id, apiVersion, nil)
	if err != nil {
		return mapError(err, id)
	}
	if _, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: p.pollFrequency}); err != nil {
		return mapError(err, id)
	}
	return nil
}

// listPage is the ARM collection envelope.
type listPage struct {
	Value    []*cloud.Resource `json:"value"`
	NextLink string            `json:"nextLink"`
}

// ListChildren lists a child collection, following nextLink until the
// last page.
func (p *AzureProvider) ListChildren(ctx context.Context, collectionID, apiVersion string) ([]*cloud.Resource, error) {
	client, err := p.sessionManager.GetPipeline(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	next := runtime.JoinPaths(client.Endpoint(), collectionID) + "?api-version=" + url.QueryEscape(apiVersion)
	var all []*cloud.Resource

	for next != "" {
		req, err := runtime.NewRequest(ctx, http.MethodGet, next)
		if err != nil {
			return nil, fmt.Errorf("failed to build list request for %s: %w", collectionID, err)
		}
		req.Raw().Header.Set("Accept", "application/json")

		resp, err := client.Pipeline().Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collectionID, err)
		}
		if !runtime.HasStatusCode(resp, http.StatusOK) {
			return nil, mapError(runtime.NewResponseError(resp), collectionID)
		}

		var page listPage
		if err := runtime.UnmarshalAsJSON(resp, &page); err != nil {
			return nil, fmt.Errorf("failed to decode list of %s: %w", collectionID, err)
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}

	p.log.Debug("Listed child collection", "collection", collectionID, "count", len(all))
	return all, nil
}

// ListByType lists resources of one type, scoped to a resource group when
// one is given. The generic list API omits properties; callers that need
// them follow up with GetResource.
func (p *AzureProvider) ListByType(ctx context.Context, resourceGroup, resourceType string) ([]*cloud.Resource, error) {
	client, err := p.sessionManager.GetResourcesClient(p.subscriptionID)
	if err != nil {
		return nil, err
	}

	filter := to.Ptr(fmt.Sprintf("resourceType eq '%s'", resourceType))
	var all []*cloud.Resource

	collect := func(items []*armresources.GenericResourceExpanded) error {
		for _, item := range items {
			r, err := convert[cloud.Resource](item)
			if err != nil {
				return err
			}
			all = append(all, r)
		}
		return nil
	}

	if resourceGroup == "" {
		pager := client.NewListPager(&armresources.ClientListOptions{Filter: filter})
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapError(err, resourceType)
			}
			if err := collect(page.Value); err != nil {
				return nil, err
			}
		}
		return all, nil
	}

	pager := client.NewListByResourceGroupPager(resourceGroup, &armresources.ClientListByResourceGroupOptions{Filter: filter})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, resourceType)
		}
		if err := collect(page.Value); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// toARMDeployment builds the SDK payload.
func toARMDeployment(d *cloud.Deployment) armresources.Deployment {
	mode := armresources.DeploymentModeIncremental
	if d.Mode != "" {
		mode = armresources.DeploymentMode(d.Mode)
	}
	props := &armresources.DeploymentProperties{
		Mode:     to.Ptr(mode),
		Template: d.Template,
	}
	if d.Parameters != nil {
		props.Parameters = d.Parameters
	}
	return armresources.Deployment{Properties: props}
}

// fromARMError converts the SDK error tree, keeping child order.
func fromARMError(e *armresources.ErrorResponse) *cloud.ErrorDetail {
	if e == nil {
		return nil
	}
	detail := &cloud.ErrorDetail{
		Code:    deref(e.Code),
		Message: deref(e.Message),
		Target:  deref(e.Target),
	}
	for _, child := range e.Details {
		if c := fromARMError(child); c != nil {
			detail.Details = append(detail.Details, c)
		}
	}
	return detail
}

// validationErrorFrom extracts the error tree from a 400 validate response.
// Returns nil for anything else.
func validationErrorFrom(err error) *cloud.ErrorDetail {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusBadRequest || respErr.RawResponse == nil {
		return nil
	}

	body, readErr := runtime.Payload(respErr.RawResponse)
	if readErr != nil || len(body) == 0 {
		return nil
	}

	var envelope struct {
		Error *cloud.ErrorDetail `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || envelope.Error == nil {
		return nil
	}
	return envelope.Error
}

// notFoundError matches cloud.ErrNotFound and keeps the ARM response in
// the chain for callers that need the status or error code.
type notFoundError struct {
	what string
	resp *azcore.ResponseError
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", cloud.ErrNotFound, e.what, e.resp.ErrorCode)
}

func (e *notFoundError) Unwrap() []error {
	return []error{cloud.ErrNotFound, e.resp}
}

// mapError turns a 404 into cloud.ErrNotFound and wraps everything else
// with the name of what was being accessed.
func mapError(err error, what string) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return &notFoundError{what: what, resp: respErr}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func fromGenericResource(g *armresources.GenericResource) (*cloud.Resource, error) {
	return convert[cloud.Resource](g)
}

// toGenericResource keeps r.Properties as given so values with their own
// JSON encoding (ordered parameters) reach the wire unchanged.
func toGenericResource(r *cloud.Resource) (*armresources.GenericResource, error) {
	g, err := convert[armresources.GenericResource](r)
	if err != nil {
		return nil, err
	}
	if r.Properties != nil {
		g.Properties = r.Properties
	}
	return g, nil
}

// convert round-trips through JSON. Both sides implement the ARM wire
// shape, so this is the one place where field names are reconciled.
func convert[T any](in any) (*T, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode resource: %w", err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
