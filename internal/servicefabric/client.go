package servicefabric

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/deploy"
)

// Client runs sf operations against a ResourceManager.
type Client struct {
	rm       cloud.ResourceManager
	deployer *deploy.Deployer
	log      *slog.Logger
}

// New cria o cliente. O logger é injetado pela camada de comandos.
func New(rm cloud.ResourceManager, log *slog.Logger) *Client {
	return &Client{rm: rm, deployer: deploy.New(rm, log), log: log}
}

// Ref builds a ClusterRef in the client's subscription.
func (c *Client) Ref(resourceGroup, clusterName string) ClusterRef {
	return ClusterRef{SubscriptionID: c.rm.SubscriptionID(), ResourceGroup: resourceGroup, Name: clusterName}
}

func (c *Client) get(ctx context.Context, id, apiVersion, what string) (*cloud.Resource, error) {
	r, err := c.rm.GetResource(ctx, id, apiVersion)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar %s: %w", what, err)
	}
	return r, nil
}

func (c *Client) put(ctx context.Context, id, apiVersion, what string, r *cloud.Resource) (*cloud.Resource, error) {
	out, err := c.rm.PutResource(ctx, id, apiVersion, r)
	if err != nil {
		return nil, fmt.Errorf("falha ao gravar %s: %w", what, err)
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, collectionID, what string) ([]*cloud.Resource, error) {
	items, err := c.rm.ListChildren(ctx, collectionID, APIVersion)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar %s: %w", what, err)
	}
	return items, nil
}

func (c *Client) remove(ctx context.Context, id, what string) error {
	if err := c.rm.DeleteResource(ctx, id, APIVersion); err != nil {
		return fmt.Errorf("falha ao remover %s: %w", what, err)
	}
	return nil
}

// mergeProperties writes the typed fields over r.Properties, keeping the
// keys the typed struct does not know.
func mergeProperties(r *cloud.Resource, typed any) error {
	props, err := cloud.EncodeProperties(typed)
	if err != nil {
		return err
	}
	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
	for k, v := range props {
		r.Properties[k] = v
	}
	// read-only on write
	delete(r.Properties, "provisioningState")
	return nil
}

// Flatten merges properties into the top level, the shape every show,
// create and update command prints.
func Flatten(r *cloud.Resource) map[string]any {
	out := make(map[string]any, len(r.Properties)+6)
	for k, v := range r.Properties {
		out[k] = v
	}
	out["id"] = r.ID
	out["name"] = r.Name
	out["type"] = r.Type
	if r.Location != "" {
		out["location"] = r.Location
	}
	if len(r.Tags) > 0 {
		out["tags"] = r.Tags
	}
	if r.SKU != nil {
		out["sku"] = r.SKU
	}
	return out
}

// FlattenList wraps resources in the {"value": [...]} list envelope.
func FlattenList(rs []*cloud.Resource) map[string]any {
	value := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		value = append(value, Flatten(r))
	}
	return map[string]any{"value": value}
}
