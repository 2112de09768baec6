package azure

import (
	"context"

	"github.com/estudosdevops/fabricctl/internal/cloud"
)

// GetSecret reads a secret by its full identifier.
func (p *AzureProvider) GetSecret(ctx context.Context, secretID string) (*cloud.Secret, error) {
	ref, err := cloud.ParseSecretID(secretID)
	if err != nil {
		return nil, err
	}

	client, err := p.sessionManager.GetSecretsClient(ref.VaultURL)
	if err != nil {
		return nil, err
	}

	p.log.Debug("Reading Key Vault secret", "vault", ref.VaultURL, "secret", ref.Name, "version", ref.Version)

	resp, err := client.GetSecret(ctx, ref.Name, ref.Version, nil)
	if err != nil {
		return nil, mapError(err, "secret "+ref.Name)
	}

	secret := &cloud.Secret{
		ID:          secretID,
		Value:       deref(resp.Value),
		ContentType: deref(resp.ContentType),
	}
	if resp.ID != nil {
		secret.ID = string(*resp.ID)
	}
	return secret, nil
}
