package cloud

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

const (
	contentTypePKCS12 = "application/x-pkcs12"
	contentTypePEM    = "application/x-pem-file"
)

// SecretRef is a parsed Key Vault secret identifier.
type SecretRef struct {
	VaultURL string // https://<vault>.vault.azure.net
	Name     string
	Version  string // empty means latest
}

// ParseSecretID splits https://<vault>/secrets/<name>[/<version>].
func ParseSecretID(secretID string) (*SecretRef, error) {
	u, err := url.Parse(secretID)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid secret identifier %q: expected https://<vault>/secrets/<name>[/<version>]", secretID)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "secrets" || parts[1] == "" {
		return nil, fmt.Errorf("invalid secret identifier %q: expected https://<vault>/secrets/<name>[/<version>]", secretID)
	}

	ref := &SecretRef{
		VaultURL: u.Scheme + "://" + u.Host,
		Name:     parts[1],
	}
	if len(parts) == 3 {
		ref.Version = parts[2]
	}
	return ref, nil
}

// VaultName returns the vault name, the first label of the vault host.
func (r *SecretRef) VaultName() string {
	host := strings.TrimPrefix(r.VaultURL, "https://")
	name, _, _ := strings.Cut(host, ".")
	return name
}

// CertificateThumbprint returns the uppercase SHA-1 thumbprint of the
// certificate stored in a Key Vault secret. PKCS#12 secrets are base64
// encoded with an empty password; PEM secrets are used as-is.
func CertificateThumbprint(secret *Secret) (string, error) {
	if secret == nil || secret.Value == "" {
		return "", errors.New("secret has no value")
	}

	var blocks []*pem.Block

	switch strings.ToLower(secret.ContentType) {
	case contentTypePEM:
		rest := []byte(secret.Value)
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				break
			}
			blocks = append(blocks, block)
		}
	case contentTypePKCS12, "":
		raw, err := base64.StdEncoding.DecodeString(secret.Value)
		if err != nil {
			return "", fmt.Errorf("secret %s is not base64 encoded: %w", secret.ID, err)
		}
		blocks, err = pkcs12.ToPEM(raw, "")
		if err != nil {
			return "", fmt.Errorf("failed to decode PKCS#12 secret %s: %w", secret.ID, err)
		}
	default:
		return "", fmt.Errorf("unsupported secret content type %q", secret.ContentType)
	}

	for _, block := range blocks {
		if block.Type == "CERTIFICATE" {
			sum := sha1.Sum(block.Bytes)
			return strings.ToUpper(hex.EncodeToString(sum[:])), nil
		}
	}
	return "", fmt.Errorf("secret %s contains no certificate", secret.ID)
}
