package cloudtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/estudosdevops/fabricctl/internal/cloud"
)

// CertificateSecret builds a PEM secret holding a fresh self-signed
// certificate and returns it with its thumbprint.
func CertificateSecret(tb testing.TB, secretID string) (*cloud.Secret, string) {
	tb.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		tb.Fatalf("failed to generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "sf.contoso.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		tb.Fatalf("failed to create certificate: %v", err)
	}

	secret := &cloud.Secret{
		ID:          secretID,
		Value:       string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		ContentType: "application/x-pem-file",
	}
	thumbprint, err := cloud.CertificateThumbprint(secret)
	if err != nil {
		tb.Fatalf("failed to compute thumbprint: %v", err)
	}
	return secret, thumbprint
}
