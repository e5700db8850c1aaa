package verify

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corsair-io/corsair/pkg/identity"
	"github.com/corsair-io/corsair/pkg/netguard"
)

// KeyResolver resolves the Ed25519 public key that should have signed a
// marque carrying issuer iss and header kid.
type KeyResolver interface {
	Resolve(ctx context.Context, iss, kid string) (ed25519.PublicKey, IssuerTier, error)
}

// PEMKeyResolver always returns one pinned key, ignoring iss/kid — the
// verifier operator has already decided to trust this key directly.
type PEMKeyResolver struct {
	Key ed25519.PublicKey
}

// ParsePEMPublicKey decodes a PEM-encoded SubjectPublicKeyInfo block into
// an Ed25519 public key, for CLI flags like --pubkey.
func ParsePEMPublicKey(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("verify: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("verify: parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("verify: key in PEM block is not Ed25519")
	}
	return pub, nil
}

func (r PEMKeyResolver) Resolve(_ context.Context, _, _ string) (ed25519.PublicKey, IssuerTier, error) {
	return r.Key, TierPinnedKey, nil
}

// DIDWebResolver fetches the issuer's did:web document over an
// SSRF-guarded HTTPS client and resolves kid to a verificationMethod.
type DIDWebResolver struct {
	Timeout time.Duration
}

// NewDIDWebResolver returns a resolver with a sane default timeout.
func NewDIDWebResolver() *DIDWebResolver {
	return &DIDWebResolver{Timeout: 5 * time.Second}
}

func (r *DIDWebResolver) Resolve(ctx context.Context, iss, kid string) (ed25519.PublicKey, IssuerTier, error) {
	docURL, err := didWebDocumentURL(iss)
	if err != nil {
		return nil, "", err
	}
	u, err := netguard.ValidatedHTTPSURL(docURL)
	if err != nil {
		return nil, "", err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := netguard.Client(timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("verify: build did:web request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("verify: fetch did:web document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("verify: did:web document fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "", fmt.Errorf("verify: read did:web document: %w", err)
	}

	var doc identity.DIDDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, "", fmt.Errorf("verify: parse did:web document: %w", err)
	}
	if doc.ID != iss {
		return nil, "", fmt.Errorf("verify: did:web document id %q does not match issuer %q", doc.ID, iss)
	}

	methodID := iss + "#" + kid
	for _, vm := range doc.VerificationMethod {
		if vm.ID != methodID {
			continue
		}
		pub, err := identity.DecodeMultibaseEd25519(vm.PublicKeyMultibase)
		if err != nil {
			return nil, "", fmt.Errorf("verify: decode verification method %q: %w", methodID, err)
		}
		return pub, TierDIDWeb, nil
	}
	return nil, "", fmt.Errorf("verify: no verificationMethod %q in did:web document", methodID)
}

// didWebDocumentURL maps "did:web:example.com" to
// "https://example.com/.well-known/did.json" per the did:web method spec.
func didWebDocumentURL(did string) (string, error) {
	const prefix = "did:web:"
	if !strings.HasPrefix(did, prefix) {
		return "", fmt.Errorf("verify: issuer %q is not a did:web identifier", did)
	}
	domain := strings.TrimPrefix(did, prefix)
	if domain == "" {
		return "", fmt.Errorf("verify: empty did:web domain")
	}
	return "https://" + domain + "/.well-known/did.json", nil
}
