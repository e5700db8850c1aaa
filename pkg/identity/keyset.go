// Package identity owns the CORSAIR issuer's Ed25519 signing key: its
// file-backed persistence, scoped in-memory acquisition, and the DID:web
// document derived from the public half.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet signs JWT claims with the active issuer key and resolves
// verification keys by kid.
type KeySet interface {
	Sign(ctx context.Context, claims jwt.Claims) (string, error)
	SignWithHeader(ctx context.Context, claims jwt.Claims, header map[string]string) (string, error)
	KeyFunc() jwt.Keyfunc
	KID() string
	PublicKey() ed25519.PublicKey
}

// InMemoryKeySet is a single-key, single-writer KeySet. CORSAIR does not
// rotate the issuer key mid-chain (a rotation is a new DID document and a
// "key.rotated" event, not an in-place swap) so there is exactly one
// active key and its kid is stable for the process lifetime.
type InMemoryKeySet struct {
	mu      sync.RWMutex
	kid     string
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// NewInMemoryKeySet wraps an existing keypair with the given kid.
func NewInMemoryKeySet(kid string, priv ed25519.PrivateKey) *InMemoryKeySet {
	return &InMemoryKeySet{
		kid:     kid,
		private: priv,
		public:  priv.Public().(ed25519.PublicKey),
	}
}

// GenerateInMemoryKeySet creates a fresh Ed25519 keypair under kid "key-1".
func GenerateInMemoryKeySet() (*InMemoryKeySet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: key generation failed: %w", err)
	}
	return &InMemoryKeySet{kid: "key-1", private: priv, public: pub}, nil
}

// Sign produces a compact JWT over claims using EdDSA under the active key.
// Takes a scoped read lock for the duration of signing: the private key is
// a single-writer resource but signing itself never mutates key state.
func (ks *InMemoryKeySet) Sign(_ context.Context, claims jwt.Claims) (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key := ks.private
	kid := ks.kid

	if key == nil {
		return "", fmt.Errorf("identity: no active key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(key)
}

// SignWithHeader is Sign with additional header fields merged in before the
// active kid is set (typ overrides for credential media types such as
// "vc+jwt"; kid from header is ignored, the active key's kid always wins).
func (ks *InMemoryKeySet) SignWithHeader(_ context.Context, claims jwt.Claims, header map[string]string) (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key := ks.private
	kid := ks.kid

	if key == nil {
		return "", fmt.Errorf("identity: no active key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	for k, v := range header {
		token.Header[k] = v
	}
	token.Header["kid"] = kid
	return token.SignedString(key)
}

// KeyFunc returns a jwt.Keyfunc that accepts only EdDSA/Ed25519 tokens and
// resolves the public key by matching the active kid.
func (ks *InMemoryKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
		}
		ks.mu.RLock()
		defer ks.mu.RUnlock()
		if kid, _ := token.Header["kid"].(string); kid != ks.kid {
			return nil, fmt.Errorf("identity: unknown kid %q", kid)
		}
		return ks.public, nil
	}
}

// KID returns the active key identifier.
func (ks *InMemoryKeySet) KID() string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.kid
}

// PublicKey returns the active public key.
func (ks *InMemoryKeySet) PublicKey() ed25519.PublicKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.public
}
