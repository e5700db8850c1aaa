package verify

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedDIDWebResolver wraps another KeyResolver with a read-many cache of
// resolved (iss, kid) -> public key lookups, keyed in Redis. DID:web
// documents are fetched over the network per §4.8; a verifier processing
// many marques from the same issuer would otherwise refetch the same
// document on every call.
type CachedDIDWebResolver struct {
	Next  KeyResolver
	Redis *redis.Client
	TTL   time.Duration
}

// NewCachedDIDWebResolver returns a resolver that checks redisURL before
// falling back to next (typically NewDIDWebResolver()). ttl <= 0 defaults
// to 10 minutes, matching the teacher's short-lived resolution caches.
func NewCachedDIDWebResolver(next KeyResolver, redisURL string, ttl time.Duration) (*CachedDIDWebResolver, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("verify: parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedDIDWebResolver{
		Next:  next,
		Redis: redis.NewClient(opt),
		TTL:   ttl,
	}, nil
}

func cacheKey(iss, kid string) string {
	return "corsair:didweb:" + iss + "#" + kid
}

// Resolve returns the cached public key and tier for (iss, kid) if present,
// otherwise delegates to Next and caches the result on success. Cache
// misses and errors are not cached, so a transient fetch failure doesn't
// poison subsequent verifications.
func (c *CachedDIDWebResolver) Resolve(ctx context.Context, iss, kid string) (ed25519.PublicKey, IssuerTier, error) {
	key := cacheKey(iss, kid)
	if cached, err := c.Redis.Get(ctx, key).Result(); err == nil {
		pub, tier, decodeErr := decodeCachedKey(cached)
		if decodeErr == nil {
			return pub, tier, nil
		}
	}

	pub, tier, err := c.Next.Resolve(ctx, iss, kid)
	if err != nil {
		return nil, "", err
	}

	encoded := encodeCachedKey(pub, tier)
	_ = c.Redis.Set(ctx, key, encoded, c.TTL).Err()
	return pub, tier, nil
}

func encodeCachedKey(pub ed25519.PublicKey, tier IssuerTier) string {
	return string(tier) + ":" + hex.EncodeToString(pub)
}

func decodeCachedKey(s string) (ed25519.PublicKey, IssuerTier, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			tier := IssuerTier(s[:i])
			pub, err := hex.DecodeString(s[i+1:])
			if err != nil {
				return nil, "", err
			}
			return ed25519.PublicKey(pub), tier, nil
		}
	}
	return nil, "", fmt.Errorf("verify: malformed cache entry")
}
