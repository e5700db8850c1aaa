package credential

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corsair-io/corsair/pkg/identity"
)

// sdJWTTyp is the JOSE "typ" header for a selectively disclosable marque.
// "sd+jwt" suffixed onto the CPOE media type rather than replacing it:
// a verifier sees both that this is an SD-JWT and that its payload is a
// CPOE (vc+jwt).
const sdJWTTyp = "vc+sd+jwt"

// Disclosure is one selectively disclosable leaf under credentialSubject.
// Format mirrors RFC 9901's flat scheme: base64url(json([salt, name,
// value])); name here is the leaf's full dotted sub-path (e.g.
// "provenance.sourceIdentity") rather than a single top-level claim name.
// This is a documented simplification of full per-branch nested
// disclosure: CORSAIR discloses individual leaves reached through nested
// objects only, not through array indices or intermediate sub-objects
// themselves.
type Disclosure struct {
	Salt    string `json:"-"`
	Path    string `json:"-"`
	Value   any    `json:"-"`
	Encoded string `json:"-"`
}

func newDisclosure(path string, value any) (*Disclosure, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("credential: disclosure salt: %w", err)
	}
	d := &Disclosure{
		Salt:  base64.RawURLEncoding.EncodeToString(salt),
		Path:  path,
		Value: value,
	}
	data, err := json.Marshal([]any{d.Salt, d.Path, d.Value})
	if err != nil {
		return nil, fmt.Errorf("credential: encode disclosure: %w", err)
	}
	d.Encoded = base64.RawURLEncoding.EncodeToString(data)
	return d, nil
}

func (d *Disclosure) hash() string {
	h := sha256.Sum256([]byte(d.Encoded))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// SignSelectiveDisclosure issues an SD-JWT variant of the CPOE: every path
// in disclosablePaths (dotted, rooted at credentialSubject and resolving
// only through nested objects, e.g. "provenance.sourceIdentity" or
// "dimensions.independence" — not through array indices) is
// removed from the signed payload and replaced by a salted-hash commitment
// in credentialSubject._sd; the disclosure values travel alongside the
// compact JWT as "~"-separated segments, exactly as RFC 9901 describes for
// top-level claims. The returned string is
// "<jwt>~<disclosure1>~<disclosure2>~...~".
func SignSelectiveDisclosure(ctx context.Context, ks identity.KeySet, p Payload, disclosablePaths []string) (string, []*Disclosure, error) {
	raw, err := json.Marshal(p.claims())
	if err != nil {
		return "", nil, fmt.Errorf("credential: marshal payload for disclosure: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", nil, fmt.Errorf("credential: unmarshal payload for disclosure: %w", err)
	}

	vc, ok := claims["vc"].(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("credential: payload missing vc object")
	}
	subject, ok := vc["credentialSubject"].(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("credential: vc missing credentialSubject")
	}

	disclosures := make([]*Disclosure, 0, len(disclosablePaths))
	hashes := make([]string, 0, len(disclosablePaths))
	for _, path := range disclosablePaths {
		value, ok := popPath(subject, path)
		if !ok {
			continue
		}
		d, err := newDisclosure(path, value)
		if err != nil {
			return "", nil, err
		}
		disclosures = append(disclosures, d)
		hashes = append(hashes, d.hash())
	}
	if len(hashes) > 0 {
		subject["_sd"] = hashes
		subject["_sd_alg"] = "sha-256"
	}

	token, err := ks.SignWithHeader(ctx, jwt.MapClaims(claims), map[string]string{"typ": sdJWTTyp})
	if err != nil {
		return "", nil, fmt.Errorf("credential: sign sd-jwt marque: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(token)
	for _, d := range disclosures {
		sb.WriteString("~")
		sb.WriteString(d.Encoded)
	}
	sb.WriteString("~")
	return sb.String(), disclosures, nil
}

// Present selects which disclosures travel with a presentation, dropping
// the rest: the holder decides what the verifier sees, same as RFC 9901's
// holder-binding-free presentation flow.
func Present(sdJWT string, selected []*Disclosure) string {
	jwt := strings.SplitN(sdJWT, "~", 2)[0]
	var sb strings.Builder
	sb.WriteString(jwt)
	for _, d := range selected {
		sb.WriteString("~")
		sb.WriteString(d.Encoded)
	}
	sb.WriteString("~")
	return sb.String()
}

// VerifyPresentation checks the EdDSA signature over the embedded JWT and
// re-folds every attached disclosure back into credentialSubject at its
// original dotted path, after confirming its hash is committed in _sd. It
// returns the fully reconstituted claim map (disclosures included, _sd/
// _sd_alg stripped).
func VerifyPresentation(presentation string, pub ed25519.PublicKey) (map[string]any, error) {
	parts := strings.Split(presentation, "~")
	if len(parts) < 2 {
		return nil, fmt.Errorf("credential: invalid sd-jwt presentation: missing ~ separator")
	}
	jwtParts := strings.SplitN(parts[0], ".", 3)
	if len(jwtParts) != 3 {
		return nil, fmt.Errorf("credential: invalid jwt: expected 3 segments")
	}
	headerB64, payloadB64, sigB64 := jwtParts[0], jwtParts[1], jwtParts[2]

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("credential: decode signature: %w", err)
	}
	if !ed25519.Verify(pub, []byte(headerB64+"."+payloadB64), sig) {
		return nil, fmt.Errorf("credential: signature verification failed")
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("credential: decode payload: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, fmt.Errorf("credential: parse payload: %w", err)
	}

	vc, _ := claims["vc"].(map[string]any)
	var subject map[string]any
	if vc != nil {
		subject, _ = vc["credentialSubject"].(map[string]any)
	}
	sdHashesRaw, _ := subject["_sd"].([]any)
	sdHashes := make(map[string]bool, len(sdHashesRaw))
	for _, h := range sdHashesRaw {
		if s, ok := h.(string); ok {
			sdHashes[s] = true
		}
	}

	for _, raw := range parts[1:] {
		if raw == "" {
			continue
		}
		discJSON, err := base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("credential: decode disclosure: %w", err)
		}
		h := sha256.Sum256([]byte(raw))
		if !sdHashes[base64.RawURLEncoding.EncodeToString(h[:])] {
			return nil, fmt.Errorf("credential: disclosure hash not committed in _sd")
		}
		var arr []any
		if err := json.Unmarshal(discJSON, &arr); err != nil || len(arr) != 3 {
			return nil, fmt.Errorf("credential: malformed disclosure")
		}
		path, ok := arr[1].(string)
		if !ok {
			return nil, fmt.Errorf("credential: disclosure path must be a string")
		}
		if subject != nil {
			setPath(subject, path, arr[2])
		}
	}
	if subject != nil {
		delete(subject, "_sd")
		delete(subject, "_sd_alg")
	}

	return claims, nil
}

// setPath writes value at dotted path within root, creating intermediate
// maps as needed.
func setPath(root map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	cur := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
}

// popPath removes and returns the leaf value at dotted path within root,
// pruning now-empty intermediate maps is not attempted: CORSAIR leaves
// empty parent objects in place so the credential's shape stays stable
// across different disclosure selections.
func popPath(root map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	cur := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			v, ok := cur[seg]
			if !ok {
				return nil, false
			}
			delete(cur, seg)
			return v, true
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}
