package identity

import (
	"crypto/ed25519"
	"fmt"
	"math/big"
	"strings"
)

// DIDDocument is the DID:web document published at
// https://<domain>/.well-known/did.json.
type DIDDocument struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	AssertionMethod    []string             `json:"assertionMethod"`
	Authentication     []string             `json:"authentication"`
}

// VerificationMethod names an Ed25519 key under a did:web identity.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// DID returns the did:web identifier for domain: "did:web:<domain>".
// Colons in a path-bearing domain (e.g. "example.com:8443/issuer") are
// themselves percent-encoded per the did:web spec; CORSAIR only emits
// plain host-based DIDs, so no such encoding is needed here.
func DID(domain string) string {
	return "did:web:" + domain
}

// NewDIDDocument builds the DID document for the issuer's public key,
// exactly in the shape named by the specification: a single
// Ed25519VerificationKey2020 method named "#key-1", used for both
// assertion and authentication.
func NewDIDDocument(domain string, pub ed25519.PublicKey) *DIDDocument {
	id := DID(domain)
	methodID := id + "#key-1"
	return &DIDDocument{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/ed25519-2020/v1",
		},
		ID: id,
		VerificationMethod: []VerificationMethod{
			{
				ID:                 methodID,
				Type:               "Ed25519VerificationKey2020",
				Controller:         id,
				PublicKeyMultibase: encodeMultibaseEd25519(pub),
			},
		},
		AssertionMethod: []string{methodID},
		Authentication:  []string{methodID},
	}
}

// encodeMultibaseEd25519 encodes pub as a multicodec-prefixed,
// base58btc-encoded multibase string with the "z" prefix, per the
// verificationMethod shape mandated by the specification.
//
// The Ed25519 public-key multicodec prefix is the two varint bytes
// 0xed 0x01.
func encodeMultibaseEd25519(pub ed25519.PublicKey) string {
	prefixed := append([]byte{0xed, 0x01}, pub...)
	return "z" + base58Encode(prefixed)
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// base58Encode implements the Bitcoin/IPFS base58btc alphabet. No base58
// library appears anywhere in the reference corpus, so this single
// function is hand-rolled stdlib (math/big) rather than imported — it is
// the one deliberately-justified standard-library fallback in the Key
// Manager.
func base58Encode(input []byte) string {
	zero := big.NewInt(0)
	base := big.NewInt(58)
	x := new(big.Int).SetBytes(input)

	var out []byte
	for x.Cmp(zero) > 0 {
		mod := new(big.Int)
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}

	for _, b := range input {
		if b != 0x00 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	reverse(out)
	return string(out)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// DecodeMultibaseEd25519 is the inverse of encodeMultibaseEd25519: it
// strips the "z" multibase prefix and the 0xed 0x01 multicodec prefix and
// returns the raw Ed25519 public key. Used by a verifier resolving a
// did:web document's verificationMethod back into a usable key.
func DecodeMultibaseEd25519(multibase string) (ed25519.PublicKey, error) {
	if len(multibase) == 0 || multibase[0] != 'z' {
		return nil, fmt.Errorf("identity: publicKeyMultibase must be base58btc ('z'-prefixed)")
	}
	decoded, err := base58Decode(multibase[1:])
	if err != nil {
		return nil, fmt.Errorf("identity: decode multibase: %w", err)
	}
	if len(decoded) != 2+ed25519.PublicKeySize || decoded[0] != 0xed || decoded[1] != 0x01 {
		return nil, fmt.Errorf("identity: unexpected multicodec prefix or key length")
	}
	return ed25519.PublicKey(decoded[2:]), nil
}

// base58Decode is the inverse of base58Encode, same alphabet.
func base58Decode(s string) ([]byte, error) {
	x := big.NewInt(0)
	base := big.NewInt(58)
	for _, r := range s {
		idx := strings.IndexRune(base58Alphabet, r)
		if idx < 0 {
			return nil, fmt.Errorf("identity: invalid base58 character %q", r)
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(idx)))
	}

	decoded := x.Bytes()

	leadingZeros := 0
	for _, r := range s {
		if r != rune(base58Alphabet[0]) {
			break
		}
		leadingZeros++
	}

	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

// ParseKID splits "<did>#<fragment>" into its DID and fragment parts.
func ParseKID(kid string) (did string, fragment string, err error) {
	parts := strings.SplitN(kid, "#", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("identity: malformed kid %q", kid)
	}
	return parts[0], parts[1], nil
}
