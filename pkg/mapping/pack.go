package mapping

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// canonicalizePayload produces the RFC 8785 canonical bytes a pack
// signature is computed over. Packs are meant to travel to and be
// verified by parties outside this module (mapping authors distributing
// a pack for other CORSAIR deployments to trust), so this uses the
// standalone gowebpki/jcs transform rather than pkg/canonicalize's
// hand-rolled implementation: the latter stays the canonicalizer for
// purely-internal digests (receipts, framework graph hashing) where no
// external interop is at stake.
func canonicalizePayload(p signedPayload) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("pre-marshal failed: %w", err)
	}
	return jcs.Transform(raw)
}

// PackInfo carries a mapping pack's identity.
type PackInfo struct {
	ID       string    `json:"id"`
	Version  string    `json:"version"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Pack is a distributable, signed bundle of mappings. The signature
// covers the RFC 8785 canonical form of {pack, mappings}, so any reorder
// or edit of a contained mapping invalidates it.
type Pack struct {
	Pack      PackInfo   `json:"pack"`
	Mappings  []*Mapping `json:"mappings"`
	Signature string     `json:"signature"`
}

// signedPayload mirrors Pack minus Signature: the exact bytes a signature
// is computed over.
type signedPayload struct {
	Pack     PackInfo   `json:"pack"`
	Mappings []*Mapping `json:"mappings"`
}

// SignPack canonicalizes {pack, mappings} and signs the result with priv,
// returning a Pack ready to distribute.
func SignPack(info PackInfo, mappings []*Mapping, priv ed25519.PrivateKey) (*Pack, error) {
	payload := signedPayload{Pack: info, Mappings: mappings}
	canonical, err := canonicalizePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("mapping: pack canonicalization failed: %w", err)
	}
	sig := ed25519.Sign(priv, canonical)
	return &Pack{
		Pack:      info,
		Mappings:  mappings,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// VerifyPack checks that p's signature was produced by pub over p's own
// canonical {pack, mappings} payload, and that every contained mapping
// passes the same semantic checks (validateMapping) a standalone mapping
// file does. The JSON-schema check is not run on pack contents.
func VerifyPack(p *Pack, pub ed25519.PublicKey) error {
	sig, err := hex.DecodeString(p.Signature)
	if err != nil {
		return fmt.Errorf("mapping: pack signature is not valid hex: %w", err)
	}
	payload := signedPayload{Pack: p.Pack, Mappings: p.Mappings}
	canonical, err := canonicalizePayload(payload)
	if err != nil {
		return fmt.Errorf("mapping: pack canonicalization failed: %w", err)
	}
	if !ed25519.Verify(pub, canonical, sig) {
		return fmt.Errorf("mapping: pack signature verification failed")
	}
	for i, m := range p.Mappings {
		if err := validateMapping(m); err != nil {
			return fmt.Errorf("mapping: pack mapping[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadPack decodes and verifies a signed pack from raw JSON bytes,
// returning the contained mappings on success.
func LoadPack(raw []byte, pub ed25519.PublicKey) ([]*Mapping, error) {
	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("mapping: invalid pack json: %w", err)
	}
	if err := VerifyPack(&p, pub); err != nil {
		return nil, err
	}
	return p.Mappings, nil
}
