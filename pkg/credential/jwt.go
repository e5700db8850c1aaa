package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/corsair-io/corsair/pkg/identity"
)

const (
	// jwtTyp is the JOSE "typ" header value identifying a CPOE marque.
	jwtTyp = "vc+jwt"
	// vcContext is the single @context entry every CPOE carries.
	vcContext = "https://www.w3.org/ns/credentials/v2"
	vcTypeBase = "VerifiableCredential"
	vcTypeCPOE = "CorsairCPOE"
	defaultProtocolVersion = "2.1"
	defaultExpiryDays      = 90
)

// Payload is the exact top-level claim set of a CPOE JWT (§4.6). It is
// composed as jwt.MapClaims so the signed payload carries only these keys,
// in no particular wire order beyond what encoding/json produces.
type Payload struct {
	Issuer     string
	Subject    string
	JTI        string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Parley     string
	VC         VC
}

// claims renders p as jwt.MapClaims for signing.
func (p Payload) claims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":    p.Issuer,
		"sub":    p.Subject,
		"jti":    p.JTI,
		"iat":    p.IssuedAt.Unix(),
		"exp":    p.ExpiresAt.Unix(),
		"parley": p.Parley,
		"vc":     p.VC,
	}
}

// BuildPayload composes the JWT-VC payload for in from a CredentialSubject
// already assembled by the generator. issuedAt is a parameter (not
// time.Now()) so callers can pin iat, exp, validFrom and validUntil. jti
// (and sub, which repeats it) is a fresh random UUID on every call, so two
// payloads built with the same issuedAt still differ in those claims.
func BuildPayload(in Input, subject CredentialSubject, issuerDID string, issuedAt time.Time) Payload {
	expiryDays := in.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = defaultExpiryDays
	}
	protocolVer := in.ProtocolVer
	if protocolVer == "" {
		protocolVer = defaultProtocolVersion
	}
	expiresAt := issuedAt.AddDate(0, 0, expiryDays)
	jti := "marque-" + uuid.NewString()

	return Payload{
		Issuer:    issuerDID,
		Subject:   jti,
		JTI:       jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Parley:    protocolVer,
		VC: VC{
			Context: []string{vcContext},
			Type:    []string{vcTypeBase, vcTypeCPOE},
			Issuer:  Issuer{ID: issuerDID, Name: in.IssuerName},
			ValidFrom:         issuedAt.UTC().Format(time.RFC3339),
			ValidUntil:        expiresAt.UTC().Format(time.RFC3339),
			CredentialSubject: subject,
		},
	}
}

// SupportsProtocolVersion reports whether a verifier built against
// verifierVersion can accept a marque stamped with the given parley
// version: same major, verifier's minor at least the marque's. Both must
// parse as semver or the check fails closed.
func SupportsProtocolVersion(parley, verifierVersion string) (bool, error) {
	marqueVer, err := semver.NewVersion(parley)
	if err != nil {
		return false, fmt.Errorf("credential: invalid parley version %q: %w", parley, err)
	}
	verifierVer, err := semver.NewVersion(verifierVersion)
	if err != nil {
		return false, fmt.Errorf("credential: invalid verifier version %q: %w", verifierVersion, err)
	}
	constraint, err := semver.NewConstraint(fmt.Sprintf("~%d.%d", marqueVer.Major(), marqueVer.Minor()))
	if err != nil {
		return false, err
	}
	return constraint.Check(verifierVer) || (verifierVer.Major() == marqueVer.Major() && verifierVer.GreaterThan(marqueVer)), nil
}

// Sign produces the compact JWT-VC string: EdDSA over
// base64url(header).base64url(payload), header exactly
// {"alg":"EdDSA","typ":"vc+jwt","kid":<active kid>}.
func Sign(ctx context.Context, ks identity.KeySet, p Payload) (string, error) {
	token, err := ks.SignWithHeader(ctx, p.claims(), map[string]string{"typ": jwtTyp})
	if err != nil {
		return "", fmt.Errorf("credential: sign marque: %w", err)
	}
	return token, nil
}
