package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corsair-io/corsair/pkg/credential"
)

// Verify runs the full verification pipeline named by §4.8: format
// detection, EdDSA header enforcement, key resolution (pinned PEM, or
// kid/DID:web over the SSRF-guarded fetch), signature verification,
// temporal check, and — if opts.Policy is set — policy-predicate
// evaluation. It always returns a non-nil Result, even for a rejected
// marque; the returned error is reserved for inputs too malformed to
// classify at all.
func Verify(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	format, err := DetectFormat(raw)
	if err != nil {
		return nil, err
	}
	result := &Result{Format: format, State: StateParsed}
	trimmed := strings.TrimSpace(string(raw))

	switch format {
	case FormatJSONEnvelope:
		addReason(result, "json envelope carries no signature; inspection only, never accepted as proof")
		result.State = StateRejected
		return result, nil
	case FormatSDJWT:
		return verifySDJWT(ctx, trimmed, opts, result)
	case FormatJWT:
		return verifyCompactJWT(ctx, trimmed, opts, result)
	default:
		return nil, fmt.Errorf("verify: unhandled format %q", format)
	}
}

// resolver picks the key resolver: a pinned PEM always wins over the
// DID:web resolver, which is the safe default for ctx without one
// configured.
func resolver(opts Options) (KeyResolver, error) {
	if len(opts.PinnedKeyPEM) > 0 {
		pub, err := ParsePEMPublicKey(opts.PinnedKeyPEM)
		if err != nil {
			return nil, err
		}
		return PEMKeyResolver{Key: pub}, nil
	}
	if opts.Resolver != nil {
		return opts.Resolver, nil
	}
	return NewDIDWebResolver(), nil
}

// headerAndIssuer reads a compact JWT's header and "iss" claim without
// verifying its signature, so the key resolver has something to resolve
// against before verification can even be attempted.
func headerAndIssuer(tokenString string) (header map[string]any, iss string, err error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, "", fmt.Errorf("verify: parse token structure: %w", err)
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	iss, _ = claims["iss"].(string)
	return token.Header, iss, nil
}

func verifyCompactJWT(ctx context.Context, tokenString string, opts Options, result *Result) (*Result, error) {
	header, iss, err := headerAndIssuer(tokenString)
	if err != nil {
		return nil, err
	}

	if alg, _ := header["alg"].(string); alg != "EdDSA" {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("unsupported alg %q: only EdDSA is accepted", alg))
		return result, nil
	}
	kid, _ := header["kid"].(string)
	if kid == "" {
		result.State = StateBadSignature
		addReason(result, "header is missing kid")
		return result, nil
	}
	if iss == "" {
		result.State = StateBadSignature
		addReason(result, "payload is missing iss")
		return result, nil
	}

	res, err := resolver(opts)
	if err != nil {
		return nil, err
	}
	pub, tier, err := res.Resolve(ctx, iss, kid)
	if err != nil {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("key resolution failed: %v", err))
		return result, nil
	}
	result.IssuerTier = tier

	var claims jwt.MapClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"EdDSA"}), jwt.WithoutClaimsValidation())
	_, err = parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return pub, nil
	})
	if err != nil {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("signature verification failed: %v", err))
		return result, nil
	}
	result.State = StateSignatureValid
	result.Claims = map[string]any(claims)

	applyTemporalCheck(result, claims, opts.now().Unix())
	applyPolicy(result, claims, opts)
	return result, nil
}

func verifySDJWT(ctx context.Context, presentation string, opts Options, result *Result) (*Result, error) {
	jwtPart := strings.SplitN(presentation, "~", 2)[0]
	header, iss, err := headerAndIssuer(jwtPart)
	if err != nil {
		return nil, err
	}
	if alg, _ := header["alg"].(string); alg != "EdDSA" {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("unsupported alg %q: only EdDSA is accepted", alg))
		return result, nil
	}
	kid, _ := header["kid"].(string)
	if kid == "" || iss == "" {
		result.State = StateBadSignature
		addReason(result, "header/payload missing kid or iss")
		return result, nil
	}

	res, err := resolver(opts)
	if err != nil {
		return nil, err
	}
	pub, tier, err := res.Resolve(ctx, iss, kid)
	if err != nil {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("key resolution failed: %v", err))
		return result, nil
	}
	result.IssuerTier = tier

	claims, err := credential.VerifyPresentation(presentation, pub)
	if err != nil {
		result.State = StateBadSignature
		addReason(result, fmt.Sprintf("signature verification failed: %v", err))
		return result, nil
	}
	result.State = StateSignatureValid
	result.Claims = claims
	result.Disclosed = disclosedPaths(presentation)

	applyTemporalCheck(result, jwt.MapClaims(claims), opts.now().Unix())
	applyPolicy(result, jwt.MapClaims(claims), opts)
	return result, nil
}

// disclosedPaths is cosmetic: the caller already knows which segments it
// presented, this just counts them for the Result so a CLI can report
// "3 of 5 fields disclosed" without re-parsing the presentation itself.
func disclosedPaths(presentation string) []string {
	parts := strings.Split(presentation, "~")
	var out []string
	for _, p := range parts[1:] {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyTemporalCheck(result *Result, claims jwt.MapClaims, nowUnix int64) {
	exp, expOK := numericClaim(claims, "exp")
	iat, iatOK := numericClaim(claims, "iat")

	switch {
	case iatOK && nowUnix < iat:
		result.State = StateRejected
		addReason(result, "iat is in the future")
	case expOK && nowUnix >= exp:
		result.State = StateExpired
		addReason(result, "marque has expired")
	default:
		result.State = StateFresh
	}
}

func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	v, ok := claims[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func applyPolicy(result *Result, claims jwt.MapClaims, opts Options) {
	if result.State == StateExpired || result.State == StateRejected {
		return
	}
	if opts.Policy == nil {
		result.PolicyPass = true
		result.State = StateAccepted
		return
	}
	pass, fails, err := opts.Policy.Evaluate(claims, opts.now().Unix())
	if err != nil {
		result.PolicyPass = false
		result.State = StateRejected
		addReason(result, fmt.Sprintf("policy evaluation error: %v", err))
		return
	}
	result.PolicyPass = pass
	result.PolicyFails = fails
	if pass {
		result.State = StateAccepted
	} else {
		result.State = StateRejected
		addReason(result, "policy rejected marque")
	}
}
