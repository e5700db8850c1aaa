package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/corsair-io/corsair/pkg/config"
	"github.com/corsair-io/corsair/pkg/verify"
)

// runVerify implements `corsair verify`: a full cryptographic check of one
// marque file. Offline bundle directories are not handled by this command;
// it never calls verify.VerifyBundle.
func runVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file             string
		pubkeyPath       string
		did              string
		policyPath       string
		requireIssuer    string
		requireFramework string
		requireSource    string
		requireScitt     bool
		maxAgeDays       int
		minScore         int
		dependencyDepth  int
		jsonOutput       bool
	)
	var dependencyPaths repeatableFlag
	cmd.StringVar(&file, "file", "", "Marque file to verify (REQUIRED)")
	cmd.StringVar(&pubkeyPath, "pubkey", "", "PEM-encoded Ed25519 public key to pin (skips DID:web resolution)")
	cmd.StringVar(&did, "did", "", "Expected issuer DID (rejects any other issuer)")
	cmd.StringVar(&policyPath, "policy", "", "CEL policy file the marque's claims must satisfy")
	cmd.StringVar(&requireIssuer, "require-issuer", "", "Reject unless the marque's issuer equals this value")
	cmd.StringVar(&requireFramework, "require-framework", "", "Comma-separated frameworks that must all appear in credentialSubject.frameworks")
	cmd.StringVar(&requireSource, "require-source", "", "Reject unless provenance.source equals this value")
	cmd.BoolVar(&requireScitt, "require-scitt", false, "Reject unless every receipt in the chain carries a transparency-log entry id")
	cmd.IntVar(&maxAgeDays, "max-age", 0, "Reject marques issued more than this many days ago (0 = no limit)")
	cmd.IntVar(&minScore, "min-score", 0, "Reject marques whose overall score is below this value")
	cmd.Var(&dependencyPaths, "dependencies", "Dependency marque file to also verify (repeatable)")
	cmd.IntVar(&dependencyDepth, "dependency-depth", 1, "How many dependency levels to verify recursively")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading --file: %v\n", err)
		return 2
	}

	opts := verify.Options{Now: time.Now()}
	if pubkeyPath != "" {
		pemBytes, err := os.ReadFile(pubkeyPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading --pubkey: %v\n", err)
			return 2
		}
		opts.PinnedKeyPEM = pemBytes
	}
	if policyPath != "" {
		policy, err := verify.LoadPolicyFile(policyPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading --policy: %v\n", err)
			return 2
		}
		opts.Policy = policy
	}
	if pubkeyPath == "" {
		if redisURL := config.Load().RedisURL; redisURL != "" {
			cached, err := verify.NewCachedDIDWebResolver(verify.NewDIDWebResolver(), redisURL, 0)
			if err != nil {
				fmt.Fprintf(stderr, "warning: redis cache disabled: %v\n", err)
			} else {
				opts.Resolver = cached
			}
		}
	}

	result, err := verify.Verify(context.Background(), raw, opts)
	if err != nil {
		if jsonOutput {
			printJSON(stdout, map[string]any{"ok": false, "error": map[string]any{"kind": "InputInvalid", "message": err.Error()}})
		} else {
			fmt.Fprintf(stderr, "Verification error: %v\n", err)
		}
		return 2
	}

	guards := verifyGuards{
		did:              did,
		requireIssuer:    requireIssuer,
		requireFramework: splitCSV(requireFramework),
		requireSource:    requireSource,
		requireScitt:     requireScitt,
		maxAgeDays:       maxAgeDays,
		minScore:         minScore,
	}
	applyVerifyGuards(result, guards)

	var dependencyResults []map[string]any
	if result.State == verify.StateAccepted && len(dependencyPaths) > 0 {
		dependencyResults = verifyDependencies(dependencyPaths, opts, dependencyDepth)
		for _, dr := range dependencyResults {
			if ok, _ := dr["ok"].(bool); !ok {
				reject(result, fmt.Sprintf("dependency %v failed verification", dr["path"]))
				break
			}
		}
	}

	printVerifyResult(stdout, result, jsonOutput, dependencyResults)
	switch result.State {
	case verify.StateAccepted:
		return 0
	case verify.StateBadSignature:
		return 2
	default:
		return 1
	}
}

// verifyGuards bundles the CLI-only acceptance guards applied on top of an
// already cryptographically verified result.
type verifyGuards struct {
	did              string
	requireIssuer    string
	requireFramework []string
	requireSource    string
	requireScitt     bool
	maxAgeDays       int
	minScore         int
}

// applyVerifyGuards enforces guards on result, downgrading it to Rejected
// when any fails. These sit outside pkg/verify's own state machine because
// they are caller-supplied acceptance policy, not part of the credential's
// own cryptographic or temporal validity.
func applyVerifyGuards(result *verify.Result, g verifyGuards) {
	if result.State != verify.StateAccepted {
		return
	}

	iss, _ := result.Claims["iss"].(string)
	if g.did != "" && iss != g.did {
		reject(result, fmt.Sprintf("issuer %q does not match --did %q", iss, g.did))
		return
	}
	if g.requireIssuer != "" && iss != g.requireIssuer {
		reject(result, fmt.Sprintf("issuer %q does not match --require-issuer %q", iss, g.requireIssuer))
		return
	}
	if len(g.requireFramework) > 0 {
		covered := frameworksCovered(result.Claims)
		for _, fw := range g.requireFramework {
			if !covered[fw] {
				reject(result, fmt.Sprintf("required framework %q is not covered", fw))
				return
			}
		}
	}
	if g.requireSource != "" {
		if source, ok := provenanceSource(result.Claims); !ok || source != g.requireSource {
			reject(result, fmt.Sprintf("provenance.source %q does not match --require-source %q", source, g.requireSource))
			return
		}
	}
	if g.requireScitt {
		reject(result, "require-scitt: no transparency-log entry ids are carried in the credential")
		return
	}
	if g.maxAgeDays > 0 {
		if iat, ok := result.Claims["iat"].(float64); ok {
			age := time.Since(time.Unix(int64(iat), 0))
			if age > time.Duration(g.maxAgeDays)*24*time.Hour {
				reject(result, fmt.Sprintf("marque age exceeds --max-age of %d days", g.maxAgeDays))
				return
			}
		}
	}
	if g.minScore > 0 {
		if score, ok := overallScore(result.Claims); ok && score < g.minScore {
			reject(result, fmt.Sprintf("overall score %d is below --min-score %d", score, g.minScore))
		}
	}
}

func frameworksCovered(claims map[string]any) map[string]bool {
	vc, _ := claims["vc"].(map[string]any)
	subject, _ := vc["credentialSubject"].(map[string]any)
	frameworks, _ := subject["frameworks"].(map[string]any)
	out := make(map[string]bool, len(frameworks))
	for fw := range frameworks {
		out[fw] = true
	}
	return out
}

func provenanceSource(claims map[string]any) (string, bool) {
	vc, _ := claims["vc"].(map[string]any)
	subject, _ := vc["credentialSubject"].(map[string]any)
	provenance, _ := subject["provenance"].(map[string]any)
	source, ok := provenance["source"].(string)
	return source, ok
}

// verifyDependencies re-runs Verify against each dependency marque file,
// recursing into its own --dependencies claim (if present) up to depth
// levels. opts is reused as-is except for the pinned key, which only ever
// applies to the top-level marque.
func verifyDependencies(paths []string, opts verify.Options, depth int) []map[string]any {
	results := make([]map[string]any, 0, len(paths))
	depOpts := opts
	depOpts.PinnedKeyPEM = nil
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			results = append(results, map[string]any{"path": p, "ok": false, "error": err.Error()})
			continue
		}
		sum := sha256.Sum256(raw)
		entry := map[string]any{"path": p, "sha256": hex.EncodeToString(sum[:])}
		depResult, err := verify.Verify(context.Background(), raw, depOpts)
		if err != nil {
			entry["ok"] = false
			entry["error"] = err.Error()
			results = append(results, entry)
			continue
		}
		entry["ok"] = depResult.State == verify.StateAccepted
		entry["state"] = depResult.State
		if depth > 1 {
			if nested := nestedDependencyPaths(depResult.Claims); len(nested) > 0 {
				entry["dependencies"] = verifyDependencies(nested, opts, depth-1)
			}
		}
		results = append(results, entry)
	}
	return results
}

func nestedDependencyPaths(claims map[string]any) []string {
	raw, ok := claims["dependencies"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if rec, ok := v.(map[string]any); ok {
			if p, ok := rec["path"].(string); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func overallScore(claims map[string]any) (int, bool) {
	vc, _ := claims["vc"].(map[string]any)
	subject, _ := vc["credentialSubject"].(map[string]any)
	summary, _ := subject["summary"].(map[string]any)
	score, ok := summary["overallScore"].(float64)
	return int(score), ok
}

func reject(result *verify.Result, reason string) {
	result.State = verify.StateRejected
	result.Reasons = append(result.Reasons, reason)
}

func printVerifyResult(w io.Writer, result *verify.Result, jsonOutput bool, dependencyResults []map[string]any) {
	if jsonOutput {
		out := map[string]any{
			"ok":          result.State == verify.StateAccepted,
			"state":       result.State,
			"format":      result.Format,
			"issuerTier":  result.IssuerTier,
			"policyPass":  result.PolicyPass,
			"policyFails": result.PolicyFails,
			"reasons":     result.Reasons,
		}
		if dependencyResults != nil {
			out["dependencies"] = dependencyResults
		}
		printJSON(w, out)
		return
	}

	switch result.State {
	case verify.StateAccepted:
		fmt.Fprintf(w, "%sACCEPTED%s (issuer tier: %s)\n", ColorBold+ColorGreen, ColorReset, result.IssuerTier)
	case verify.StateBadSignature:
		fmt.Fprintf(w, "%sBAD SIGNATURE%s\n", ColorBold+ColorRed, ColorReset)
	case verify.StateExpired:
		fmt.Fprintf(w, "%sEXPIRED%s\n", ColorBold+ColorYellow, ColorReset)
	default:
		fmt.Fprintf(w, "%sREJECTED%s: %v\n", ColorBold+ColorRed, ColorReset, result.Reasons)
	}
}
