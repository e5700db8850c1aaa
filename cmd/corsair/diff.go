package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/diff"
	"github.com/corsair-io/corsair/pkg/verify"
)

// marqueCredentialSubject is the subset of a decoded marque's vc.credentialSubject
// the diff command needs to build a diff.Snapshot.
type marqueCredentialSubject struct {
	Scope   string `json:"scope"`
	Summary struct {
		OverallScore int `json:"overallScore"`
	} `json:"summary"`
	ControlClassifications []assurance.ControlClassification `json:"controlClassifications"`
}

// runDiff implements `corsair diff --current FILE --previous FILE [--verify]`.
func runDiff(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("diff", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var currentPath, previousPath string
	var verifyFirst, jsonOutput bool
	cmd.StringVar(&currentPath, "current", "", "Current CPOE marque file (REQUIRED)")
	cmd.StringVar(&previousPath, "previous", "", "Previous CPOE marque file (REQUIRED)")
	cmd.BoolVar(&verifyFirst, "verify", false, "Cryptographically verify both marques before diffing")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if currentPath == "" || previousPath == "" {
		fmt.Fprintln(stderr, "Error: --current and --previous are required")
		return 2
	}

	currentSnap, err := loadSnapshot(currentPath, verifyFirst)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading --current: %v\n", err)
		return 2
	}
	previousSnap, err := loadSnapshot(previousPath, verifyFirst)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading --previous: %v\n", err)
		return 2
	}

	result := diff.Compare(previousSnap, currentSnap)

	if jsonOutput {
		printJSON(stdout, result)
	} else {
		fmt.Fprintf(stdout, "Score: %d -> %d (%+d)\n", result.PreviousScore, result.CurrentScore, result.ScoreDelta)
		if result.ChangedScope {
			fmt.Fprintln(stdout, "Scope changed")
		}
		if result.HasRegression {
			fmt.Fprintf(stdout, "%sRegression detected%s\n", ColorBold+ColorRed, ColorReset)
		}
		if len(result.NewFailures) > 0 {
			fmt.Fprintf(stdout, "New failures: %s\n", strings.Join(result.NewFailures, ", "))
		}
		if len(result.ResolvedFailures) > 0 {
			fmt.Fprintf(stdout, "Resolved: %s\n", strings.Join(result.ResolvedFailures, ", "))
		}
	}

	if result.HasRegression {
		return 1
	}
	return 0
}

// loadSnapshot reads a CPOE marque file (compact JWT) and decodes its
// claims into a diff.Snapshot. When verifyFirst is set the marque is
// cryptographically verified before its claims are trusted.
func loadSnapshot(path string, verifyFirst bool) (diff.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return diff.Snapshot{}, err
	}

	var claims map[string]any
	if verifyFirst {
		result, err := verify.Verify(context.Background(), raw, verify.Options{})
		if err != nil {
			return diff.Snapshot{}, err
		}
		if result.State != verify.StateAccepted {
			return diff.Snapshot{}, fmt.Errorf("marque %s did not verify: state=%s reasons=%v", path, result.State, result.Reasons)
		}
		claims = result.Claims
	} else {
		claims, err = unverifiedClaims(raw)
		if err != nil {
			return diff.Snapshot{}, err
		}
	}

	vc, _ := claims["vc"].(map[string]any)
	subjectRaw, _ := vc["credentialSubject"]
	subjectJSON, err := json.Marshal(subjectRaw)
	if err != nil {
		return diff.Snapshot{}, err
	}
	var subject marqueCredentialSubject
	if err := json.Unmarshal(subjectJSON, &subject); err != nil {
		return diff.Snapshot{}, err
	}

	return diff.Snapshot{
		OverallScore: subject.Summary.OverallScore,
		Scope:        subject.Scope,
		Controls:     subject.ControlClassifications,
	}, nil
}
