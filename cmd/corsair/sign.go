package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/config"
	"github.com/corsair-io/corsair/pkg/credential"
	"github.com/corsair-io/corsair/pkg/framework"
	"github.com/corsair-io/corsair/pkg/identity"
	"github.com/corsair-io/corsair/pkg/ingestion"
	"github.com/corsair-io/corsair/pkg/mapping"
	"github.com/corsair-io/corsair/pkg/receipts"
)

const defaultExpiryDays = 365

// runSign implements `corsair sign`: evidence JSON/YAML in, a signed CPOE
// marque out, orchestrating the Mapping Registry, Ingestion Mapper,
// Assurance Calculator, Framework Resolver, Receipt Chain, and CPOE
// Generator in that order (§3's dependency order).
func runSign(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file        string
		output      string
		format      string
		did         string
		scope       string
		expiryDays  int
		sdJWT       bool
		sdFields    string
		mappingPath string
		dryRun      bool
		jsonOut     bool
	)
	var dependencies repeatableFlag
	cmd.StringVar(&file, "file", "", "Evidence file to sign (use \"-\" for stdin)")
	cmd.StringVar(&output, "output", "", "Write the marque to this file instead of stdout")
	cmd.StringVar(&format, "format", "json", "Evidence format: json or yaml")
	cmd.StringVar(&did, "did", "", "Issuer DID (defaults to did:web:<first CORSAIR_CORE_DOMAINS entry>)")
	cmd.StringVar(&scope, "scope", "", "Override the evidence document's scope")
	cmd.IntVar(&expiryDays, "expiry-days", defaultExpiryDays, "Credential validity window in days")
	cmd.BoolVar(&sdJWT, "sd-jwt", false, "Issue an SD-JWT with selective disclosure")
	cmd.StringVar(&sdFields, "sd-fields", "", "Comma-separated dotted credentialSubject paths to hold back as disclosures")
	cmd.StringVar(&mappingPath, "mapping", "", "Explicit mapping file (bypasses registry resolution)")
	cmd.Var(&dependencies, "dependency", "Dependency marque file to record alongside this one (repeatable)")
	cmd.BoolVar(&dryRun, "dry-run", false, "Run the pipeline and print its receipts and summary; do not sign or persist anything")
	cmd.BoolVar(&jsonOut, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	raw, err := readEvidence(file)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading --file: %v\n", err)
		return 2
	}

	doc, err := decodeEvidence(raw, format)
	if err != nil {
		fmt.Fprintf(stderr, "Error decoding evidence: %v\n", err)
		return 2
	}

	cfg := config.Load()
	m, err := resolveMapping(cfg, mappingPath, doc)
	if err != nil {
		fmt.Fprintf(stderr, "Error resolving mapping: %v\n", err)
		return 1
	}

	ingested, err := mapping.Extract(m, doc)
	if err != nil {
		fmt.Fprintf(stderr, "Error extracting evidence: %v\n", err)
		return 1
	}
	if scope != "" {
		ingested.Metadata.Scope = scope
	}

	pipeline, err := ingestion.Map(ingested)
	if err != nil {
		fmt.Fprintf(stderr, "Error mapping evidence: %v\n", err)
		return 1
	}

	now := time.Now().UTC()
	assuranceResult, err := assurance.Calculate(ingested, now)
	if err != nil {
		fmt.Fprintf(stderr, "Error calculating assurance: %v\n", err)
		return 1
	}

	resolver := framework.NewResolver(nil, nil, framework.DefaultLegacyTable())
	coverage, _ := resolver.Resolve(ingested.Controls)

	chain := receipts.NewChain()
	if _, err := chain.Append(receipts.StepRecord{
		Step: receipts.StepIngest, Input: doc, Output: ingested,
		Reproducible: true, CodeVersion: "corsair-cli",
	}); err != nil {
		fmt.Fprintf(stderr, "Error recording ingest receipt: %v\n", err)
		return 1
	}
	if _, err := chain.Append(receipts.StepRecord{
		Step: receipts.StepClassify, Input: pipeline, Output: assuranceResult,
		Reproducible: true, CodeVersion: "corsair-cli",
	}); err != nil {
		fmt.Fprintf(stderr, "Error recording classify receipt: %v\n", err)
		return 1
	}
	if _, err := chain.Append(receipts.StepRecord{
		Step: receipts.StepChart, Input: ingested.Controls, Output: coverage,
		Reproducible: true, CodeVersion: "corsair-cli",
	}); err != nil {
		fmt.Fprintf(stderr, "Error recording chart receipt: %v\n", err)
		return 1
	}
	chainDigest, sealedReceipts, err := chain.Seal()
	if err != nil {
		fmt.Fprintf(stderr, "Error sealing receipt chain: %v\n", err)
		return 1
	}

	if did == "" {
		domain := "corsair.local"
		if len(cfg.CoreDomains) > 0 {
			domain = cfg.CoreDomains[0]
		}
		did = identity.DID(domain)
	}

	depRecords, err := recordDependencies(dependencies)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading --dependency: %v\n", err)
		return 1
	}

	input := credential.Input{
		Document:    ingested,
		Pipeline:    pipeline,
		Assurance:   assuranceResult,
		Frameworks:  coverage,
		ChainDigest: chainDigest,
		IssuerName:  ingested.Metadata.Issuer,
		ExpiryDays:  expiryDays,
		ProtocolVer: "1.0",
	}

	if dryRun {
		printJSON(stdout, map[string]any{
			"dryRun":      true,
			"issuer":      did,
			"chainDigest": chainDigest,
			"receipts":    sealedReceipts,
			"summary":     pipeline.Summary,
			"dependencies": depRecords,
		})
		return 0
	}

	km := identity.NewKeyManager(cfg.KeyDir)
	ks, err := km.Acquire()
	if err != nil {
		fmt.Fprintf(stderr, "Error acquiring issuer key: %v\n", err)
		return 1
	}
	generator := credential.NewGenerator(ks, did)

	ctx := context.Background()
	var token string
	var disclosureCount int
	if sdJWT {
		paths := splitCSV(sdFields)
		var discs []*credential.Disclosure
		token, discs, err = generator.GenerateSelectiveDisclosure(ctx, input, now, paths)
		disclosureCount = len(discs)
	} else {
		token, err = generator.Generate(ctx, input, now)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error signing credential: %v\n", err)
		return 1
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(token), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing --output: %v\n", err)
			return 1
		}
	}

	if jsonOut {
		result := map[string]any{
			"ok":          true,
			"issuer":      did,
			"chainDigest": chainDigest,
			"overallScore": pipeline.Summary.OverallScore,
			"disclosures": disclosureCount,
			"dependencies": depRecords,
		}
		if output != "" {
			result["output"] = output
		} else {
			result["marque"] = token
		}
		printJSON(stdout, result)
		return 0
	}

	if output != "" {
		fmt.Fprintf(stdout, "%sSigned%s: %s (score %d) -> %s\n", ColorBold+ColorGreen, ColorReset, did, pipeline.Summary.OverallScore, output)
	} else {
		fmt.Fprintln(stdout, token)
	}
	return 0
}

func readEvidence(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

func decodeEvidence(raw []byte, format string) (any, error) {
	var doc any
	switch strings.ToLower(format) {
	case "", "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported --format %q", format)
	}
	return normalizeJSON(doc)
}

// normalizeJSON round-trips a yaml.v3-decoded value through encoding/json
// so downstream mapping path resolution always sees map[string]any /
// []any / float64, never yaml.v3's map[string]any keyed by interface{}
// variants or its own scalar types.
func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveMapping(cfg *config.Config, mappingPath string, doc any) (*mapping.Mapping, error) {
	if mappingPath != "" {
		return mapping.LoadMappingFile(mappingPath)
	}
	reg, errs := mapping.NewRegistry(cfg)
	for _, e := range errs {
		_ = e // per-file load errors never block resolution against the mappings that did load
	}
	return reg.Resolve(doc), nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dependencyRecord is the sha256 commitment recorded for one --dependency
// marque, reported in sign's JSON output (it is not part of the signed
// marque). `verify --dependencies` reports the sha256 of each file it
// verifies but does not compare it against this record.
type dependencyRecord struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

func recordDependencies(paths []string) ([]dependencyRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]dependencyRecord, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(raw)
		out = append(out, dependencyRecord{Path: p, SHA256: hex.EncodeToString(sum[:])})
	}
	return out, nil
}
