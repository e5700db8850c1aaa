// Command corsair is the CORSAIR CLI: issue, transport, and verify CPOE
// credentials from the command line, no server required.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/corsair-io/corsair/pkg/observability"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the dispatcher entrypoint, kept separate from main so tests can
// drive it with captured stdout/stderr instead of the process's own. Only
// sign, verify, and diff are instrumented (§A: "wraps the pipeline's outer
// boundary"); telemetry defaults to disabled for the CLI and is opt-in via
// CORSAIR_OTEL_ENABLED.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "sign", "verify", "diff":
		return runInstrumented(args[1], args[2:], stdout, stderr)
	case "log":
		return runLog(args[2:], stdout, stderr)
	case "trust-txt":
		return runTrustTxt(args[2:], stdout, stderr)
	case "mappings":
		return runMappings(args[2:], stdout, stderr)
	case "keygen":
		return runKeygen(args[2:], stdout, stderr)
	case "receipts":
		return runReceipts(args[2:], stdout, stderr)
	case "policy":
		return runPolicy(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

// runInstrumented wraps one of the three pipeline-boundary commands
// (sign, verify, diff) in an observability.Provider span and RED metrics,
// disabled by default for the CLI per the ambient stack's telemetry
// defaults.
func runInstrumented(name string, args []string, stdout, stderr io.Writer) int {
	cfg := loadObservabilityConfig()
	ctx := context.Background()
	prov, err := observability.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "warning: observability init failed: %v\n", err)
		prov, _ = observability.New(ctx, &observability.Config{Enabled: false})
	}
	defer func() { _ = prov.Shutdown(ctx) }()

	_, done := prov.TrackOperation(ctx, name, observability.PipelineOperation(name, "")...)
	var code int
	switch name {
	case "sign":
		code = runSign(args, stdout, stderr)
	case "verify":
		code = runVerify(args, stdout, stderr)
	case "diff":
		code = runDiff(args, stdout, stderr)
	}
	if code != 0 {
		done(fmt.Errorf("%s exited with code %d", name, code))
	} else {
		done(nil)
	}
	return code
}

func loadObservabilityConfig() *observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Enabled = os.Getenv("CORSAIR_OTEL_ENABLED") == "true"
	if ep := os.Getenv("CORSAIR_OTLP_ENDPOINT"); ep != "" {
		cfg.OTLPEndpoint = ep
	}
	cfg.Insecure = true
	return cfg
}

// ANSI Colors, matching the rest of the toolchain's CLI texture.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sCORSAIR%s\n", ColorBold+ColorBlue, ColorReset)
	fmt.Fprintf(w, "%sIssue, transport, and verify CPOE credentials.%s\n", ColorGray, ColorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", ColorBold, ColorReset)
	fmt.Fprintln(w, "  corsair <command> [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "ISSUANCE")
	printCommand(w, "sign", "Sign a CPOE marque from a compliance document")
	printCommand(w, "keygen", "Generate and persist an issuer Ed25519 keypair")

	printSection(w, "VERIFICATION")
	printCommand(w, "verify", "Verify a CPOE marque file (bundle directories are not supported)")
	printCommand(w, "diff", "Compare two CPOEs for score/control regressions")
	printCommand(w, "policy", "Validate a CEL policy file")

	printSection(w, "TRANSPARENCY")
	printCommand(w, "log", "Register a marque with a transparency log (no listing)")
	printCommand(w, "trust-txt", "Generate or discover a trust.txt file")

	printSection(w, "MAPPINGS")
	printCommand(w, "mappings", "List, validate, pack, and sign mappings")

	printSection(w, "RECEIPTS")
	printCommand(w, "receipts", "Generate a standalone receipt chain")

	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", ColorBold+ColorCyan, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-12s%s %s\n", ColorGreen, name, ColorReset, desc)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
