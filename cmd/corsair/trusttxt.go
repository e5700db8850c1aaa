package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corsair-io/corsair/pkg/transparency"
)

// runTrustTxt dispatches `corsair trust-txt generate|discover`.
func runTrustTxt(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: corsair trust-txt <generate|discover> [flags]")
		return 2
	}
	switch args[0] {
	case "generate":
		return runTrustTxtGenerate(args[1:], stdout, stderr)
	case "discover":
		return runTrustTxtDiscover(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown trust-txt subcommand: %s\n", args[0])
		return 2
	}
}

func runTrustTxtGenerate(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("trust-txt generate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var cpoe, scitt, policy, frameworks, output string
	cmd.StringVar(&cpoe, "cpoe", "", "CPOE issuance endpoint")
	cmd.StringVar(&scitt, "scitt", "", "Transparency log endpoint")
	cmd.StringVar(&policy, "policy", "", "Published default policy URL")
	cmd.StringVar(&frameworks, "frameworks", "", "Comma-separated list of supported frameworks")
	cmd.StringVar(&output, "output", "", "Write to this file instead of stdout")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	tf := &transparency.TrustFile{CPOE: cpoe, SCITT: scitt, Policy: policy}
	if frameworks != "" {
		tf.Frameworks = strings.Split(frameworks, ",")
	}
	rendered := transparency.Generate(tf)

	if output != "" {
		if err := os.WriteFile(output, rendered, 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing %s: %v\n", output, err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", output)
		return 0
	}
	_, _ = stdout.Write(rendered)
	return 0
}

func runTrustTxtDiscover(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("trust-txt discover", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var domain string
	var jsonOut bool
	cmd.StringVar(&domain, "domain", "", "Domain to discover trust.txt from (REQUIRED)")
	cmd.BoolVar(&jsonOut, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if domain == "" {
		fmt.Fprintln(stderr, "Error: --domain is required")
		return 2
	}

	tf, err := transparency.Discover(context.Background(), domain)
	if err != nil {
		fmt.Fprintf(stderr, "Discovery failed: %v\n", err)
		return 1
	}

	if jsonOut {
		printJSON(stdout, map[string]any{
			"cpoe":       tf.CPOE,
			"scitt":      tf.SCITT,
			"policy":     tf.Policy,
			"frameworks": tf.Frameworks,
			"extra":      tf.Extra,
		})
		return 0
	}

	fmt.Fprintf(stdout, "cpoe:       %s\n", tf.CPOE)
	fmt.Fprintf(stdout, "scitt:      %s\n", tf.SCITT)
	fmt.Fprintf(stdout, "policy:     %s\n", tf.Policy)
	fmt.Fprintf(stdout, "frameworks: %s\n", strings.Join(tf.Frameworks, ", "))
	for _, k := range sortedKeys(tf.Extra) {
		fmt.Fprintf(stdout, "%s: %s\n", k, tf.Extra[k])
	}
	return 0
}
