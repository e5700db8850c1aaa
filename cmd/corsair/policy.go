package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/corsair-io/corsair/pkg/verify"
)

// runPolicy dispatches the "policy" subcommands.
func runPolicy(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: corsair policy validate --file FILE [--json]")
		return 2
	}
	switch args[0] {
	case "validate":
		return runPolicyValidate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown policy subcommand: %s\n", args[0])
		return 2
	}
}

// runPolicyValidate loads and compiles a policy file, reporting whether
// every rule expression is syntactically valid CEL without evaluating it
// against any claim set.
func runPolicyValidate(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("policy validate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var file string
	var jsonOutput bool
	cmd.StringVar(&file, "file", "", "Policy file to validate (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	policy, err := verify.LoadPolicyFile(file)
	if err == nil {
		err = policy.Validate()
	}
	if err != nil {
		if jsonOutput {
			printJSON(stdout, map[string]any{"valid": false, "error": err.Error()})
		} else {
			fmt.Fprintf(stderr, "Invalid policy: %v\n", err)
		}
		return 1
	}

	if jsonOutput {
		printJSON(stdout, map[string]any{
			"valid": true,
			"name":  policy.Name,
			"rules": len(policy.Rules),
		})
	} else {
		fmt.Fprintf(stdout, "%sPolicy valid%s: %s (%d rules)\n", ColorBold+ColorGreen, ColorReset, policy.Name, len(policy.Rules))
	}
	return 0
}
