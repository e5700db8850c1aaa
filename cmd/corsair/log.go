package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/corsair-io/corsair/pkg/transparency"
)

// runLog implements `corsair log [register]`: registering a marque (or its
// hash commitment) with a transparency log, discovered from an issuer's
// trust.txt when --scitt is not given directly.
func runLog(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "register" {
		args = args[1:]
	}
	return runLogRegister(args, stdout, stderr)
}

func runLogRegister(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("log register", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		last      string
		dir       string
		scitt     string
		domain    string
		issuer    string
		framework string
		proofOnly bool
		jsonOut   bool
	)
	cmd.StringVar(&last, "last", "", "Marque file to register")
	cmd.StringVar(&dir, "dir", "", "Directory to pick the most recently modified marque from, if --last is unset")
	cmd.StringVar(&scitt, "scitt", "", "Transparency log URL (skips trust.txt discovery)")
	cmd.StringVar(&domain, "domain", "", "Issuer domain to discover the log URL from via trust.txt")
	cmd.StringVar(&issuer, "issuer", "", "Issuer DID recorded alongside the registration (informational)")
	cmd.StringVar(&framework, "framework", "", "Framework label recorded alongside the registration (informational)")
	cmd.BoolVar(&proofOnly, "proof-only", false, "Register only a hash commitment, not the full marque")
	cmd.BoolVar(&jsonOut, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	marquePath := last
	if marquePath == "" {
		if dir == "" {
			fmt.Fprintln(stderr, "Error: --last or --dir is required")
			return 2
		}
		found, err := latestFileIn(dir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		marquePath = found
	}

	raw, err := os.ReadFile(marquePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading marque: %v\n", err)
		return 2
	}

	logURL := scitt
	if logURL == "" {
		if domain == "" {
			fmt.Fprintln(stderr, "Error: --scitt or --domain is required")
			return 2
		}
		tf, err := transparency.Discover(context.Background(), domain)
		if err != nil {
			fmt.Fprintf(stderr, "Error discovering trust.txt: %v\n", err)
			return 1
		}
		if tf.SCITT == "" {
			fmt.Fprintf(stderr, "Error: %s's trust.txt does not advertise a scitt log\n", domain)
			return 1
		}
		logURL = tf.SCITT
	}

	client := transparency.NewClient(logURL)
	entry, err := client.Register(context.Background(), raw, proofOnly)
	if err != nil {
		if jsonOut {
			printJSON(stdout, map[string]any{"ok": false, "error": err.Error()})
		} else {
			fmt.Fprintf(stderr, "Registration failed: %v\n", err)
		}
		return 1
	}

	if jsonOut {
		printJSON(stdout, map[string]any{
			"ok":        true,
			"entry":     entry,
			"issuer":    issuer,
			"framework": framework,
		})
	} else {
		fmt.Fprintf(stdout, "%sRegistered%s: log=%s index=%d\n", ColorBold+ColorGreen, ColorReset, entry.LogID, entry.LogIndex)
	}
	return 0
}

// latestFileIn returns the most recently modified regular file in dir.
func latestFileIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var best string
	var bestTime int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().Unix(); best == "" || t > bestTime {
			best, bestTime = filepath.Join(dir, e.Name()), t
		}
	}
	if best == "" {
		return "", fmt.Errorf("no files found in %s", dir)
	}
	return best, nil
}

// sortedKeys is a small helper used by the trust-txt command to render
// TrustFile.Extra deterministically.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
