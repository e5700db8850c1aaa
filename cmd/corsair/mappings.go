package main

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corsair-io/corsair/pkg/config"
	"github.com/corsair-io/corsair/pkg/mapping"
)

// runMappings dispatches `corsair mappings list|validate|add|pack|sign`.
func runMappings(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: corsair mappings <list|validate|add|pack|sign> [flags]")
		return 2
	}
	switch args[0] {
	case "list":
		return runMappingsList(args[1:], stdout, stderr)
	case "validate":
		return runMappingsValidate(args[1:], stdout, stderr)
	case "add":
		return runMappingsAdd(args[1:], stdout, stderr)
	case "pack":
		return runMappingsPack(args[1:], stdout, stderr)
	case "sign":
		return runMappingsSign(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown mappings subcommand: %s\n", args[0])
		return 2
	}
}

// repeatableFlag collects every occurrence of a flag.Var-backed flag, for
// `--mapping FILE` repeated once per input file.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func runMappingsList(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mappings list", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var jsonOut bool
	cmd.BoolVar(&jsonOut, "json", false, "Output result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	reg, errs := mapping.NewRegistry(cfg)
	for _, e := range errs {
		fmt.Fprintf(stderr, "warning: %v\n", e)
	}

	if jsonOut {
		type row struct {
			ID       string `json:"id"`
			Source   string `json:"source"`
			Priority int    `json:"priority,omitempty"`
		}
		var rows []row
		for _, m := range reg.Mappings() {
			rows = append(rows, row{ID: m.ID, Source: m.Source, Priority: m.Priority})
		}
		printJSON(stdout, rows)
		return 0
	}

	for _, m := range reg.Mappings() {
		fmt.Fprintf(stdout, "%-24s source=%-12s priority=%d\n", m.ID, m.Source, m.Priority)
	}
	return 0
}

func runMappingsValidate(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mappings validate", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var mappingPath string
	var jsonOut bool
	cmd.StringVar(&mappingPath, "mapping", "", "Mapping file to validate (REQUIRED)")
	cmd.BoolVar(&jsonOut, "json", false, "Output result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if mappingPath == "" {
		fmt.Fprintln(stderr, "Error: --mapping is required")
		return 2
	}

	m, err := mapping.LoadMappingFile(mappingPath)
	if err != nil {
		if jsonOut {
			printJSON(stdout, map[string]any{"valid": false, "error": err.Error()})
		} else {
			fmt.Fprintf(stderr, "Invalid mapping: %v\n", err)
		}
		return 1
	}

	if jsonOut {
		printJSON(stdout, map[string]any{"valid": true, "id": m.ID})
	} else {
		fmt.Fprintf(stdout, "%sValid%s: %s\n", ColorBold+ColorGreen, ColorReset, m.ID)
	}
	return 0
}

func runMappingsAdd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mappings add", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var mappingPath, output string
	cmd.StringVar(&mappingPath, "mapping", "", "Mapping file to add (REQUIRED)")
	cmd.StringVar(&output, "output", "", "Destination directory (defaults to the first CORSAIR_MAPPING_DIR entry)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if mappingPath == "" {
		fmt.Fprintln(stderr, "Error: --mapping is required")
		return 2
	}

	m, err := mapping.LoadMappingFile(mappingPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	destDir := output
	if destDir == "" {
		dirs := config.Load().MappingDirs
		if len(dirs) == 0 {
			fmt.Fprintln(stderr, "Error: --output or CORSAIR_MAPPING_DIR is required")
			return 2
		}
		destDir = dirs[0]
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "Error creating %s: %v\n", destDir, err)
		return 1
	}

	raw, err := os.ReadFile(mappingPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	destPath := filepath.Join(destDir, m.ID+filepath.Ext(mappingPath))
	if err := os.WriteFile(destPath, raw, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error writing %s: %v\n", destPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "Added %s -> %s\n", m.ID, destPath)
	return 0
}

func runMappingsPack(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mappings pack", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var id, version, output string
	var files repeatableFlag
	cmd.StringVar(&id, "id", "", "Pack ID (REQUIRED)")
	cmd.StringVar(&version, "version", "", "Pack version (REQUIRED)")
	cmd.Var(&files, "mapping", "Mapping file to include (repeatable, REQUIRED)")
	cmd.StringVar(&output, "output", "", "Write to this file instead of stdout")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" || version == "" || len(files) == 0 {
		fmt.Fprintln(stderr, "Error: --id, --version, and at least one --mapping are required")
		return 2
	}

	var mappings []*mapping.Mapping
	for _, f := range files {
		m, err := mapping.LoadMappingFile(f)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading %s: %v\n", f, err)
			return 1
		}
		mappings = append(mappings, m)
	}

	pack := &mapping.Pack{
		Pack:     mapping.PackInfo{ID: id, Version: version, IssuedAt: time.Now().UTC()},
		Mappings: mappings,
	}
	return writePackJSON(stdout, stderr, pack, output)
}

func runMappingsSign(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("mappings sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var mappingPath, keyPath, output string
	cmd.StringVar(&mappingPath, "mapping", "", "Unsigned pack JSON produced by `mappings pack` (REQUIRED)")
	cmd.StringVar(&keyPath, "key", "", "PEM-encoded Ed25519 private key to sign with (REQUIRED)")
	cmd.StringVar(&output, "output", "", "Write to this file instead of stdout")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if mappingPath == "" || keyPath == "" {
		fmt.Fprintln(stderr, "Error: --mapping and --key are required")
		return 2
	}

	raw, err := os.ReadFile(mappingPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading %s: %v\n", mappingPath, err)
		return 1
	}
	var unsigned mapping.Pack
	if err := json.Unmarshal(raw, &unsigned); err != nil {
		fmt.Fprintf(stderr, "Error parsing pack: %v\n", err)
		return 1
	}

	priv, err := loadEd25519PrivateKeyPEM(keyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading key: %v\n", err)
		return 1
	}

	signed, err := mapping.SignPack(unsigned.Pack, unsigned.Mappings, priv)
	if err != nil {
		fmt.Fprintf(stderr, "Error signing pack: %v\n", err)
		return 1
	}
	return writePackJSON(stdout, stderr, signed, output)
}

func writePackJSON(stdout, stderr io.Writer, pack *mapping.Pack, output string) int {
	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error encoding pack: %v\n", err)
		return 1
	}
	if output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing %s: %v\n", output, err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", output)
		return 0
	}
	_, _ = stdout.Write(data)
	_, _ = stdout.Write([]byte("\n"))
	return 0
}

func loadEd25519PrivateKeyPEM(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM in %s", path)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key in %s is not Ed25519", path)
	}
	return priv, nil
}
