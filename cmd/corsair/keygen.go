package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/corsair-io/corsair/pkg/config"
	"github.com/corsair-io/corsair/pkg/identity"
)

// runKeygen generates (or loads, if already present) the issuer's Ed25519
// keypair under the configured key directory, per §6's persisted-state
// contract: ~/.corsair/keys/ed25519.pem (mode 0600) + ed25519.pub.
func runKeygen(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("keygen", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var output string
	cmd.StringVar(&output, "output", "", "Key directory (defaults to CORSAIR_KEY_DIR / ~/.corsair/keys)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	dir := output
	if dir == "" {
		dir = config.Load().KeyDir
	}

	km := identity.NewKeyManager(dir)
	ks, err := km.Acquire()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%sIssuer key ready%s\n", ColorBold+ColorGreen, ColorReset)
	fmt.Fprintf(stdout, "  dir:   %s\n", dir)
	fmt.Fprintf(stdout, "  kid:   %s\n", ks.KID())
	fmt.Fprintf(stdout, "  pub:   %x\n", ks.PublicKey())
	return 0
}
