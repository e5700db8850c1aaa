package mapping

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ParserHint is an optional, deny-by-default WASM transform a mapping may
// declare (via Mapping.ParserHintWasm) to reshape a vendor's raw bytes
// into the JSON shape its match/extract paths expect, for vendors whose
// native export format needs more than path remapping (e.g. a binary or
// delimited report). The module receives the raw bytes on stdin and must
// write JSON to stdout; it gets no filesystem, network, or clock access.
type ParserHint struct {
	wasm []byte
}

// NewParserHint wraps a compiled WASM module's bytes for repeated use.
func NewParserHint(wasm []byte) *ParserHint {
	return &ParserHint{wasm: wasm}
}

// Run executes the hint against raw input, bounded by timeout.
func (h *ParserHint) Run(ctx context.Context, raw []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r := wazero.NewRuntime(ctx)
	defer func() { _ = r.Close(ctx) }()

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName("corsair-parser-hint").
		WithStartFunctions("_start").
		WithStdin(bytes.NewReader(raw)).
		WithStdout(&stdout).
		WithStderr(&stderr)
	// Deny-by-default: no WithFSConfig, no WithSysNanotime, no WithRandSource.

	compiled, err := r.CompileModule(ctx, h.wasm)
	if err != nil {
		return nil, fmt.Errorf("mapping: parser hint compile failed: %w", err)
	}
	defer func() { _ = compiled.Close(ctx) }()

	mod, err := r.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("mapping: parser hint timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("mapping: parser hint instantiation failed: %w", err)
	}
	defer func() { _ = mod.Close(ctx) }()

	if stderr.Len() > 0 {
		return stdout.Bytes(), fmt.Errorf("mapping: parser hint stderr: %s", stderr.String())
	}
	return stdout.Bytes(), nil
}
