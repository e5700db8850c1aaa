// Package observability provides OpenTelemetry tracing and RED metrics for
// the CORSAIR CLI, the same shape as the teacher's HELM observability
// provider, scaled down to a CLI's one-shot invocations rather than a
// long-running server.
//
// # Tracing and metrics
//
// Initialize the provider once per CLI invocation:
//
//	prov, err := observability.New(ctx, observability.DefaultConfig())
//	defer prov.Shutdown(ctx)
//
// Wrap a pipeline step:
//
//	ctx, done := prov.TrackOperation(ctx, "sign",
//		observability.PipelineOperation("marque", chainDigest)...)
//	defer done(err)
package observability
