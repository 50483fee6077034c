// Package trace records compiler stage and function spans.
//
// Tracing is enabled from the command line:
//
//	keel check --trace=- --trace-level=detail main.kl
//
// A StreamTracer writes each event as it happens (text or NDJSON), a
// RingTracer keeps the last N events in memory for dumps after a failure,
// and New combines both in ModeBoth. The active tracer travels in a
// context.Context; FromContext returns Nop when none is attached.
//
// Levels map onto scopes: phase emits driver and stage spans, detail adds
// per-function spans (sizing, lowering, refcount), debug emits everything.
package trace
