// Package trace is the structured logging layer of dslgen.
//
// Generation and patching report progress as events instead of free-form
// log lines: spans around sessions, functions and files, points for single
// decisions. Events are filtered by Level and written as text or NDJSON, or
// kept in a ring buffer that is dumped only when a command fails.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "generate", 0)
//	defer span.End("")
package trace
