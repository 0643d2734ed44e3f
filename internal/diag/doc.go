// Package diag defines diagnostics and the error model shared by the
// generator, the interpreter and the bytecode patcher.
//
// # Error kinds
//
// Every failure is an *Error carrying a Code and a Kind:
//
//   - KindUser covers ambiguity (inference or construction lookup found zero or
//     several candidates), projection failures, configuration mistakes and
//     runtime validation of generated code.
//   - KindInternal marks engine bugs ("should not be reached"). These are never
//     caught and continued.
//
// Ambiguity errors enumerate every candidate in Error.Candidates. Errors are
// located at most once: Located attaches the source location of the function
// under processing at the outermost entry and leaves already located errors
// alone.
//
// # Diagnostics
//
// Warnings (for example the monoParameter warnings) do not abort generation.
// They are reported through a Reporter, usually a *Bag wrapped in Once, and
// rendered by the CLI. FormatShort produces a deterministic
// one-line-per-entry rendering.
package diag
