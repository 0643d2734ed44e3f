// Package emit describes generated declarations and persists them.
//
// The generator never writes source text itself: it builds Files made of
// context classes and functions whose bodies are small statement trees.
// An Emitter decides what to do with them. Memory keeps them for the
// in-process interpreter and for tests, Dir renders Kotlin source into a
// directory tree.
package emit
