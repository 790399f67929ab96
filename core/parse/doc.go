// Package parse contains the pure text-extraction components of the
// generator: everything that turns model-generated free text into structured
// plan data, with no I/O and no model calls.
//
// Every extractor follows the same contract: unmatched text yields a
// documented fallback value, never an error that escapes into workflow
// control flow. Parsing failure is a recoverable condition of the run, not
// a run failure. The only function returning an error is the generic
// [ParseStringAs], whose callers supply their own fallback on error.
package parse
