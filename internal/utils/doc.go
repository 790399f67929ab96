// Package utils provides shared low-level helpers: the synchronous JSON
// HTTP round-trip used by provider clients, string helpers for log output
// and file naming, and a generic pointer constructor.
package utils
