// Package ai defines the provider-agnostic contract for the text generation
// collaborator: a chat-style request/response model plus the [Provider]
// interface every backend implements.
//
// The workflow nodes depend only on this package; the concrete backend
// (subpackage gemini) is chosen at startup. Built-in provider tools such as
// [ToolGoogleSearch] are requested by name and translated by each backend
// into its native tool format.
package ai
