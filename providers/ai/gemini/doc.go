// Package gemini implements the ai.Provider interface on top of Google's
// Gemini REST API (generateContent endpoint), including Google Search
// grounding for the book research steps.
package gemini
