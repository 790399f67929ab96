// Package search provides the fallback web-search collaborator used when
// provider-side search grounding is unavailable. Two adapters implement the
// Searcher port: the keyless DuckDuckGo Instant Answer API, enriched by
// fetching the best source page and converting it to Markdown, and the
// key-gated Tavily API with LLM-oriented result snippets.
package search
