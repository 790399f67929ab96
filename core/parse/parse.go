package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses generated text into the specified type T.
// Model output is rarely clean JSON: it arrives wrapped in Markdown fences,
// with single quotes, trailing commas or unquoted keys. A failed unmarshal
// is therefore retried after stripping fences and repairing the JSON with
// jsonrepair.
//
// Example usage:
//
//	type Verdict struct {
//	    Approved bool     `json:"approved"`
//	    Issues   []string `json:"issues"`
//	}
//
//	// Parse a valid JSON string
//	verdict, err := ParseStringAs[Verdict](`{"approved":true,"issues":[]}`)
//
//	// Parse an invalid JSON string (will be auto-repaired)
//	verdict, err := ParseStringAs[Verdict](`{approved: true, issues: []}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T

	content = StripFences(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("content is not JSON and could not be repaired: %w", repairErr)
	}

	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return result, nil
}

// StripFences removes a surrounding Markdown code fence, with or without a
// language tag, and returns the inner text. Text without a fence is returned
// trimmed.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		firstLine := strings.TrimSpace(trimmed[:newline])
		// Only a language tag may sit on the opening fence line.
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
