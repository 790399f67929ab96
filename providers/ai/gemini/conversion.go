package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/j840425/plan-estudio/internal/utils"
	"github.com/j840425/plan-estudio/providers/ai"
)

// requestToGemini converts an ai.ChatRequest to a Gemini
// generateContentRequest.
func requestToGemini(request ai.ChatRequest) generateContentRequest {
	req := generateContentRequest{}

	if request.SystemPrompt != "" {
		req.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: request.SystemPrompt}},
		}
	}

	req.Contents = buildContents(request.Messages)
	req.GenerationConfig = buildGenerationConfig(request.GenerationConfig)

	for _, t := range request.Tools {
		if t.Name == ai.ToolGoogleSearch {
			req.Tools = append(req.Tools, tool{GoogleSearch: &googleSearchTool{}})
		}
	}

	return req
}

// buildContents converts ai.Message slice to Gemini content slice.
// Role mapping: user -> user, assistant -> model, system -> user (system
// prompts belong in SystemInstruction).
func buildContents(messages []ai.Message) []content {
	var contents []content
	for _, msg := range messages {
		role := "user"
		if msg.Role == ai.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Content}},
		})
	}
	return contents
}

// buildGenerationConfig converts ai.GenerationConfig to Gemini
// generationConfig.
func buildGenerationConfig(cfg *ai.GenerationConfig) *generationConfig {
	if cfg == nil {
		return nil
	}

	gc := &generationConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = utils.Ptr(float64(cfg.Temperature))
	}
	if cfg.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = utils.Ptr(cfg.MaxOutputTokens)
	}
	return gc
}

// geminiToGeneric converts a Gemini generateContentResponse to
// ai.ChatResponse.
func geminiToGeneric(resp generateContentResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Model:   resp.ModelVersion,
		Created: time.Now().Unix(),
	}

	// Handle empty response
	if len(resp.Candidates) == 0 {
		result.FinishReason = "error"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			result.FinishReason = "content_filter"
			result.Refusal = resp.PromptFeedback.BlockReason
		}
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = mapFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		var textParts []string
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				textParts = append(textParts, p.Text)
			}
		}
		result.Content = strings.Join(textParts, "\n")
	}

	if resp.UsageMetadata != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if candidate.GroundingMetadata != nil {
		result.Grounding = mapGroundingMetadata(candidate.GroundingMetadata)
	}

	return result
}

// mapFinishReason converts a Gemini finish reason to the generic form.
func mapFinishReason(geminiReason string) string {
	switch geminiReason {
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		return "stop"
	}
}

// mapGroundingMetadata converts Gemini grounding metadata to the generic
// format.
func mapGroundingMetadata(gm *groundingMetadata) *ai.GroundingMetadata {
	result := &ai.GroundingMetadata{
		SearchQueries: gm.WebSearchQueries,
	}
	for i, chunk := range gm.GroundingChunks {
		if chunk.Web != nil {
			result.Sources = append(result.Sources, ai.GroundingSource{
				Index: i,
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}
	return result
}
