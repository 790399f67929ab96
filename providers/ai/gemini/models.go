package gemini

/*
	GEMINI API - REQUEST TYPES
*/

// generateContentRequest represents the request to Gemini's generateContent
// endpoint.
type generateContentRequest struct {
	Contents          []content          `json:"contents"`
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	Tools             []tool             `json:"tools,omitempty"`
}

// systemInstruction represents the system instruction for Gemini.
type systemInstruction struct {
	Parts []part `json:"parts"`
}

// content represents a content block with role and parts.
type content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []part `json:"parts"`
}

// part represents a text content part.
type part struct {
	Text string `json:"text,omitempty"`
}

// generationConfig represents generation parameters for Gemini.
type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// tool represents a tool definition for Gemini.
type tool struct {
	GoogleSearch *googleSearchTool `json:"googleSearch,omitempty"`
}

// googleSearchTool represents the Google Search grounding tool.
type googleSearchTool struct{}

/*
	GEMINI API - RESPONSE TYPES
*/

// generateContentResponse represents the response from Gemini's
// generateContent endpoint.
type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates,omitempty"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// candidate represents a response candidate.
type candidate struct {
	Content           *content           `json:"content,omitempty"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

// groundingMetadata represents grounding information from Google Search.
type groundingMetadata struct {
	GroundingChunks  []groundingChunk `json:"groundingChunks,omitempty"`
	WebSearchQueries []string         `json:"webSearchQueries,omitempty"`
}

// groundingChunk represents a grounding chunk.
type groundingChunk struct {
	Web *webChunk `json:"web,omitempty"`
}

// webChunk represents a web source behind a grounded answer.
type webChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// promptFeedback represents feedback about the prompt.
type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// usageMetadata represents token usage information.
type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}
