package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation messages, excluding the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Built-in provider tools to enable
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

// ToolDescription names a built-in provider tool to enable for a request.
type ToolDescription struct {
	Name string `json:"name"`
}

// Built-in provider tool names.
const (
	// ToolGoogleSearch enables search grounding: the provider runs web
	// searches itself and attaches source metadata to the response.
	ToolGoogleSearch = "google_search"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig carries the sampling parameters of a request.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`       // Sampling temperature [0..2]. Higher => more random.
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"` // Optional max tokens for the output
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports token consumption for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Created      int64  `json:"created"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`

	// Refusal carries the block reason when the provider filtered the
	// request instead of answering.
	Refusal string `json:"refusal,omitempty"`

	// Grounding is present when a search tool was enabled and the provider
	// grounded the answer in web sources.
	Grounding *GroundingMetadata `json:"grounding,omitempty"`
}

// GroundingMetadata describes the web sources behind a grounded response.
type GroundingMetadata struct {
	SearchQueries []string          `json:"search_queries,omitempty"`
	Sources       []GroundingSource `json:"sources,omitempty"`
}

// GroundingSource is one web source the provider consulted.
type GroundingSource struct {
	Index int    `json:"index"`
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)
