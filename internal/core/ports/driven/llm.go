package driven

import "context"

// LLMService answers questions over retrieved excerpts and rewrites chunks
// for the compress stage.
type LLMService interface {
	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat sends a system message and user turns and returns the reply text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping sends a minimal request to check the endpoint and credentials.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a single completion. Zero values use the
// provider defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn. Role is RoleSystem, RoleUser or RoleAssistant.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a chat reply. Answers use a low temperature so the
// model stays close to the excerpts.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
