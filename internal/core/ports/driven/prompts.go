package driven

// PromptStore resolves prompt templates by name.
type PromptStore interface {
	// Load returns the template for name, or the built-in default when no
	// override exists. Unknown names are an error.
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the persona and framing for query answers.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the retrieved excerpts and the question.
	// The template expects two %s placeholders: excerpts, then query.
	PromptAnswerUser = "answer_user"

	// PromptCompress condenses a chunk before embedding.
	// The template expects a %s placeholder for the chunk text.
	PromptCompress = "compress"
)
