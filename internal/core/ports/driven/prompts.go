package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the answer service.
const (
	// PromptAnswerSystem is the system message. No placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerGrounded wraps retrieved context. Expects %s (context)
	// then %s (question).
	PromptAnswerGrounded = "answer_grounded"

	// PromptAnswerUngrounded is used when no context was found. Expects %s
	// (question).
	PromptAnswerUngrounded = "answer_ungrounded"
)
