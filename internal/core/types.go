package core

// CompletionParams are the caller-supplied knobs forwarded to the external
// completion collaborator alongside the (already tokenized) prompt.
// Nil pointer fields mean "use the provider default".
type CompletionParams struct {
	// SystemPrompt is the system instruction for the completion.
	SystemPrompt string
	// Model overrides the configured default model.
	Model string
	// Temperature overrides the provider default sampling temperature.
	Temperature *float64
	// MaxTokens caps the completion output length.
	MaxTokens *int
	// APIKey overrides the configured provider API key for this request.
	APIKey string
}
