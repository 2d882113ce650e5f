package port

import "context"

// TextGenerator abstracts the external generation API.
// Implementations can target Gemini or any compatible text-completion API.
type TextGenerator interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Generate sends a prompt and returns the first candidate's text.
	// A reachable upstream that produced no candidate text returns ErrEmptyCompletion.
	Generate(ctx context.Context, prompt string) (string, error)
}
