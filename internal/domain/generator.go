package domain

import "context"

// Generator produces an answer to a question conditioned on retrieved
// context text. The returned string is complete or the call fails; a
// truncated answer is never returned.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}
