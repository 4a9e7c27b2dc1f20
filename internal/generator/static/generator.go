// Package static is the no-credential answer generator: a clearly marked
// placeholder used when no language model is configured, and the
// deterministic backend for tests.
package static

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces a fixed-form placeholder answer. The prefix makes the
// degraded mode visible to callers instead of failing the whole pipeline.
type Generator struct{}

// New creates a static generator.
func New() *Generator { return &Generator{} }

// Generate implements domain.Generator. Never fails.
func (*Generator) Generate(_ context.Context, question, contextText string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return fmt.Sprintf(
			"[no language model configured] No relevant context was found for: %s",
			strings.TrimSpace(question),
		), nil
	}
	return fmt.Sprintf(
		"[no language model configured] Based on the provided context, %s",
		strings.ToLower(strings.TrimSpace(question)),
	), nil
}
