// Package generator holds the answer generation prompt shared by every
// backend, so swapping providers never changes what the model is asked.
package generator

import "fmt"

const promptTemplate = `Based on the following context, answer the question.

Context:
%s

Question:
%s

Answer:`

// BuildPrompt assembles the fixed RAG prompt from the retrieved context and
// the user question.
func BuildPrompt(question, contextText string) string {
	return fmt.Sprintf(promptTemplate, contextText, question)
}
