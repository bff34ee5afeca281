// Package prompts holds the prompt templates for grounded generation.
package prompts

import (
	"fmt"
	"strings"
)

// contextJoiner separates formatted context documents in the prompt.
const contextJoiner = "\n\n---\n\n"

// NoAnswer is the phrase the model is instructed to use when the
// context cannot answer the question. It is also returned directly when
// the collection yields no sources at all.
const NoAnswer = "I don't have enough information to answer this question."

// groundedTemplate instructs the model to answer only from the provided
// context and to cite source document numbers.
const groundedTemplate = `You are an AI assistant that answers questions based on the provided context.

Context information:
%s

User question: %s

Please answer the question based only on the provided context. If the context doesn't contain the information needed to answer the question, say "%s"

Important: Include citations to the source documents in your response. When you reference information from the context, mention the source document number (e.g., [Document 1], [Document 2, Page 3]).
`

// Grounded builds the generation prompt from formatted context documents
// and the user's query.
func Grounded(query string, contextDocs []string) string {
	return fmt.Sprintf(groundedTemplate, strings.Join(contextDocs, contextJoiner), query, NoAnswer)
}
