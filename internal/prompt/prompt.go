// Package prompt renders the fixed question-answering template.
package prompt

import (
	"strings"

	"github.com/Zereker/chatbot/internal/domain"
)

// Template is the fixed prompt sent to the chat model.
const Template = `Answer the question based only on the following context:
{context}
Question: {question}`

// ContextSeparator joins retrieved document texts.
const ContextSeparator = "\n\n"

// Prompt is the pair of values substituted into Template.
type Prompt struct {
	Context  string
	Question string
}

// New builds a Prompt from retrieved documents.
func New(question string, docs []domain.Document) Prompt {
	return Prompt{
		Context:  domain.JoinContents(docs, ContextSeparator),
		Question: question,
	}
}

// String renders the prompt. Values are substituted verbatim.
func (p Prompt) String() string {
	return strings.NewReplacer("{context}", p.Context, "{question}", p.Question).Replace(Template)
}

// Assemble renders the prompt for question over docs.
func Assemble(question string, docs []domain.Document) string {
	return New(question, docs).String()
}
