package domain

import (
	"maps"
	"strings"
)

// Metadata keys set by the document source and the vector store.
const (
	MetaSource    = "source"
	MetaLine      = "line"
	MetaNamespace = "namespace"
)

// Document is one unit of text fed to the embedder, together with its metadata.
// A Document is treated as immutable once produced.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewDocument copies metadata so the caller's map can be reused.
func NewDocument(content string, metadata map[string]string) Document {
	return Document{Content: content, Metadata: maps.Clone(metadata)}
}

// Contents returns the text of every document, preserving order.
func Contents(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

// JoinContents joins document texts with sep.
func JoinContents(docs []Document, sep string) string {
	return strings.Join(Contents(docs), sep)
}
