// Package classify decides whether a document record carries any
// user-meaningful text across its redundant content representations.
package classify

import (
	"strings"

	"github.com/panelnotes/notesink/internal/extract"
	"github.com/panelnotes/notesink/internal/source"
)

// IsEmpty reports whether the document has no visible text in any of its
// content fields. The fields are checked as an ordered cascade and the
// first hit wins:
//
//  1. The last-viewed-panel tree. It is the freshest user-facing signal,
//     so any visible text there makes the document non-empty no matter
//     what the other fields or the timestamps say.
//  2. notes_plain, notes_markdown, then the notes tree.
//
// Timestamps never gate the decision in either direction: a document with
// no text anywhere is empty even when created_at and updated_at differ,
// and one with text is never empty just because they match. Malformed or
// null fields at any nesting level contribute no text; the function never
// panics.
func IsEmpty(doc *source.Document) bool {
	if doc == nil {
		return true
	}
	if doc.LastViewedPanel != nil && hasText(extract.Text(doc.LastViewedPanel.Content)) {
		return false
	}
	if hasText(doc.NotesPlain) {
		return false
	}
	if hasText(doc.NotesMarkdown) {
		return false
	}
	if hasText(extract.Text(doc.Notes)) {
		return false
	}
	return true
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
