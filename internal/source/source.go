// Package source fetches document records from the remote notes API. The
// records carry up to four redundant renderings of the same note; nothing
// here tries to reconcile them, that is the classifier's and converter's
// job downstream.
package source

import (
	"encoding/json"
)

// Panel is the content envelope around the "last viewed panel" tree.
type Panel struct {
	Content json.RawMessage `json:"content"`
}

// UnmarshalJSON tolerates a panel field that is not an object; anything
// other than a `{content: ...}` envelope decodes to an empty panel instead
// of failing the document.
func (p *Panel) UnmarshalJSON(data []byte) error {
	*p = Panel{}
	var raw struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	p.Content = raw.Content
	return nil
}

// Document is one record from the notes API. Every field is optional: the
// API omits, nulls, or garbles fields freely, so the tree-valued ones stay
// raw JSON until a consumer decodes them tolerantly.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	Notes           json.RawMessage `json:"notes"`
	NotesPlain      string          `json:"notes_plain"`
	NotesMarkdown   string          `json:"notes_markdown"`
	LastViewedPanel *Panel          `json:"last_viewed_panel"`
}
