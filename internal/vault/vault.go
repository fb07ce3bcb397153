// Package vault writes converted notes into a Markdown vault directory
// with create-or-update semantics.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	yaml "gopkg.in/yaml.v3"
)

// Note is the payload handed to the sink: a filename relative to the vault
// root, the Markdown body, and string-valued frontmatter.
type Note struct {
	Filename    string
	Content     string
	Frontmatter map[string]string
}

// Status reports what Write did with a note.
type Status int

const (
	StatusCreated Status = iota
	StatusUpdated
	StatusUnchanged
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Render produces the full file body: a YAML frontmatter fence followed by
// the Markdown content. yaml.v3 marshals maps with sorted keys, so output
// is byte-stable for identical input.
func (n Note) Render() string {
	var b strings.Builder
	if len(n.Frontmatter) > 0 {
		b.WriteString("---\n")
		out, err := yaml.Marshal(n.Frontmatter)
		if err == nil {
			b.Write(out)
		}
		b.WriteString("---\n\n")
	}
	b.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// Sink writes notes beneath Dir.
type Sink struct {
	Dir string
}

// Write creates or updates the note's file. An existing file with
// byte-identical content is left untouched and reported as unchanged.
func (s *Sink) Write(n Note) (Status, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return StatusUnchanged, errors.New("vault dir not configured")
	}
	if strings.TrimSpace(n.Filename) == "" {
		return StatusUnchanged, errors.New("note has no filename")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return StatusUnchanged, fmt.Errorf("create vault dir: %w", err)
	}
	path := filepath.Join(s.Dir, n.Filename)
	rendered := []byte(n.Render())

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, rendered) {
			return StatusUnchanged, nil
		}
		if err := writeAtomic(path, rendered); err != nil {
			return StatusUnchanged, err
		}
		return StatusUpdated, nil
	case os.IsNotExist(err):
		if err := writeAtomic(path, rendered); err != nil {
			return StatusUnchanged, err
		}
		return StatusCreated, nil
	default:
		return StatusUnchanged, fmt.Errorf("read existing note: %w", err)
	}
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	return os.Rename(tmp, path)
}

// maxFilenameRunes bounds generated note filenames, leaving headroom for
// the extension on filesystems with a 255-byte limit.
const maxFilenameRunes = 120

// Filename derives a vault filename from a note title and its creation
// timestamp. Titles are NFC-normalized, stripped of characters that are
// unsafe in filenames, and bounded in length. A blank title falls back to
// the date plus the document id.
func Filename(title, createdAt, id string) string {
	base := sanitizeTitle(title)
	if base == "" {
		base = "note"
		if id != "" {
			base = "note-" + id
		}
	}
	if date := datePart(createdAt); date != "" {
		base = date + " " + base
	}
	return base + ".md"
}

func sanitizeTitle(title string) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	var b strings.Builder
	for _, r := range title {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#', '^', '[', ']':
			b.WriteByte(' ')
		default:
			if r < 0x20 {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(out)
	if len(runes) > maxFilenameRunes {
		out = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}
	return out
}

// datePart extracts the YYYY-MM-DD prefix of an ISO-8601 timestamp, or ""
// when the value does not look like one.
func datePart(ts string) string {
	if len(ts) < 10 {
		return ""
	}
	date := ts[:10]
	for i, r := range date {
		if i == 4 || i == 7 {
			if r != '-' {
				return ""
			}
			continue
		}
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date
}
