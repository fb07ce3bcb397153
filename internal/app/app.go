package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/panelnotes/notesink/internal/classify"
	"github.com/panelnotes/notesink/internal/markdown"
	"github.com/panelnotes/notesink/internal/notetree"
	"github.com/panelnotes/notesink/internal/source"
	"github.com/panelnotes/notesink/internal/state"
	"github.com/panelnotes/notesink/internal/vault"
)

// ErrNoDocuments is returned when the API yields zero documents. Per the
// exit code policy this is the one condition that produces a non-zero
// process exit.
var ErrNoDocuments = fmt.Errorf("no documents")

type App struct {
	cfg    Config
	client *source.Client
	sink   *vault.Sink
	store  *state.Store
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{
		cfg: cfg,
		client: &source.Client{
			BaseURL:           cfg.APIBaseURL,
			Token:             cfg.APIToken,
			UserAgent:         cfg.APIUserAgent,
			MaxAttempts:       cfg.MaxAttempts,
			PerRequestTimeout: cfg.PerRequestTimeout,
			PageSize:          cfg.PageSize,
			MaxPages:          cfg.MaxPages,
		},
		sink: &vault.Sink{Dir: cfg.VaultDir},
	}
	if cfg.StateDir != "" {
		a.store = &state.Store{Dir: cfg.StateDir}
		if cfg.StateClear {
			if err := a.store.Clear(); err != nil {
				log.Warn().Err(err).Msg("state clear failed; continuing")
			}
		}
	}
	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// summary aggregates per-document outcomes across workers.
type summary struct {
	mu               sync.Mutex
	created          int
	updated          int
	unchanged        int
	skippedEmpty     int
	skippedUnchanged int
	failed           int
}

func (s *summary) add(fn func(*summary)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

// Run fetches every document, classifies it, converts it, and writes it to
// the vault. A malformed or empty document is a per-document signal, never
// a batch failure.
func (a *App) Run(ctx context.Context) error {
	docs, err := a.client.Documents(ctx)
	if err != nil {
		return fmt.Errorf("fetch documents: %w", err)
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	log.Info().Int("count", len(docs)).Msg("documents fetched")

	workers := a.cfg.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(docs) {
		workers = len(docs)
	}

	var sum summary
	jobs := make(chan *source.Document)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				a.processDocument(doc, &sum)
			}
		}()
	}
	for i := range docs {
		select {
		case jobs <- &docs[i]:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	log.Info().
		Int("created", sum.created).
		Int("updated", sum.updated).
		Int("unchanged", sum.unchanged).
		Int("skipped_empty", sum.skippedEmpty).
		Int("skipped_unchanged", sum.skippedUnchanged).
		Int("failed", sum.failed).
		Msg("sync complete")
	return nil
}

func (a *App) processDocument(doc *source.Document, sum *summary) {
	if a.store.Unchanged(doc.ID, doc.UpdatedAt) {
		log.Debug().Str("id", doc.ID).Msg("document unchanged since last sync")
		sum.add(func(s *summary) { s.skippedUnchanged++ })
		return
	}
	if classify.IsEmpty(doc) {
		// A signal for the user, not an error: the document may simply have
		// no content yet.
		log.Warn().Str("id", doc.ID).Str("title", doc.Title).Msg("document classified empty; skipping")
		sum.add(func(s *summary) { s.skippedEmpty++ })
		return
	}

	body := a.noteBody(doc)
	name := vault.Filename(doc.Title, doc.CreatedAt, doc.ID)
	note := vault.Note{
		Filename: name,
		Content:  body,
		Frontmatter: map[string]string{
			"id":      doc.ID,
			"title":   doc.Title,
			"created": doc.CreatedAt,
			"updated": doc.UpdatedAt,
		},
	}

	if a.cfg.DryRun {
		log.Info().Str("id", doc.ID).Str("file", name).Msg("dry run: would write note")
		return
	}

	status, err := a.sink.Write(note)
	if err != nil {
		log.Error().Err(err).Str("id", doc.ID).Msg("write note failed")
		sum.add(func(s *summary) { s.failed++ })
		return
	}
	log.Debug().Str("id", doc.ID).Str("file", name).Stringer("status", status).Msg("note written")
	sum.add(func(s *summary) {
		switch status {
		case vault.StatusCreated:
			s.created++
		case vault.StatusUpdated:
			s.updated++
		default:
			s.unchanged++
		}
	})

	if a.cfg.EnablePDF {
		pdfPath := filepath.Join(a.cfg.VaultDir, strings.TrimSuffix(name, ".md")+".pdf")
		if err := writeNotePDF(body, doc.Title, pdfPath); err != nil {
			log.Warn().Err(err).Str("id", doc.ID).Msg("pdf export failed; note was still written")
		}
	}

	if err := a.store.Save(doc.ID, doc.UpdatedAt, name); err != nil {
		log.Warn().Err(err).Str("id", doc.ID).Msg("state save failed")
	}
}

// noteBody picks the best Markdown rendering for a document: the notes
// tree converted by this tool first, then the API's own markdown, then the
// plain text. The cascade mirrors the classifier's field priorities.
func (a *App) noteBody(doc *source.Document) string {
	if n, ok := notetree.Decode(doc.Notes); ok {
		res := markdown.Convert(n)
		for _, w := range res.Warnings {
			log.Debug().Str("id", doc.ID).Str("node", w.NodeType).Str("type", string(w.Type)).Msg(w.Message)
		}
		if strings.TrimSpace(res.Markdown) != "" {
			return res.Markdown
		}
	}
	if strings.TrimSpace(doc.NotesMarkdown) != "" {
		return doc.NotesMarkdown
	}
	if strings.TrimSpace(doc.NotesPlain) != "" {
		return doc.NotesPlain
	}
	// The panel tree kept the document from classifying empty; render it.
	if doc.LastViewedPanel != nil {
		if n, ok := notetree.Decode(doc.LastViewedPanel.Content); ok {
			res := markdown.Convert(n)
			if strings.TrimSpace(res.Markdown) != "" {
				return res.Markdown
			}
		}
	}
	return ""
}
