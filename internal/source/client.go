package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client pages through the notes API's get-documents endpoint. It wraps
// http.Client with per-request timeouts and limited retry on transient
// errors.
type Client struct {
	BaseURL    string
	Token      string
	UserAgent  string
	HTTPClient *http.Client

	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each page request.
	PerRequestTimeout time.Duration
	// PageSize is the per-page document count requested. Zero means 100.
	PageSize int
	// MaxPages caps pagination to guard against a server that never stops
	// handing out cursors. Zero means default (100).
	MaxPages int
}

const (
	defaultPageSize = 100
	defaultMaxPages = 100
)

type pageRequest struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

type pageResponse struct {
	Docs       []Document `json:"docs"`
	NextCursor string     `json:"next_cursor"`
}

// Documents fetches every document record, following next_cursor until the
// server stops returning one. Records with duplicate IDs across pages are
// dropped, keeping the first occurrence.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("missing api base url")
	}
	size := c.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	seen := map[string]struct{}{}
	out := make([]Document, 0, size)
	cursor := ""
	for page := 0; page < maxPages; page++ {
		resp, err := c.fetchPage(ctx, pageRequest{Limit: size, Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
		for _, d := range resp.Docs {
			if d.ID == "" {
				continue
			}
			if _, ok := seen[d.ID]; ok {
				continue
			}
			seen[d.ID] = struct{}{}
			out = append(out, d)
		}
		if resp.NextCursor == "" || resp.NextCursor == cursor {
			return out, nil
		}
		cursor = resp.NextCursor
	}
	log.Warn().Int("pages", maxPages).Msg("pagination cap reached; returning partial set")
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, req pageRequest) (*pageResponse, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; ; i++ {
		resp, err := c.tryOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
}

func (c *Client) tryOnce(ctx context.Context, page pageRequest) (*pageResponse, error) {
	body, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/v2/get-documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.PerRequestTimeout}
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var pr pageResponse
	if err := json.Unmarshal(b, &pr); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &pr, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}
