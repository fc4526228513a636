package domain

import (
	"context"
	"fmt"
)

// ProgressFunc receives advisory 0-100 percentage updates during a
// fetch. Implementations must tolerate being called from the fetch
// goroutine; failures to report are non-fatal and swallowed by callers.
type ProgressFunc func(percent float64)

// FetchOptions enumerates the recognized options for a single fetch
// attempt. The set is closed: anything the extraction backend would
// accept beyond these fields is rejected here rather than silently
// passed through.
type FetchOptions struct {
	Format         string
	TimeoutSeconds int
	Retries        int
	OutputTemplate string
}

// Validate rejects malformed options at construction time.
func (o FetchOptions) Validate() error {
	if o.Format == "" {
		return fmt.Errorf("fetch options: format is required")
	}
	if o.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch options: timeout must be positive, got %d", o.TimeoutSeconds)
	}
	if o.Retries < 0 {
		return fmt.Errorf("fetch options: retries cannot be negative, got %d", o.Retries)
	}
	if o.OutputTemplate == "" {
		return fmt.Errorf("fetch options: output template is required")
	}
	return nil
}

// Fetcher is the black-box media extraction capability. A single call
// either completes the acquisition of url or returns an error; retry
// policy lives with the caller, not here.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions, progress ProgressFunc) error
}

// Prober tests whether a source is currently extractable without
// performing a full fetch. A probe is single-shot: errors map to
// HealthUnreachable and are never propagated. Implementations set the
// source's Health before returning.
type Prober interface {
	Probe(ctx context.Context, source *Source) Health
}

// BackendKind is the capability class of a search backend, used to rank
// discovered sources: archive-style full-text search has empirically
// higher yield and is always ranked ahead of video-platform search.
type BackendKind string

const (
	BackendArchive BackendKind = "archive"
	BackendVideo   BackendKind = "video"
)

// SearchResult is one candidate returned by a search backend.
type SearchResult struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// SearchBackend is the black-box web-search capability. Search returns
// candidates ordered by the backend's own relevance; a non-2xx response
// or network failure surfaces as an error for the caller's retry loop.
type SearchBackend interface {
	Name() string
	Kind() BackendKind
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
