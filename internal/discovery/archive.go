package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wlfogle/mediafetch/internal/domain"
)

const archiveDetailsBase = "https://archive.org/details/"

// ArchiveBackend searches archive.org's advanced full-text search for
// alternative uploads. Results point at item detail pages, which the
// extraction backend knows how to unpack.
type ArchiveBackend struct {
	client    *http.Client
	searchURL string
	rows      int
	keywords  []string
}

// NewArchiveBackend creates an archive.org search backend. keywords is
// the catalog's domain keyword list; when present it adds a
// franchise-scoped query form.
func NewArchiveBackend(searchURL string, rows int, timeout time.Duration, keywords []string) *ArchiveBackend {
	return &ArchiveBackend{
		client:    &http.Client{Timeout: timeout},
		searchURL: searchURL,
		rows:      rows,
		keywords:  keywords,
	}
}

// Name returns the backend's display name.
func (b *ArchiveBackend) Name() string { return "archive.org" }

// Kind returns the ranking capability class.
func (b *ArchiveBackend) Kind() domain.BackendKind { return domain.BackendArchive }

// archiveResponse mirrors the advancedsearch JSON envelope.
type archiveResponse struct {
	Response struct {
		Docs []struct {
			Identifier  string `json:"identifier"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"docs"`
	} `json:"response"`
}

// Search fans the query out over several advancedsearch scopings and
// merges the deduplicated results. Title-only listings, broad mediatype
// matches, TV collections, franchise-keyword matches, and web-series
// listings each surface uploads the other scopes miss. A scope that
// fails is skipped; Search errors only when every scope failed.
func (b *ArchiveBackend) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	seen := make(map[string]bool)
	var lastErr error

	for _, scope := range b.queryScopes(query) {
		scoped, err := b.searchScope(ctx, scope)
		if err != nil {
			lastErr = err
			continue
		}
		for _, res := range scoped {
			if seen[res.Identifier] {
				continue
			}
			seen[res.Identifier] = true
			results = append(results, res)
		}
	}

	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return results, nil
}

// queryScopes builds the ordered list of advancedsearch q forms for one
// query: exact title, broad mediatype, TV collections, franchise
// keywords (when the catalog carries any), and web-series listings.
func (b *ArchiveBackend) queryScopes(query string) []string {
	quoted := fmt.Sprintf("%q", query)
	scopes := []string{
		fmt.Sprintf(`title:(%s) AND mediatype:movies`, quoted),
		fmt.Sprintf(`(%s) AND (mediatype:movies OR mediatype:video)`, quoted),
		fmt.Sprintf(`(%s) AND collection:(television)`, quoted),
	}
	if franchise := quoteKeywords(b.keywords); franchise != "" {
		scopes = append(scopes,
			fmt.Sprintf(`(%s) AND (%s) AND (mediatype:movies OR mediatype:video)`, franchise, quoted))
	}
	scopes = append(scopes,
		fmt.Sprintf(`("webisode" OR "web series") AND (%s)`, quoted))
	return scopes
}

// quoteKeywords renders up to two catalog keywords as an OR clause.
func quoteKeywords(keywords []string) string {
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, fmt.Sprintf("%q", kw))
	}
	return strings.Join(quoted, " OR ")
}

// searchScope issues one advancedsearch request, sorted by download
// count so popular mirrors surface first.
func (b *ArchiveBackend) searchScope(ctx context.Context, scope string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", scope)
	params.Set("fl", "identifier,title,description")
	params.Set("rows", fmt.Sprintf("%d", b.rows))
	params.Set("output", "json")
	params.Set("sort", "downloads desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build archive.org request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive.org request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive.org returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive.org response: %w", err)
	}

	var parsed archiveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode archive.org response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Identifier:  doc.Identifier,
			Title:       doc.Title,
			Description: doc.Description,
			URL:         archiveDetailsBase + doc.Identifier,
		})
	}
	return results, nil
}
