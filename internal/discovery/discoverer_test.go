package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/backoff"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// stubBackend returns canned results, optionally failing its first
// calls to exercise the retry loop.
type stubBackend struct {
	name      string
	kind      domain.BackendKind
	results   []domain.SearchResult
	failFirst int
	calls     int
	queries   []string
}

func (b *stubBackend) Name() string             { return b.name }
func (b *stubBackend) Kind() domain.BackendKind { return b.kind }

func (b *stubBackend) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	b.calls++
	b.queries = append(b.queries, query)
	if b.calls <= b.failFirst {
		return nil, errors.New("backend unavailable")
	}
	return b.results, nil
}

func testDiscoveryConfig() *domain.DiscoveryConfig {
	return &domain.DiscoveryConfig{
		MaxRetries:    2,
		BackoffBase:   0.001,
		AccumulateCap: 8,
		ResultCap:     10,
		ProbeLimit:    5,
	}
}

func newTestDiscoverer(backends []domain.SearchBackend, keywords []string, cfg *domain.DiscoveryConfig) *Discoverer {
	return NewDiscoverer(backends, backoff.NoJitter(), cfg, keywords, zap.NewNop())
}

func tornApart() *domain.Item {
	return &domain.Item{
		Title:         "Torn Apart",
		SeriesID:      "Pre-Outbreak Webisodes",
		SequenceIndex: 1,
	}
}

func TestDiscover_RelevanceFilter(t *testing.T) {
	backend := &stubBackend{
		name: "archive.org",
		kind: domain.BackendArchive,
		results: []domain.SearchResult{
			{Identifier: "a", Title: "Unrelated Show Episode 3", URL: "https://archive.org/details/a"},
			{Identifier: "b", Title: "The Walking Dead: Torn Apart Part 1", URL: "https://archive.org/details/b"},
		},
	}

	d := newTestDiscoverer([]domain.SearchBackend{backend}, []string{"walking dead"}, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 1)
	assert.Equal(t, "https://archive.org/details/b", sources[0].URL)
}

func TestDiscover_KeywordRescuesNonMatchingTitle(t *testing.T) {
	backend := &stubBackend{
		name: "archive.org",
		kind: domain.BackendArchive,
		results: []domain.SearchResult{
			{Identifier: "a", Title: "TWD Webisode Collection", URL: "https://archive.org/details/a"},
		},
	}

	// The title contains neither query variant, but matches a keyword.
	d := newTestDiscoverer([]domain.SearchBackend{backend}, []string{"webisode"}, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 1)
}

func TestDiscover_DeduplicatesByURL(t *testing.T) {
	shared := domain.SearchResult{
		Identifier: "same",
		Title:      "The Walking Dead: Torn Apart",
		URL:        "https://archive.org/details/same",
	}
	archive := &stubBackend{name: "archive.org", kind: domain.BackendArchive, results: []domain.SearchResult{shared}}
	video := &stubBackend{name: "video", kind: domain.BackendVideo, results: []domain.SearchResult{shared}}

	d := newTestDiscoverer([]domain.SearchBackend{archive, video}, []string{"walking dead"}, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 1, "same URL across variants and backends yields one source")
	// First seen wins, so the archive capability's priority sticks.
	assert.Equal(t, 1, sources[0].Priority)
}

func TestDiscover_RanksArchiveAheadOfVideo(t *testing.T) {
	archive := &stubBackend{
		name: "archive.org",
		kind: domain.BackendArchive,
		results: []domain.SearchResult{
			{Identifier: "a", Title: "Torn Apart Archive Copy", URL: "https://archive.org/details/a"},
		},
	}
	video := &stubBackend{
		name: "video",
		kind: domain.BackendVideo,
		results: []domain.SearchResult{
			{Identifier: "v", Title: "Torn Apart Reupload", URL: "https://www.youtube.com/watch?v=v"},
		},
	}

	// Video listed first; ranking must still put the archive result ahead.
	d := newTestDiscoverer([]domain.SearchBackend{video, archive}, nil, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 2)
	assert.Equal(t, "https://archive.org/details/a", sources[0].URL)
	assert.Equal(t, 1, sources[0].Priority)
	assert.Equal(t, 2, sources[1].Priority)
}

func TestDiscover_FailingBackendContributesNothing(t *testing.T) {
	broken := &stubBackend{name: "archive.org", kind: domain.BackendArchive, failFirst: 100}
	working := &stubBackend{
		name: "video",
		kind: domain.BackendVideo,
		results: []domain.SearchResult{
			{Identifier: "v", Title: "Torn Apart Reupload", URL: "https://www.youtube.com/watch?v=v"},
		},
	}

	d := newTestDiscoverer([]domain.SearchBackend{broken, working}, nil, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=v", sources[0].URL)
}

func TestDiscover_RetriesTransientBackendFailure(t *testing.T) {
	flaky := &stubBackend{
		name:      "archive.org",
		kind:      domain.BackendArchive,
		failFirst: 1,
		results: []domain.SearchResult{
			{Identifier: "a", Title: "Torn Apart Archive Copy", URL: "https://archive.org/details/a"},
		},
	}

	cfg := testDiscoveryConfig()
	cfg.AccumulateCap = 1 // stop after the first variant
	d := newTestDiscoverer([]domain.SearchBackend{flaky}, nil, cfg)
	sources := d.Discover(context.Background(), tornApart())

	require.Len(t, sources, 1)
	assert.Equal(t, 2, flaky.calls, "one failure, one successful retry")
}

func TestDiscover_AccumulateCapStopsVariantIteration(t *testing.T) {
	var results []domain.SearchResult
	for i := 0; i < 12; i++ {
		results = append(results, domain.SearchResult{
			Identifier: fmt.Sprintf("r%d", i),
			Title:      fmt.Sprintf("Torn Apart Mirror %d", i),
			URL:        fmt.Sprintf("https://archive.org/details/r%d", i),
		})
	}
	backend := &stubBackend{name: "archive.org", kind: domain.BackendArchive, results: results}

	d := newTestDiscoverer([]domain.SearchBackend{backend}, nil, testDiscoveryConfig())
	sources := d.Discover(context.Background(), tornApart())

	assert.Len(t, backend.queries, 1, "first variant filled the accumulation cap")
	assert.Len(t, sources, 10, "result cap bounds the returned list")
}

func TestQueryVariants(t *testing.T) {
	d := newTestDiscoverer(nil, []string{"walking dead"}, testDiscoveryConfig())
	variants := d.queryVariants(tornApart())

	assert.Equal(t, []string{
		"Torn Apart",
		"walking dead Torn Apart",
		"Pre-Outbreak Webisodes 1",
		"Pre-Outbreak Webisodes episode 1",
	}, variants)
}

func TestRelevant_EmptyTitleRejected(t *testing.T) {
	d := newTestDiscoverer(nil, []string{"walking dead"}, testDiscoveryConfig())
	assert.False(t, d.relevant("Torn Apart", ""))
}
