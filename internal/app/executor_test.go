package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/backoff"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// stubFetcher fails a fixed number of calls, then succeeds. It records
// the options of every attempt.
type stubFetcher struct {
	failures int
	calls    int
	timeouts []int
	formats  []string
	report   []float64 // percentages pushed through the progress callback
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, opts domain.FetchOptions, progress domain.ProgressFunc) error {
	f.calls++
	f.timeouts = append(f.timeouts, opts.TimeoutSeconds)
	f.formats = append(f.formats, opts.Format)
	if f.calls <= f.failures {
		return errors.New("extraction failed")
	}
	for _, pct := range f.report {
		progress(pct)
	}
	return nil
}

func testFetchConfig() *domain.FetchConfig {
	return &domain.FetchConfig{
		Binary:           "yt-dlp",
		Format:           "best",
		ArchiveFormat:    "best[height<=720]/best",
		OutputTemplate:   "%(title)s.%(ext)s",
		MaxAttempts:      3,
		BaseTimeout:      30 * time.Second,
		TimeoutIncrement: 15 * time.Second,
		BackoffBase:      0.001, // keep test waits in the microsecond range
	}
}

func newTestExecutor(fetcher domain.Fetcher, cfg *domain.FetchConfig) *FetchExecutor {
	return NewFetchExecutor(fetcher, backoff.NoJitter(), cfg, zap.NewNop())
}

func TestAttempt_SucceedsFirstTry(t *testing.T) {
	fetcher := &stubFetcher{}
	exec := newTestExecutor(fetcher, testFetchConfig())

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://example.com/v", domain.KindGeneric, 1)

	err := exec.Attempt(context.Background(), item, &source, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "success must short-circuit remaining attempts")
}

func TestAttempt_RetriesWithEscalatingTimeout(t *testing.T) {
	fetcher := &stubFetcher{failures: 2}
	exec := newTestExecutor(fetcher, testFetchConfig())

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://example.com/v", domain.KindGeneric, 1)

	err := exec.Attempt(context.Background(), item, &source, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, fetcher.calls)
	assert.Equal(t, []int{30, 45, 60}, fetcher.timeouts)
}

func TestAttempt_ExhaustsBudget(t *testing.T) {
	fetcher := &stubFetcher{failures: 100}
	exec := newTestExecutor(fetcher, testFetchConfig())

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://example.com/v", domain.KindGeneric, 1)

	err := exec.Attempt(context.Background(), item, &source, t.TempDir(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, fetcher.calls, "exactly max_attempts tries")
	assert.Contains(t, err.Error(), "exhausted after 3 attempts")
}

func TestAttempt_ArchiveFormatOverride(t *testing.T) {
	fetcher := &stubFetcher{}
	exec := newTestExecutor(fetcher, testFetchConfig())

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://archive.org/details/x", domain.KindArchive, 1)

	require.NoError(t, exec.Attempt(context.Background(), item, &source, t.TempDir(), nil))
	assert.Equal(t, []string{"best[height<=720]/best"}, fetcher.formats)
}

func TestAttempt_PerSourceQualityWins(t *testing.T) {
	fetcher := &stubFetcher{}
	exec := newTestExecutor(fetcher, testFetchConfig())

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://archive.org/details/x", domain.KindArchive, 1)
	source.Quality = "worst"

	require.NoError(t, exec.Attempt(context.Background(), item, &source, t.TempDir(), nil))
	assert.Equal(t, []string{"worst"}, fetcher.formats)
}

func TestAttempt_ProgressIsMonotone(t *testing.T) {
	fetcher := &stubFetcher{report: []float64{10, 50, 25, 50, 120, 90}}
	exec := newTestExecutor(fetcher, testFetchConfig())

	var seen []float64
	progress := func(pct float64) { seen = append(seen, pct) }

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://example.com/v", domain.KindGeneric, 1)

	require.NoError(t, exec.Attempt(context.Background(), item, &source, t.TempDir(), progress))
	// Regressions and overshoots are suppressed, never forwarded.
	assert.Equal(t, []float64{10, 50, 100}, seen)
}

func TestAttempt_CancelledDuringBackoff(t *testing.T) {
	fetcher := &stubFetcher{failures: 100}
	cfg := testFetchConfig()
	cfg.BackoffBase = 10 // long enough that cancellation wins the select
	exec := newTestExecutor(fetcher, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item := &domain.Item{Title: "Torn Apart"}
	source := domain.NewSource("https://example.com/v", domain.KindGeneric, 1)

	err := exec.Attempt(ctx, item, &source, t.TempDir(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fetcher.calls, "the in-flight attempt finishes, no further attempts start")
}
