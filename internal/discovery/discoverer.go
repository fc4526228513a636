// Package discovery finds new candidate sources for items whose known
// sources have all failed. It fans a set of query variants out to the
// configured search backends, filters for relevance, deduplicates, and
// ranks the survivors by backend capability.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/backoff"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// Backend priorities: archive-style search has empirically higher yield
// for removed or delisted media, so its results always rank ahead.
const (
	priorityArchive = 1
	priorityVideo   = 2
)

// Discoverer generates alternative sources for a failed item.
type Discoverer struct {
	backends []domain.SearchBackend
	policy   *backoff.Policy
	config   *domain.DiscoveryConfig
	keywords []string
	logger   *zap.Logger
}

// NewDiscoverer creates a discoverer over the given search backends.
// keywords is the catalog's domain keyword list used by the relevance
// filter (a result lacking the query substring is still accepted when
// it matches a keyword).
func NewDiscoverer(backends []domain.SearchBackend, policy *backoff.Policy, config *domain.DiscoveryConfig, keywords []string, logger *zap.Logger) *Discoverer {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Discoverer{
		backends: backends,
		policy:   policy,
		config:   config,
		keywords: lowered,
		logger:   logger,
	}
}

// Discover returns up to the configured cap of new sources for item,
// ranked by priority. It never fails: a backend that errors out after
// its retries simply contributes nothing.
func (d *Discoverer) Discover(ctx context.Context, item *domain.Item) []domain.Source {
	variants := d.queryVariants(item)

	var accumulated []domain.Source
	for _, query := range variants {
		for _, backend := range d.backends {
			results := d.searchWithRetry(ctx, backend, query)

			for _, res := range results {
				if !d.relevant(query, res.Title) {
					continue
				}
				accumulated = append(accumulated, domain.Source{
					URL:      res.URL,
					Kind:     domain.DetectKind(res.URL),
					Priority: backendPriority(backend.Kind()),
					Health:   domain.HealthUnknown,
				})
			}
		}

		// Enough candidates; later variants rarely add anything new.
		if len(accumulated) >= d.config.AccumulateCap {
			break
		}
	}

	unique := lo.UniqBy(accumulated, func(s domain.Source) string { return s.URL })
	// Stable, so first-seen order survives within a priority class.
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Priority < unique[j].Priority
	})
	if len(unique) > d.config.ResultCap {
		unique = unique[:d.config.ResultCap]
	}

	d.logger.Info("Discovery completed",
		zap.String("title", item.Title),
		zap.Int("variants", len(variants)),
		zap.Int("found", len(unique)))

	return unique
}

// queryVariants builds the ordered list of search queries for an item:
// the bare title, keyword-augmented forms, and series-plus-index forms.
func (d *Discoverer) queryVariants(item *domain.Item) []string {
	variants := []string{item.Title}

	if len(d.keywords) > 0 {
		variants = append(variants, fmt.Sprintf("%s %s", d.keywords[0], item.Title))
	}
	if item.SeriesID != "" {
		variants = append(variants,
			fmt.Sprintf("%s %d", item.SeriesID, item.SequenceIndex),
			fmt.Sprintf("%s episode %d", item.SeriesID, item.SequenceIndex))
	}

	return lo.Uniq(variants)
}

// searchWithRetry calls one backend with a bounded retry loop, backing
// off between transient failures. Exhausting the retries yields nil.
func (d *Discoverer) searchWithRetry(ctx context.Context, backend domain.SearchBackend, query string) []domain.SearchResult {
	for attempt := 0; attempt < d.config.MaxRetries; attempt++ {
		results, err := backend.Search(ctx, query)
		if err == nil {
			return results
		}

		d.logger.Warn("Search backend request failed",
			zap.String("backend", backend.Name()),
			zap.String("query", query),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < d.config.MaxRetries-1 {
			select {
			case <-time.After(d.policy.Delay(attempt, d.config.BackoffBase)):
			case <-ctx.Done():
				return nil
			}
		}
	}

	d.logger.Warn("Search backend gave up",
		zap.String("backend", backend.Name()),
		zap.String("query", query),
		zap.Int("retries", d.config.MaxRetries))
	return nil
}

// relevant accepts a result whose title contains the query
// case-insensitively, or matches one of the catalog's domain keywords.
// Plain substring matching, deterministic on purpose.
func (d *Discoverer) relevant(query, title string) bool {
	if title == "" {
		return false
	}

	titleLower := strings.ToLower(title)
	if strings.Contains(titleLower, strings.ToLower(query)) {
		return true
	}

	for _, keyword := range d.keywords {
		if strings.Contains(titleLower, keyword) {
			return true
		}
	}
	return false
}

func backendPriority(kind domain.BackendKind) int {
	if kind == domain.BackendArchive {
		return priorityArchive
	}
	return priorityVideo
}
