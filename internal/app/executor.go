package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/backoff"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// FetchExecutor drives the bounded-retry acquisition of one source. It
// retries the same source up to MaxAttempts times with an escalating
// per-attempt timeout; advancing to the next source is the
// orchestrator's job, not this component's.
//
// Failures are not classified: a rate limit and a removed video consume
// the same retry budget. That matches the observed behavior of the
// extraction backends, where the two are often indistinguishable.
type FetchExecutor struct {
	fetcher domain.Fetcher
	policy  *backoff.Policy
	config  *domain.FetchConfig
	logger  *zap.Logger
}

// NewFetchExecutor creates a fetch executor
func NewFetchExecutor(fetcher domain.Fetcher, policy *backoff.Policy, config *domain.FetchConfig, logger *zap.Logger) *FetchExecutor {
	return &FetchExecutor{
		fetcher: fetcher,
		policy:  policy,
		config:  config,
		logger:  logger,
	}
}

// Attempt tries to acquire item from source, writing into destDir.
// Returns nil on the first successful attempt; after exhausting the
// attempt budget it returns the last error. Between failed attempts
// (except after the last) it suspends for the backoff delay, honoring
// ctx cancellation during the wait.
func (e *FetchExecutor) Attempt(ctx context.Context, item *domain.Item, source *domain.Source, destDir string, progress domain.ProgressFunc) error {
	opts, err := e.buildOptions(item, source, destDir, 0)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < e.config.MaxAttempts; attempt++ {
		opts.TimeoutSeconds = e.attemptTimeout(attempt)

		record := domain.NewAttemptRecord(source, attempt)
		start := time.Now()

		e.logger.Info("Trying source",
			zap.String("item", item.Title),
			zap.String("url", source.URL),
			zap.String("kind", string(source.Kind)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.config.MaxAttempts),
			zap.Int("timeout_seconds", opts.TimeoutSeconds))

		err := e.fetcher.Fetch(ctx, source.URL, opts, monotone(progress))
		record.Finish(start, err)

		if err == nil {
			e.logger.Info("Source succeeded",
				zap.String("item", item.Title),
				zap.String("url", source.URL),
				zap.Duration("elapsed", record.Elapsed))
			return nil
		}

		lastErr = err
		e.logger.Warn("Fetch attempt failed",
			zap.String("item", item.Title),
			zap.String("url", source.URL),
			zap.Int("attempt", attempt+1),
			zap.Duration("elapsed", record.Elapsed),
			zap.Error(err))

		if attempt < e.config.MaxAttempts-1 {
			delay := e.policy.Delay(attempt, e.config.BackoffBase)
			e.logger.Info("Retrying after backoff",
				zap.String("url", source.URL),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("source %s exhausted after %d attempts: %w", source.URL, e.config.MaxAttempts, lastErr)
}

// buildOptions maps config and per-source hints onto fetch options.
func (e *FetchExecutor) buildOptions(item *domain.Item, source *domain.Source, destDir string, attempt int) (domain.FetchOptions, error) {
	format := e.config.Format
	if source.Kind == domain.KindArchive && e.config.ArchiveFormat != "" {
		// Archive items carry wildly varying encodes; cap the quality
		format = e.config.ArchiveFormat
	}
	if source.Quality != "" {
		format = source.Quality
	}

	opts := domain.FetchOptions{
		Format:         format,
		TimeoutSeconds: e.attemptTimeout(attempt),
		Retries:        1, // retry policy lives here, not in the extractor
		OutputTemplate: filepath.Join(destDir, e.config.OutputTemplate),
	}
	if err := opts.Validate(); err != nil {
		return domain.FetchOptions{}, err
	}
	return opts, nil
}

// attemptTimeout escalates the timeout with each retry so a slow but
// viable source gets more room instead of failing fast repeatedly.
func (e *FetchExecutor) attemptTimeout(attempt int) int {
	timeout := e.config.BaseTimeout + time.Duration(attempt)*e.config.TimeoutIncrement
	return int(timeout.Seconds())
}

// monotone wraps a progress callback so reported percentages never
// decrease, clamped to [0, 100]. A nil callback stays nil-safe.
func monotone(progress domain.ProgressFunc) domain.ProgressFunc {
	if progress == nil {
		return func(float64) {}
	}
	last := -1.0
	return func(percent float64) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if percent <= last {
			return
		}
		last = percent
		progress(percent)
	}
}
