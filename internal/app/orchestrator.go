package app

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// State is the acquisition state machine position for one item.
type State string

const (
	StateNotStarted        State = "not_started"
	StateTryingKnown       State = "trying_known_sources"
	StateDiscovering       State = "discovering"
	StateProbingDiscovered State = "probing_discovered"
	StateTryingDiscovered  State = "trying_discovered_sources"
	StateSucceeded         State = "succeeded"
	StateExhausted         State = "exhausted"
)

// Discoverer finds new candidate sources for an item whose known
// sources are all exhausted. Discovery is best-effort and never raises:
// a failing search capability simply contributes zero results.
type Discoverer interface {
	Discover(ctx context.Context, item *domain.Item) []domain.Source
}

// ItemResult is the terminal outcome of one item's acquisition.
type ItemResult struct {
	Item          *domain.Item
	State         State
	Source        *domain.Source // winning source when State == StateSucceeded
	SourcesTried  int
	DiscoveryUsed bool
	Elapsed       time.Duration
	Err           error
}

// Succeeded reports whether the item was acquired.
func (r ItemResult) Succeeded() bool {
	return r.State == StateSucceeded
}

// ResultFunc receives each item's terminal result. It is the seam the
// presentation layer hangs off; the orchestrator itself never talks to
// a UI.
type ResultFunc func(ItemResult)

// Orchestrator drives acquisition per item: ordered attempts over known
// sources, fallback to discovery, probing of discovered sources, a
// second fetch pass over survivors, and outcome recording. No error
// from a sub-component escapes an item; only resource errors abort the
// run.
type Orchestrator struct {
	executor   *FetchExecutor
	discoverer Discoverer
	prober     domain.Prober
	stats      *domain.Stats
	config     *domain.Config
	logger     *zap.Logger

	metrics  *Metrics
	history  domain.HistoryRepository
	progress domain.ProgressFunc
	onResult ResultFunc
}

// NewOrchestrator creates an orchestrator with the required collaborators.
func NewOrchestrator(
	executor *FetchExecutor,
	discoverer Discoverer,
	prober domain.Prober,
	stats *domain.Stats,
	config *domain.Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		executor:   executor,
		discoverer: discoverer,
		prober:     prober,
		stats:      stats,
		config:     config,
		logger:     logger,
	}
}

// WithMetrics attaches prometheus collectors.
func (o *Orchestrator) WithMetrics(m *Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// WithHistory attaches an acquisition history repository.
func (o *Orchestrator) WithHistory(repo domain.HistoryRepository) *Orchestrator {
	o.history = repo
	return o
}

// WithProgress attaches an advisory progress sink.
func (o *Orchestrator) WithProgress(progress domain.ProgressFunc) *Orchestrator {
	o.progress = progress
	return o
}

// WithResultFunc attaches a per-item result callback.
func (o *Orchestrator) WithResultFunc(fn ResultFunc) *Orchestrator {
	o.onResult = fn
	return o
}

// Run processes items sequentially to completion. Cancellation is
// cooperative: the context is checked between items, so an in-flight
// fetch attempt finishes or hits its own timeout before the run stops.
// The only error returned is a resource error; per-item failures are
// absorbed into stats and results.
func (o *Orchestrator) Run(ctx context.Context, items []domain.Item) (domain.StatsSnapshot, error) {
	if err := os.MkdirAll(o.config.Destination.Dir, 0755); err != nil {
		return o.stats.Snapshot(), domain.NewResourceError("create destination directory", err)
	}

	for i := range items {
		if ctx.Err() != nil {
			o.logger.Info("Run cancelled",
				zap.Int("completed", i),
				zap.Int("remaining", len(items)-i))
			break
		}
		o.AcquireItem(ctx, &items[i])
	}

	return o.stats.Snapshot(), nil
}

// AcquireItem runs the state machine for a single item. Exactly one of
// successful/failed is recorded in stats, and attempted exactly once,
// regardless of the path taken.
func (o *Orchestrator) AcquireItem(ctx context.Context, item *domain.Item) ItemResult {
	start := time.Now()
	o.stats.RecordAttempted()

	result := ItemResult{Item: item, State: StateTryingKnown}

	o.logger.Info("Acquiring item",
		zap.String("title", item.Title),
		zap.String("series", item.SeriesID),
		zap.Int("sequence", item.SequenceIndex),
		zap.Int("known_sources", len(item.Sources)))

	if winner := o.trySources(ctx, item, item.SortedSources(), o.config.Pacing.KnownSourceDelay, &result); winner != nil {
		return o.finish(item, &result, winner, start)
	}

	if ctx.Err() != nil {
		return o.finish(item, &result, nil, start)
	}

	result.State = StateDiscovering
	o.logger.Warn("All known sources failed, searching for alternatives",
		zap.String("title", item.Title))

	discovered := o.discoverer.Discover(ctx, item)
	if len(discovered) == 0 {
		o.logger.Warn("Discovery yielded no sources", zap.String("title", item.Title))
		return o.finish(item, &result, nil, start)
	}

	result.State = StateProbingDiscovered
	reachable := o.probeDiscovered(ctx, discovered)
	if len(reachable) == 0 {
		o.logger.Warn("No discovered source is reachable",
			zap.String("title", item.Title),
			zap.Int("discovered", len(discovered)))
		return o.finish(item, &result, nil, start)
	}

	result.DiscoveryUsed = true
	o.stats.RecordDiscoveryUsed()
	o.metrics.IncDiscoveryUsed()

	result.State = StateTryingDiscovered
	o.logger.Info("Trying discovered sources",
		zap.String("title", item.Title),
		zap.Int("reachable", len(reachable)))

	winner := o.trySources(ctx, item, reachable, o.config.Pacing.DiscoveredSourceDelay, &result)
	return o.finish(item, &result, winner, start)
}

// trySources attempts each source in order, short-circuiting on the
// first success. A pacing delay separates distinct-source attempts so
// multiple endpoints are not hammered back-to-back; retries within one
// source are paced by the executor's own backoff.
func (o *Orchestrator) trySources(ctx context.Context, item *domain.Item, sources []domain.Source, pace time.Duration, result *ItemResult) *domain.Source {
	for i := range sources {
		if ctx.Err() != nil {
			return nil
		}

		source := &sources[i]
		result.SourcesTried++
		o.metrics.IncSourceTried()

		if err := o.executor.Attempt(ctx, item, source, o.config.Destination.Dir, o.progress); err == nil {
			return source
		}

		if i < len(sources)-1 {
			o.wait(ctx, pace)
		}
	}
	return nil
}

// probeDiscovered probes up to the configured prefix of discovered
// sources and returns only the reachable ones, preserving order. A
// probe never consumes fetch attempt budget.
func (o *Orchestrator) probeDiscovered(ctx context.Context, discovered []domain.Source) []domain.Source {
	limit := o.config.Discovery.ProbeLimit
	if limit > len(discovered) {
		limit = len(discovered)
	}

	reachable := make([]domain.Source, 0, limit)
	for i := 0; i < limit; i++ {
		source := &discovered[i]
		health := o.prober.Probe(ctx, source)
		o.metrics.IncProbe(string(health))

		o.logger.Debug("Probed discovered source",
			zap.String("url", source.URL),
			zap.String("health", string(health)))

		if health == domain.HealthReachable {
			reachable = append(reachable, *source)
		}
	}
	return reachable
}

// finish moves the item to its terminal state, updates stats exactly
// once, persists the outcome when history is configured, and reports
// through the result callback.
func (o *Orchestrator) finish(item *domain.Item, result *ItemResult, winner *domain.Source, start time.Time) ItemResult {
	result.Elapsed = time.Since(start)

	if winner != nil {
		result.State = StateSucceeded
		result.Source = winner
		o.stats.RecordSuccessful()
		o.metrics.IncItem(string(domain.OutcomeSucceeded))
		o.logger.Info("Item acquired",
			zap.String("title", item.Title),
			zap.String("source", winner.URL),
			zap.Bool("via_discovery", result.DiscoveryUsed),
			zap.Duration("elapsed", result.Elapsed))
	} else {
		result.State = StateExhausted
		result.Err = domain.ErrExhausted
		if result.SourcesTried == 0 && !item.HasSources() {
			result.Err = domain.ErrNoSources
		}
		o.stats.RecordFailed()
		o.metrics.IncItem(string(domain.OutcomeExhausted))
		o.logger.Error("Item exhausted",
			zap.String("title", item.Title),
			zap.Int("sources_tried", result.SourcesTried),
			zap.Duration("elapsed", result.Elapsed))
	}

	o.metrics.ObserveItemDuration(result.Elapsed.Seconds())
	o.persist(item, result)

	if o.onResult != nil {
		o.onResult(*result)
	}
	return *result
}

// persist writes the terminal outcome to the history repository.
// Persistence failures are logged, never propagated: history is an
// observability surface, not part of the acquisition contract.
func (o *Orchestrator) persist(item *domain.Item, result *ItemResult) {
	if o.history == nil {
		return
	}

	outcome := domain.OutcomeExhausted
	if result.State == StateSucceeded {
		outcome = domain.OutcomeSucceeded
	}

	record := domain.NewAcquisitionRecord(item, outcome)
	record.Attempts = result.SourcesTried
	record.DiscoveryUsed = result.DiscoveryUsed
	record.Elapsed = result.Elapsed
	if result.Source != nil {
		record.SourceURL = result.Source.URL
		record.SourceKind = result.Source.Kind
	}
	if result.Err != nil {
		record.ErrorMessage = result.Err.Error()
	}

	if err := o.history.Create(record); err != nil {
		o.logger.Error("Failed to persist acquisition record",
			zap.String("title", item.Title),
			zap.Error(err))
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
