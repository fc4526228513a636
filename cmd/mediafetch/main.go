package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/api"
	"github.com/wlfogle/mediafetch/internal/app"
	"github.com/wlfogle/mediafetch/internal/backoff"
	"github.com/wlfogle/mediafetch/internal/catalog"
	"github.com/wlfogle/mediafetch/internal/discovery"
	"github.com/wlfogle/mediafetch/internal/domain"
	"github.com/wlfogle/mediafetch/internal/infrastructure"
	"github.com/wlfogle/mediafetch/pkg/logger"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "mediafetch",
		Short: "Resilient multi-source media acquisition",
		Long: `mediafetch acquires media items from prioritized candidate sources,
retrying with exponential backoff and falling back to archive and
video-platform search when every known source fails.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	runCmd.Flags().String("listen", "", "Serve the status API on this address during the run (e.g. :8080)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(catalogCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [catalog-file]",
	Short: "Acquire every item in a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		stats := domain.NewStats()
		metrics := app.NewMetrics()

		fetchLog := logger.NewFetchLog(cfg.Logging.FetchLogs)
		fetcher := infrastructure.NewYTDLPFetcher(cfg.Fetch.Binary, fetchLog, log)
		executor := app.NewFetchExecutor(fetcher, backoff.New(), &cfg.Fetch, log)
		prober := infrastructure.NewYTDLPProber(cfg.Fetch.Binary, cfg.Probe.Timeout, log)
		backends := app.InstrumentBackends(searchBackends(cfg, cat.Keywords), metrics)
		discoverer := discovery.NewDiscoverer(backends, backoff.New(), &cfg.Discovery, cat.Keywords, log)

		orch := app.NewOrchestrator(executor, discoverer, prober, stats, cfg, log).
			WithMetrics(metrics).
			WithResultFunc(printResult)

		var history *infrastructure.SQLiteHistoryRepository
		if cfg.History.Enabled {
			history, err = infrastructure.NewSQLiteHistoryRepository(cfg.History.DatabasePath)
			if err != nil {
				return domain.NewResourceError("open history database", err)
			}
			defer history.Close()
			orch.WithHistory(history)
		}

		// SIGINT requests cooperative cancellation: the in-flight item
		// finishes before the run stops.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			var repo domain.HistoryRepository
			if history != nil {
				repo = history
			}
			router := api.NewRouter(stats, repo, metrics, log)
			go func() {
				if err := http.ListenAndServe(listen, router); err != nil && err != http.ErrServerClosed {
					log.Error("Status server stopped", zap.Error(err))
				}
			}()
		}

		snapshot, err := orch.Run(ctx, cat.Items)
		printSummary(snapshot)
		return err
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Check whether a source is currently extractable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		prober := infrastructure.NewYTDLPProber(cfg.Fetch.Binary, cfg.Probe.Timeout, log)
		source := domain.NewSource(args[0], "", 0)
		health := prober.Probe(context.Background(), &source)

		fmt.Printf("%s\t%s\n", source.URL, health)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a discovery query against the search backends",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		query := args[0]
		for _, arg := range args[1:] {
			query += " " + arg
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BACKEND\tTITLE\tURL")
		for _, backend := range searchBackends(cfg, nil) {
			results, err := backend.Search(context.Background(), query)
			if err != nil {
				log.Warn("Backend failed", zap.String("backend", backend.Name()), zap.Error(err))
				continue
			}
			for _, res := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\n", backend.Name(), res.Title, res.URL)
			}
		}
		return w.Flush()
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [catalog-file]",
	Short: "Validate a catalog file and list its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tSERIES\t#\tSOURCES")
		for _, item := range cat.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				item.Title, item.SeriesID, item.SequenceIndex, len(item.Sources))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d items, keywords: %v\n", len(cat.Items), cat.Keywords)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show acquisition history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if !cfg.History.Enabled {
			return fmt.Errorf("history persistence is disabled in the configuration")
		}

		history, err := infrastructure.NewSQLiteHistoryRepository(cfg.History.DatabasePath)
		if err != nil {
			return err
		}
		defer history.Close()

		stats, err := history.GetStats()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Total:\t%d\n", stats.Total)
		fmt.Fprintf(w, "Succeeded:\t%d\n", stats.Succeeded)
		fmt.Fprintf(w, "Exhausted:\t%d\n", stats.Exhausted)
		fmt.Fprintf(w, "Via discovery:\t%d\n", stats.DiscoveryUsed)
		return w.Flush()
	},
}

func setup() (*domain.Config, *zap.Logger, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func searchBackends(cfg *domain.Config, keywords []string) []domain.SearchBackend {
	return []domain.SearchBackend{
		discovery.NewArchiveBackend(cfg.Discovery.ArchiveSearchURL, cfg.Discovery.RowsPerQuery, cfg.Discovery.RequestTimeout, keywords),
		discovery.NewVideoBackend(cfg.Discovery.VideoSearchURL, cfg.Discovery.RowsPerQuery, cfg.Discovery.RequestTimeout),
	}
}

func printResult(result app.ItemResult) {
	status := "FAILED"
	detail := fmt.Sprintf("%d sources tried", result.SourcesTried)
	if result.Succeeded() {
		status = "OK"
		detail = result.Source.URL
		if result.DiscoveryUsed {
			detail += " (discovered)"
		}
	}
	fmt.Printf("[%s] %s: %s\n", status, result.Item.Title, detail)
}

func printSummary(snapshot domain.StatsSnapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nITEMS\tSUCCESSFUL\tFAILED\tDISCOVERIES USED")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\n",
		snapshot.Attempted, snapshot.Successful, snapshot.Failed, snapshot.DiscoveriesUsed)
	w.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
