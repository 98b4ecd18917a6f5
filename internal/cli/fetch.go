package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkalinin/corpora/internal/logging"
	"github.com/rkalinin/corpora/internal/model"
	"github.com/rkalinin/corpora/internal/pipeline"
)

var (
	outputDir   string
	limitPer    int
	rateLimit   time.Duration
	bearerToken string
	noCache     bool
	workers     int
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all configured sources and build the combined corpus",
	Long: `Fetch probes each configured source, learns its response structure,
pulls every page, extracts original text, translation, and reference, and
writes the combined deduplicated corpus plus a summary.

Sources are declared under "sources:" in the config file. A failing source
lowers its count in the summary; it never aborts the run.

Example:
  corpora fetch
  corpora fetch --output ./corpus --limit 100
  corpora fetch --rate 1s --no-cache`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&outputDir, "output", "", "output directory (default ./corpus)")
	fetchCmd.Flags().IntVar(&limitPer, "limit", 0, "max passages per source (0 = unlimited)")
	fetchCmd.Flags().DurationVar(&rateLimit, "rate", 0, "minimum gap between requests per source")
	fetchCmd.Flags().StringVar(&bearerToken, "token", "", "bearer token for sources requiring auth")
	fetchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh fetches)")
	fetchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent source workers")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	if viper.ConfigFileUsed() != "" {
		if err := viper.Unmarshal(cfg); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	// Flag overrides
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if limitPer > 0 {
		cfg.Limits.PerSource = limitPer
	}
	if rateLimit > 0 {
		cfg.Rate.MinInterval = rateLimit
	}
	if bearerToken != "" {
		cfg.HTTP.BearerToken = bearerToken
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if workers > 0 {
		cfg.Concurrency.SourceWorkers = workers
	}
	cfg.Output.Verbose = verbose

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level)
	defer func() { _ = logger.Sync() }()

	// Ctrl-C stops new fetches; in-flight requests and aggregation finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, logger)
	run, err := p.Execute(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	printSummary(run)
	return nil
}

func printSummary(run *pipeline.Run) {
	summary := run.Corpus.Summary

	fmt.Printf("\nCorpus complete: %d passages\n", summary.Total)

	names := make([]string, 0, len(summary.PerSource))
	for name := range summary.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("  %-16s %d\n", name, summary.PerSource[name])
	}
}
