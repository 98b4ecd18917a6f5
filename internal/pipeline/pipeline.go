// Package pipeline wires the fetch-learn-extract-aggregate run.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rkalinin/corpora/internal/cache"
	"github.com/rkalinin/corpora/internal/corpus"
	"github.com/rkalinin/corpora/internal/extract"
	"github.com/rkalinin/corpora/internal/fetch"
	"github.com/rkalinin/corpora/internal/model"
	"github.com/rkalinin/corpora/internal/schema"
	"github.com/rkalinin/corpora/internal/source"
	"github.com/rkalinin/corpora/internal/worker"
)

// Pipeline orchestrates a complete corpus run across all configured sources.
type Pipeline struct {
	cfg    *model.Config
	logger *zap.Logger
}

// New creates a pipeline from configuration.
func New(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Run is the result of one complete run.
type Run struct {
	Corpus  *corpus.Result
	Sources []worker.Result
}

// Execute runs every configured source through the worker pool, aggregates
// the passages, and writes the corpus. Individual source failures degrade
// the summary counts; the only fatal errors are an unwritable output
// directory (checked before any fetching) and a failed final write.
func (p *Pipeline) Execute(ctx context.Context) (*Run, error) {
	if len(p.cfg.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	writer := corpus.NewWriter(p.cfg.Output.Dir, p.logger)
	if err := writer.EnsureDir(); err != nil {
		return nil, err
	}

	var store cache.Store
	if p.cfg.Cache.Enabled {
		store = cache.NewLayeredStore(p.cfg.Cache.MemoryTTL, p.cfg.Cache.Dir, p.cfg.Cache.DiskTTL)
	}

	learner := schema.NewLearner(p.cfg.Probe.MaxDepth, p.logger)
	extractor := extract.NewExtractor(p.cfg.Probe.MaxDepth, p.cfg.Limits.TextCap)
	normalizer := corpus.NewNormalizer(p.cfg.Limits.TextCap)
	prober := source.NewProber(p.cfg.Probe.Samples, p.logger)

	pool := worker.NewPool(p.cfg.Concurrency.SourceWorkers)
	pool.Start(ctx)

	for _, spec := range p.cfg.Sources {
		// Each source gets its own client: rate-limit state must never be
		// shared, or a slow source would stall unrelated ones.
		client := fetch.NewClient(p.clientOptions(spec), store, p.logger)
		driver := source.NewDriver(
			spec, p.cfg.Limits, client, prober, learner, extractor, normalizer, p.logger,
		)
		pool.Submit(worker.Job{Name: spec.Name, Driver: driver})
	}

	results := pool.Wait()

	index := corpus.NewIndex()
	for _, r := range results {
		index.Add(r.Source, r.Passages)
		p.logger.Info("source aggregated",
			zap.String("source", r.Source),
			zap.Int("passages", len(r.Passages)),
			zap.Int("fallbacks", r.Stats.SchemaFallbacks),
			zap.Int("rejected", r.Stats.Rejected),
			zap.Int("errors", r.Stats.Errors),
			zap.Bool("schema_empty", r.Stats.SchemaEmpty),
		)
	}

	final := index.Finalize()
	if err := writer.Write(final); err != nil {
		return nil, err
	}

	return &Run{Corpus: final, Sources: results}, nil
}

func (p *Pipeline) clientOptions(spec model.SourceSpec) fetch.Options {
	bearer := spec.BearerToken
	if bearer == "" {
		bearer = p.cfg.HTTP.BearerToken
	}

	return fetch.Options{
		Timeout:       p.cfg.HTTP.Timeout,
		UserAgent:     p.cfg.HTTP.UserAgent,
		MaxBodyBytes:  p.cfg.HTTP.MaxBodyBytes,
		BearerToken:   bearer,
		Retries:       p.cfg.HTTP.Retries,
		MinInterval:   p.cfg.Rate.MinInterval,
		Burst:         p.cfg.Rate.Burst,
		RespectRobots: p.cfg.Politeness.RespectRobots,
	}
}
