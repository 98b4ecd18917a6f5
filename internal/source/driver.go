package source

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rkalinin/corpora/internal/corpus"
	"github.com/rkalinin/corpora/internal/document"
	"github.com/rkalinin/corpora/internal/extract"
	"github.com/rkalinin/corpora/internal/fetch"
	"github.com/rkalinin/corpora/internal/model"
	"github.com/rkalinin/corpora/internal/schema"
)

// maxConsecutiveMisses stops paging a series once this many pages in a row
// fail; numbered series end without any explicit terminator.
const maxConsecutiveMisses = 3

// Stats counts what happened while running one source.
type Stats struct {
	Fetched         int64
	CacheHits       int64
	Pages           int
	Records         int
	Rejected        int
	SchemaFallbacks int
	Errors          int
	SchemaEmpty     bool
}

// Driver fetches one source end to end: probe, learn, page, extract,
// normalize.
type Driver struct {
	spec       model.SourceSpec
	limits     model.LimitsConfig
	client     *fetch.Client
	prober     *Prober
	learner    *schema.Learner
	extractor  *extract.Extractor
	normalizer *corpus.Normalizer
	logger     *zap.Logger
}

// NewDriver wires a driver for one source spec. The client must be owned by
// this driver alone so its rate-limit clock never serializes other sources.
func NewDriver(
	spec model.SourceSpec,
	limits model.LimitsConfig,
	client *fetch.Client,
	prober *Prober,
	learner *schema.Learner,
	extractor *extract.Extractor,
	normalizer *corpus.Normalizer,
	logger *zap.Logger,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		spec:       spec,
		limits:     limits,
		client:     client,
		prober:     prober,
		learner:    learner,
		extractor:  extractor,
		normalizer: normalizer,
		logger:     logger.With(zap.String("source", spec.Name)),
	}
}

// Run executes the full fetch for this source. Fetch errors and rejected
// documents are counted and skipped, never fatal; passages accumulated
// before a cancellation remain valid and are returned.
func (d *Driver) Run(ctx context.Context) ([]model.Passage, Stats) {
	var stats Stats

	learned := d.learner.Learn(d.spec.Name, d.prober.Probe(ctx, d.client, d.spec.ProbeURLs))
	if learned.Empty() {
		// Not an error: extraction falls back to generic harvesting. Logged
		// loudly because it usually means schema drift upstream.
		stats.SchemaEmpty = true
		d.logger.Warn("empty schema, extraction will use generic harvest")
	}

	meta := corpus.Meta{
		Source:       d.spec.Name,
		Language:     d.spec.Language,
		Category:     d.spec.Category,
		Subcategory:  d.spec.Subcategory,
		DateComposed: d.spec.DateComposed,
	}

	limit := d.spec.Limit
	if limit <= 0 {
		limit = d.limits.PerSource
	}

	count := d.spec.Pages.Count
	if d.limits.MaxPerCollection > 0 && count > d.limits.MaxPerCollection {
		count = d.limits.MaxPerCollection
	}

	start := d.spec.Pages.Start
	if start <= 0 {
		start = 1
	}

	var passages []model.Passage
	position := 0
	misses := 0

	for n := start; n < start+count; n++ {
		// Stop issuing new fetches on cancellation; the in-flight one has
		// already completed by the time we get here.
		if ctx.Err() != nil {
			break
		}
		if limit > 0 && len(passages) >= limit {
			break
		}
		if misses >= maxConsecutiveMisses {
			d.logger.Debug("page series ended", zap.Int("last_page", n-1))
			break
		}

		url := d.pageURL(n)
		doc, err := d.client.Get(ctx, url, true)
		if err != nil {
			stats.Errors++
			misses++
			d.logger.Debug("page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		misses = 0
		stats.Pages++

		records, recordSchema := d.records(doc, learned)
		for i, record := range records {
			if limit > 0 && len(passages) >= limit {
				break
			}

			fields := d.extractor.Extract(record, recordSchema)
			if fields.Fallback {
				stats.SchemaFallbacks++
			}

			locator := strconv.Itoa(n)
			if len(records) > 1 {
				locator = strconv.Itoa(n) + ":" + strconv.Itoa(i+1)
			}

			passage := d.normalizer.Normalize(fields, meta, locator, position, map[string]string{
				"page": strconv.Itoa(n),
			})
			position++
			stats.Records++

			if passage == nil {
				stats.Rejected++
				continue
			}
			passages = append(passages, *passage)
		}
	}

	stats.Fetched = d.client.Fetched()
	stats.CacheHits = d.client.CacheHits()

	d.logger.Info("source complete",
		zap.Int("passages", len(passages)),
		zap.Int("pages", stats.Pages),
		zap.Int("rejected", stats.Rejected),
		zap.Int("errors", stats.Errors),
	)

	return passages, stats
}

// pageURL expands the {n} placeholder in the page template.
func (d *Driver) pageURL(n int) string {
	return strings.ReplaceAll(d.spec.Pages.Template, "{n}", strconv.Itoa(n))
}

// records splits a page into extractable units. When a learned list path
// resolves to a non-empty list the elements are the records and the schema
// is rebased onto them; a list whose elements carry language markers is a
// per-language version container, kept whole so original and translation
// land in one passage. Otherwise the whole document is one record.
func (d *Driver) records(doc *document.Document, learned *schema.SourceSchema) ([]*document.Document, *schema.SourceSchema) {
	for _, cand := range learned.ListPaths {
		resolved, ok := cand.Path.Resolve(doc)
		if !ok || resolved.Kind() != document.KindList || resolved.Len() == 0 {
			continue
		}
		if extract.LanguageMarker(resolved.Item(0)) != "" {
			continue
		}

		items := resolved.Items()
		if d.limits.MaxPerCollection > 0 && len(items) > d.limits.MaxPerCollection {
			items = items[:d.limits.MaxPerCollection]
		}
		return items, learned.Relative(cand.Path)
	}

	return []*document.Document{doc}, learned
}
