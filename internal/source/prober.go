// Package source runs the probe-learn-extract loop for one configured
// upstream endpoint. Endpoints are declared in configuration; nothing here
// knows any concrete API.
package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/rkalinin/corpora/internal/document"
	"github.com/rkalinin/corpora/internal/fetch"
)

// Prober fetches a handful of sample documents so the learner can infer the
// source's response shape before the extraction phase begins.
type Prober struct {
	samples int
	logger  *zap.Logger
}

// NewProber creates a prober taking up to samples documents per source.
func NewProber(samples int, logger *zap.Logger) *Prober {
	if samples <= 0 {
		samples = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{samples: samples, logger: logger}
}

// Probe fetches sample URLs, skipping failures. An unreachable source yields
// zero samples, which downstream treats as "learn nothing, harvest
// generically" rather than an error.
func (p *Prober) Probe(ctx context.Context, client *fetch.Client, urls []string) []*document.Document {
	var samples []*document.Document

	for _, url := range urls {
		if len(samples) >= p.samples {
			break
		}
		if ctx.Err() != nil {
			break
		}

		doc, err := client.Get(ctx, url, true)
		if err != nil {
			p.logger.Debug("probe fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		samples = append(samples, doc)
	}

	return samples
}
