package corpus

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkalinin/corpora/internal/model"
)

// Index accumulates passages across sources, deduplicating by identifier
// with last-writer-wins semantics. When two sources emit the same ID the
// later Add silently overwrites; with racing source workers the winner
// depends on completion order and is not deterministic across runs.
type Index struct {
	mu       sync.Mutex
	runID    string
	passages map[string]model.Passage
	owner    map[string]string // passage ID -> owning source

	// finalized caches the Finalize result so repeated calls without an
	// intervening Add return the same value.
	finalized *Result
}

// Result is the finalized corpus.
type Result struct {
	Passages []model.Passage
	Summary  model.Summary
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		runID:    uuid.NewString(),
		passages: make(map[string]model.Passage),
		owner:    make(map[string]string),
	}
}

// Add merges one source's passages into the index.
func (x *Index) Add(source string, passages []model.Passage) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range passages {
		x.passages[p.ID] = p
		x.owner[p.ID] = source
	}
	x.finalized = nil
}

// Len returns the current deduplicated passage count.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.passages)
}

// Finalize orders the corpus by passage ID and builds the summary.
// Idempotent: two calls without an Add in between return identical results.
func (x *Index) Finalize() *Result {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.finalized != nil {
		return x.finalized
	}

	ids := make([]string, 0, len(x.passages))
	for id := range x.passages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ordered := make([]model.Passage, 0, len(ids))
	perSource := make(map[string]int)
	for _, id := range ids {
		ordered = append(ordered, x.passages[id])
		perSource[x.owner[id]]++
	}

	x.finalized = &Result{
		Passages: ordered,
		Summary: model.Summary{
			RunID:       x.runID,
			Total:       len(ordered),
			PerSource:   perSource,
			GeneratedAt: time.Now().UTC(),
		},
	}

	return x.finalized
}
