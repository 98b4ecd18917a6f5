package schema

import (
	"sort"

	"go.uber.org/zap"

	"github.com/rkalinin/corpora/internal/document"
)

const (
	maxTextPaths = 5
	maxRefPaths  = 3
	maxListPaths = 3

	// minTextLen is the shortest string treated as candidate body text.
	minTextLen = 10

	// refLengthPenaltyCutoff: a "title" holding a full paragraph is almost
	// certainly body text, so long values lose the reference slot.
	refLengthPenaltyCutoff = 120
)

// Learner builds SourceSchemas from probe samples. Pure computation: no I/O,
// no mutation of inputs, deterministic output for identical samples.
type Learner struct {
	maxDepth int
	logger   *zap.Logger
}

// NewLearner creates a learner with the given traversal depth bound.
func NewLearner(maxDepth int, logger *zap.Logger) *Learner {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{maxDepth: maxDepth, logger: logger}
}

// pathStat aggregates observations of one path across samples.
type pathStat struct {
	path   document.Path
	seen   int // samples containing the path
	maxLen int // longest string value observed at the path
}

// Learn inspects sample documents from one source and returns ranked
// candidate paths. Zero samples yield an empty schema.
func (l *Learner) Learn(source string, samples []*document.Document) *SourceSchema {
	out := &SourceSchema{Source: source}

	live := samples[:0:0]
	for _, s := range samples {
		if s != nil {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		l.logger.Warn("no probe samples, returning empty schema", zap.String("source", source))
		return out
	}

	texts := make(map[string]*pathStat)
	refs := make(map[string]*pathStat)
	lists := make(map[string]*pathStat)

	for _, sample := range live {
		// Per-sample sets so a path repeated inside one document still
		// counts as one sample toward consensus.
		st := make(map[string]*pathStat)
		sr := make(map[string]*pathStat)
		sl := make(map[string]*pathStat)

		l.walk(sample, document.Path{}, 0, st, sr, sl)

		mergeStats(texts, st)
		mergeStats(refs, sr)
		mergeStats(lists, sl)
	}

	out.Structure = classifyStructure(live)
	out.TextPaths = rank(texts, scoreText, maxTextPaths)
	out.RefPaths = rank(refs, scoreRef, maxRefPaths)
	out.ListPaths = rank(lists, scoreList, maxListPaths)

	l.logger.Debug("learned schema",
		zap.String("source", source),
		zap.String("structure", string(out.Structure)),
		zap.Int("text_paths", len(out.TextPaths)),
		zap.Int("ref_paths", len(out.RefPaths)),
		zap.Int("list_paths", len(out.ListPaths)),
	)

	return out
}

// walk performs the bounded depth-first discovery over one sample.
func (l *Learner) walk(doc *document.Document, path document.Path, depth int, texts, refs, lists map[string]*pathStat) {
	if depth > l.maxDepth {
		return
	}

	switch doc.Kind() {
	case document.KindNull, document.KindBool, document.KindNumber:
		// Nothing to learn from scalars without text.

	case document.KindString:
		s := doc.Str()
		terminalKey := terminalKeyOf(path)

		if len(s) > minTextLen {
			observe(texts, path, len(s))
		}
		if terminalKey != "" && MatchesHint(terminalKey, RefHints) {
			observe(refs, path, len(s))
		}

	case document.KindList:
		if doc.Len() > 0 {
			if key := terminalKeyOf(path); key != "" && MatchesHint(key, ListHints) {
				observe(lists, path, doc.Len())
			}
			// Descend into the first element only: siblings in these APIs
			// share shape, and a single branch keeps traversal bounded.
			l.walk(doc.Item(0), path.Child(document.Index(0)), depth+1, texts, refs, lists)
		}

	case document.KindMap:
		for _, key := range doc.Keys() {
			child, _ := doc.Field(key)
			l.walk(child, path.Child(document.Key(key)), depth+1, texts, refs, lists)
		}
	}
}

func terminalKeyOf(path document.Path) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind == document.KeyAccessor {
			return path[i].Key
		}
	}
	return ""
}

func observe(set map[string]*pathStat, path document.Path, length int) {
	key := path.String()
	st, ok := set[key]
	if !ok {
		st = &pathStat{path: path, seen: 1}
		set[key] = st
	}
	if length > st.maxLen {
		st.maxLen = length
	}
}

func mergeStats(into map[string]*pathStat, sample map[string]*pathStat) {
	for key, st := range sample {
		agg, ok := into[key]
		if !ok {
			into[key] = &pathStat{path: st.path, seen: 1, maxLen: st.maxLen}
			continue
		}
		agg.seen++
		if st.maxLen > agg.maxLen {
			agg.maxLen = st.maxLen
		}
	}
}

// scoreText: hint boost on the terminal key, consensus across samples, and a
// mild length boost — body text is long, titles are short.
func scoreText(st *pathStat) float64 {
	score := float64(st.seen) * 2.0
	if key := terminalKeyOf(st.path); key != "" && MatchesHint(key, TextHints) {
		score += 3.0
	}
	length := st.maxLen
	if length > 1000 {
		length = 1000
	}
	score += float64(length) / 1000.0
	return score
}

// scoreRef: consensus-driven, penalized when the value is paragraph-sized.
func scoreRef(st *pathStat) float64 {
	score := float64(st.seen)*2.0 + 3.0
	if st.maxLen > refLengthPenaltyCutoff {
		score -= 2.0
	}
	return score
}

// scoreList: consensus plus a small boost for bigger collections.
func scoreList(st *pathStat) float64 {
	score := float64(st.seen) * 2.0
	size := st.maxLen
	if size > 100 {
		size = 100
	}
	score += float64(size) / 100.0
	return score
}

// rank orders candidates by score, ties broken by path string so output is
// independent of map iteration order.
func rank(set map[string]*pathStat, score func(*pathStat) float64, limit int) []Candidate {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	candidates := make([]Candidate, 0, len(keys))
	for _, key := range keys {
		st := set[key]
		candidates = append(candidates, Candidate{
			Path:  st.path,
			Score: score(st),
			Seen:  st.seen,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Path.String() < candidates[j].Path.String()
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// classifyStructure tags the dominant shape across samples.
func classifyStructure(samples []*document.Document) Structure {
	counts := map[Structure]int{}

	for _, s := range samples {
		switch s.Kind() {
		case document.KindList:
			counts[StructureListOfRecords]++
		case document.KindMap:
			nested := false
			for _, key := range s.Keys() {
				if child, _ := s.Field(key); child.Kind() == document.KindList {
					nested = true
					break
				}
			}
			if nested {
				counts[StructureNestedDict]++
			} else {
				counts[StructureFlat]++
			}
		}
	}

	best := StructureUnknown
	bestCount := 0
	// Fixed iteration order keeps ties deterministic.
	for _, tag := range []Structure{StructureListOfRecords, StructureNestedDict, StructureFlat} {
		if counts[tag] > bestCount {
			best = tag
			bestCount = counts[tag]
		}
	}
	return best
}
