// Package schema infers, from a handful of probe documents, which paths in a
// source's responses carry text, references, and iterable collections. A
// learned schema is built once per source before extraction begins and is
// read-only afterward.
package schema

import (
	"github.com/rkalinin/corpora/internal/document"
)

// Structure is a coarse tag for the overall response shape.
type Structure string

const (
	StructureUnknown       Structure = ""
	StructureFlat          Structure = "flat"
	StructureNestedDict    Structure = "nested-dict"
	StructureListOfRecords Structure = "list-of-records"
)

// Candidate is one ranked path.
type Candidate struct {
	Path  document.Path `json:"path"`
	Score float64       `json:"score"`
	Seen  int           `json:"seen"` // number of probe samples the path appeared in
}

// SourceSchema holds the ranked candidate paths for one source.
type SourceSchema struct {
	Source    string      `json:"source"`
	Structure Structure   `json:"structure"`
	TextPaths []Candidate `json:"text_paths"` // at most 5
	RefPaths  []Candidate `json:"ref_paths"`  // at most 3
	ListPaths []Candidate `json:"list_paths"` // at most 3
}

// Empty reports whether learning produced nothing usable. Callers treat an
// empty schema as "fall back to generic harvesting", never as an error.
func (s *SourceSchema) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.TextPaths) == 0 && len(s.RefPaths) == 0 && len(s.ListPaths) == 0
}

// Relative rebases the schema onto elements of the list at prefix: a learned
// path "key:hadiths/index:0/key:text" becomes "key:text" against each list
// element. Candidates that do not traverse the prefix are kept as-is so
// page-level reference fields still resolve against whole-record documents.
func (s *SourceSchema) Relative(prefix document.Path) *SourceSchema {
	out := &SourceSchema{
		Source:    s.Source,
		Structure: s.Structure,
	}

	out.TextPaths = rebase(s.TextPaths, prefix)
	out.RefPaths = rebase(s.RefPaths, prefix)
	// List paths stay behind: the split already consumed the collection.

	return out
}

func rebase(candidates []Candidate, prefix document.Path) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		rest, ok := stripPrefix(c.Path, prefix)
		if !ok {
			// Path lives outside the collection; resolution against a record
			// document fails soft, so carrying it over costs nothing.
			out = append(out, c)
			continue
		}
		out = append(out, Candidate{Path: rest, Score: c.Score, Seen: c.Seen})
	}
	return out
}

// stripPrefix removes prefix plus the following index accessor from a path.
func stripPrefix(path, prefix document.Path) (document.Path, bool) {
	if len(path) < len(prefix)+1 {
		return nil, false
	}
	for i, a := range prefix {
		if path[i].String() != a.String() {
			return nil, false
		}
	}
	if path[len(prefix)].Kind != document.IndexAccessor {
		return nil, false
	}
	return path[len(prefix)+1:], true
}
