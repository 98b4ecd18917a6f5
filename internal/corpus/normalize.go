// Package corpus turns extraction results into uniform Passage records and
// merges per-source record sets into one deduplicated corpus.
package corpus

import (
	"fmt"
	"unicode/utf8"

	"github.com/rkalinin/corpora/internal/extract"
	"github.com/rkalinin/corpora/internal/model"
)

// Meta carries the per-source constants stamped onto every Passage.
type Meta struct {
	Source       string
	Language     string
	Category     string
	Subcategory  string
	DateComposed string
}

// Normalizer builds Passages from extracted fields.
type Normalizer struct {
	textCap int
}

// NewNormalizer creates a normalizer with the given text cap.
func NewNormalizer(textCap int) *Normalizer {
	if textCap <= 0 {
		textCap = 10_000
	}
	return &Normalizer{textCap: textCap}
}

// Normalize wraps extracted fields into a Passage. It returns nil exactly
// when both text fields are empty; a missing reference is tolerated and
// replaced with a synthetic positional label.
func (n *Normalizer) Normalize(fields extract.Fields, meta Meta, locator string, position int, metadata map[string]string) *model.Passage {
	if fields.Original == "" && fields.Translated == "" {
		return nil
	}

	ref := fields.Reference
	if ref == "" {
		ref = fmt.Sprintf("%s #%d", meta.Source, position)
	}

	return &model.Passage{
		ID:           meta.Source + ":" + locator,
		Source:       meta.Source,
		Ref:          ref,
		Title:        ref,
		TextOriginal: truncate(fields.Original, n.textCap),
		TextEnglish:  truncate(fields.Translated, n.textCap),
		Language:     meta.Language,
		Category:     meta.Category,
		Subcategory:  meta.Subcategory,
		DateComposed: meta.DateComposed,
		Metadata:     metadata,
	}
}

// truncate caps a string on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
