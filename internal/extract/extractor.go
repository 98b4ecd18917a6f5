// Package extract pulls original text, translated text, and a reference
// label out of arbitrary documents. It is total: any document in, three
// strings out, never an error.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/rkalinin/corpora/internal/document"
	"github.com/rkalinin/corpora/internal/schema"
)

// Fields is the extraction result. Any field may be empty; when only one
// text side is found it is copied into the other, so callers see either two
// non-empty texts or two empty ones.
type Fields struct {
	Original   string
	Translated string
	Reference  string
	Fallback   bool // true when the generic harvest (Tier 2) produced the text
}

// translationHints classify a value as translated/secondary text. Two-letter
// codes match key segments exactly; longer hints match as substrings.
var translationHints = []string{"en", "english", "trans", "translation"}

// originalHints classify a value as primary-language text.
var originalHints = []string{"he", "ar", "sa", "pi", "la", "zh", "original", "source", "slok", "hebrew", "arabic", "sanskrit", "pali"}

const (
	// listFanout bounds how many sibling elements a learned index step
	// expands to during Tier 1 resolution.
	listFanout = 32

	// flattenItems bounds list flattening.
	flattenItems = 100
)

type textClass int

const (
	classUnknown textClass = iota
	classOriginal
	classTranslated
)

// Extractor applies a learned schema, with a generic harvest fallback.
type Extractor struct {
	maxDepth int
	textCap  int
}

// NewExtractor creates an extractor with the given traversal depth bound and
// per-field character cap.
func NewExtractor(maxDepth, textCap int) *Extractor {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if textCap <= 0 {
		textCap = 10_000
	}
	return &Extractor{maxDepth: maxDepth, textCap: textCap}
}

// Extract resolves the schema's candidate paths against the document (Tier
// 1) and falls back to a generic harvest when nothing resolves (Tier 2).
func (e *Extractor) Extract(doc *document.Document, s *schema.SourceSchema) Fields {
	var out Fields

	if !s.Empty() {
		out.Original, out.Translated = e.schemaText(doc, s)
		out.Reference = e.schemaRef(doc, s)
	}

	if out.Original == "" && out.Translated == "" {
		harvested := e.harvest(doc, 0)
		if harvested == "" {
			harvested = e.concatLeaves(doc)
		}
		if harvested != "" {
			out.Original = harvested
			out.Fallback = true
		}
	}

	// Copy-fallback keeps downstream records two-sided.
	if out.Original == "" {
		out.Original = out.Translated
	}
	if out.Translated == "" {
		out.Translated = out.Original
	}

	out.Original = e.clean(out.Original)
	out.Translated = e.clean(out.Translated)
	out.Reference = strings.TrimSpace(StripMarkup(out.Reference))

	return out
}

// schemaText walks ranked text paths, classifying each resolved value as
// original or translated.
func (e *Extractor) schemaText(doc *document.Document, s *schema.SourceSchema) (original, translated string) {
	for _, cand := range s.TextPaths {
		for _, m := range resolveAll(doc, cand.Path) {
			text := strings.TrimSpace(e.flatten(m.doc, 0))
			if text == "" {
				continue
			}

			switch classify(m.marker, cand.Path) {
			case classTranslated:
				if translated == "" {
					translated = text
				}
			case classOriginal:
				if original == "" {
					original = text
				}
			default:
				// Unmarked values fill original first, then translated.
				if original == "" {
					original = text
				} else if translated == "" {
					translated = text
				}
			}

			if original != "" && translated != "" {
				return original, translated
			}
		}
	}
	return original, translated
}

func (e *Extractor) schemaRef(doc *document.Document, s *schema.SourceSchema) string {
	for _, cand := range s.RefPaths {
		for _, m := range resolveAll(doc, cand.Path) {
			if m.doc.Kind() == document.KindString {
				if ref := strings.TrimSpace(m.doc.Str()); ref != "" {
					return ref
				}
			}
		}
	}
	return ""
}

// match is one resolved value plus the language marker of the record it sits
// in, when the record declares one.
type match struct {
	doc    *document.Document
	marker string
}

// resolveAll resolves a path fail-soft. A learned index step fans out across
// all sibling elements: probes only ever see element 0, but records like
// version lists carry one language per element.
func resolveAll(doc *document.Document, path document.Path) []match {
	matches := []match{{doc: doc}}

	for _, a := range path {
		var next []match
		for _, m := range matches {
			switch a.Kind {
			case document.KeyAccessor:
				if child, ok := m.doc.Field(a.Key); ok {
					next = append(next, match{doc: child, marker: m.marker})
				}
			case document.IndexAccessor:
				for i, el := range m.doc.Items() {
					if i >= listFanout {
						break
					}
					marker := LanguageMarker(el)
					if marker == "" {
						marker = m.marker
					}
					next = append(next, match{doc: el, marker: marker})
				}
			}
			if len(next) >= listFanout {
				break
			}
		}
		matches = next
		if len(matches) == 0 {
			return nil
		}
	}

	return matches
}

// LanguageMarker reads a short language tag from a record, e.g.
// {"language": "en", "text": ...}. Records carrying one are per-language
// renditions of a single text, not independent items.
func LanguageMarker(doc *document.Document) string {
	if doc.Kind() != document.KindMap {
		return ""
	}
	for _, key := range doc.Keys() {
		if !strings.Contains(strings.ToLower(key), "lang") {
			continue
		}
		if v, ok := doc.Field(key); ok && v.Kind() == document.KindString {
			tag := strings.TrimSpace(v.Str())
			if tag != "" && len(tag) <= 12 {
				return tag
			}
		}
	}
	return ""
}

// classify decides original vs translated from the record's language marker
// first, then from the path's key segments.
func classify(marker string, path document.Path) textClass {
	if marker != "" {
		if segmentMatches(marker, translationHints) {
			return classTranslated
		}
		return classOriginal
	}

	for _, key := range path.KeyNames() {
		if segmentMatches(key, translationHints) {
			return classTranslated
		}
		if segmentMatches(key, originalHints) {
			return classOriginal
		}
	}
	return classUnknown
}

// segmentMatches requires exact equality for hints of up to three
// characters; "en" must not match "content".
func segmentMatches(segment string, hints []string) bool {
	lower := strings.ToLower(segment)
	for _, h := range hints {
		if len(h) <= 3 {
			if lower == h {
				return true
			}
		} else if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// flatten renders any value as text: strings pass through, lists join their
// elements, maps prefer hinted text keys before joining everything.
func (e *Extractor) flatten(doc *document.Document, depth int) string {
	if depth > e.maxDepth {
		return ""
	}

	switch doc.Kind() {
	case document.KindString:
		return doc.Str()

	case document.KindList:
		var parts []string
		total := 0
		for i, item := range doc.Items() {
			if i >= flattenItems || total >= e.textCap {
				break
			}
			if p := e.flatten(item, depth+1); p != "" {
				parts = append(parts, p)
				total += len(p)
			}
		}
		return strings.Join(parts, " ")

	case document.KindMap:
		for _, hint := range schema.TextHints {
			if v, ok := doc.Field(hint); ok {
				if text := e.flatten(v, depth+1); text != "" {
					return text
				}
			}
		}
		var parts []string
		total := 0
		for _, key := range doc.Keys() {
			if total >= e.textCap {
				break
			}
			v, _ := doc.Field(key)
			if p := e.flatten(v, depth+1); p != "" {
				parts = append(parts, p)
				total += len(p)
			}
		}
		return strings.Join(parts, " ")

	default:
		return ""
	}
}

// harvest is the first half of Tier 2: find one good text value, preferring
// the same hint keys the learner uses.
func (e *Extractor) harvest(doc *document.Document, depth int) string {
	if depth > e.maxDepth {
		return ""
	}

	switch doc.Kind() {
	case document.KindString:
		if len(doc.Str()) > 10 {
			return doc.Str()
		}
		return ""

	case document.KindList:
		for i, item := range doc.Items() {
			if i >= 10 {
				break
			}
			if text := e.harvest(item, depth+1); text != "" {
				return text
			}
		}
		return ""

	case document.KindMap:
		for _, hint := range schema.TextHints {
			if v, ok := doc.Field(hint); ok {
				if text := e.harvest(v, depth+1); text != "" {
					return text
				}
			}
		}
		for _, key := range doc.Keys() {
			v, _ := doc.Field(key)
			if text := e.harvest(v, depth+1); text != "" {
				return text
			}
		}
		return ""

	default:
		return ""
	}
}

// concatLeaves is the last-resort half of Tier 2: join every string leaf up
// to the cap. Total on any document, including ones with no strings at all.
func (e *Extractor) concatLeaves(doc *document.Document) string {
	var buf strings.Builder
	e.appendLeaves(doc, 0, &buf)
	return strings.TrimSpace(buf.String())
}

func (e *Extractor) appendLeaves(doc *document.Document, depth int, buf *strings.Builder) {
	if depth > e.maxDepth || buf.Len() >= e.textCap {
		return
	}

	switch doc.Kind() {
	case document.KindString:
		if doc.Str() == "" {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(doc.Str())

	case document.KindList:
		for _, item := range doc.Items() {
			if buf.Len() >= e.textCap {
				return
			}
			e.appendLeaves(item, depth+1, buf)
		}

	case document.KindMap:
		for _, key := range doc.Keys() {
			if buf.Len() >= e.textCap {
				return
			}
			v, _ := doc.Field(key)
			e.appendLeaves(v, depth+1, buf)
		}
	}
}

// clean strips markup and applies the character cap on a rune boundary.
func (e *Extractor) clean(s string) string {
	s = strings.TrimSpace(StripMarkup(s))
	if len(s) > e.textCap {
		cut := e.textCap
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
