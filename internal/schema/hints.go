package schema

import "strings"

// Hint substrings carried over from the corpus endpoints this engine grew up
// on. Matching is substring-based on lowercased terminal keys, so "verseText"
// and "en.sahih" both land where expected.

// TextHints mark keys likely to hold human-readable body text.
var TextHints = []string{
	"text", "content", "body", "slok", "verse", "ayah", "passage",
	"he", "en", "ar", "sa", "pi", "la", "grc", "zh",
	"hebrew", "english", "arabic", "sanskrit", "pali", "latin", "greek", "chinese",
	"translation", "original", "source", "target",
	"snippet", "excerpt", "plain_text", "html",
}

// RefHints mark keys likely to hold a reference, title, or identifier.
var RefHints = []string{
	"ref", "reference", "title", "name", "heading", "label", "id", "uid", "key",
}

// ListHints mark keys likely to hold an iterable collection of records.
var ListHints = []string{
	"versions", "texts", "items", "results", "data", "entries",
	"hadiths", "ayahs", "verses", "chapters", "sections", "contents",
}

// MatchesHint reports whether the key contains any of the hint substrings.
func MatchesHint(key string, hints []string) bool {
	lower := strings.ToLower(key)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
