package model

import "time"

// Passage is the normalized output unit: one extracted text span with its
// provenance. A Passage is never emitted with both text fields empty.
type Passage struct {
	ID           string            `json:"id"`            // source-qualified identifier, e.g. "gita:2:47"
	Source       string            `json:"source"`        // logical source name
	Ref          string            `json:"ref"`           // human-readable citation
	Title        string            `json:"title"`         // work or section title
	TextOriginal string            `json:"text_original"` // primary-language text
	TextEnglish  string            `json:"text_english"`  // translation; falls back to original
	Language     string            `json:"language"`      // BCP-47-ish tag of the original
	Category     string            `json:"category"`
	Subcategory  string            `json:"subcategory"`
	DateComposed string            `json:"date_composed"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Summary describes one completed aggregation run.
type Summary struct {
	RunID       string         `json:"run_id"`
	Total       int            `json:"total"`
	PerSource   map[string]int `json:"per_source"`
	GeneratedAt time.Time      `json:"generated_at"`
}
