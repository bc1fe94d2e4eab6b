package model

import "time"

// SortOrder represents the search result ordering requested by the user
type SortOrder string

const (
	SortRelevance     SortOrder = "relevance"
	SortSubmittedDate SortOrder = "submitted-date"
	SortUpdatedDate   SortOrder = "updated-date"
)

// DefaultMaxResults caps the number of papers fetched per query
const DefaultMaxResults = 10

// QueryFilters holds the structured filters parsed from a free-text query.
// Produced once per query, immutable thereafter.
type QueryFilters struct {
	MinYear    int       `json:"min_year,omitempty"`
	MaxYear    int       `json:"max_year,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Authors    []string  `json:"authors,omitempty"`
	Exclusions []string  `json:"exclusions,omitempty"`
	Sort       SortOrder `json:"sort"`
	MaxResults int       `json:"max_results"`
}

// PaperRecord describes one paper returned by the search provider.
// LocalPath is set once the document has been fetched to storage.
type PaperRecord struct {
	ID        string    `json:"id" bson:"_id"` // external identifier, e.g. "2507.17668v1"
	Title     string    `json:"title" bson:"title"`
	Authors   []string  `json:"authors" bson:"authors"`
	Published time.Time `json:"published" bson:"published"`
	SourceURL string    `json:"source_url" bson:"source_url"`
	PDFURL    string    `json:"pdf_url" bson:"pdf_url"`
	Summary   string    `json:"summary,omitempty" bson:"summary,omitempty"`
	LocalPath string    `json:"local_path,omitempty" bson:"local_path,omitempty"`
}
