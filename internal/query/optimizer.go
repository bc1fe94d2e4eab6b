package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lenslabs/paperlens/internal/model"
)

// maxExclusionTokens caps how much trailing text a "not PHRASE" pattern may
// capture; unbounded capture would swallow the rest of the sentence.
const maxExclusionTokens = 6

// recentYearSpan is subtracted from the current year for bare "recent" queries
const recentYearSpan = 3

var (
	authorByRe     = regexp.MustCompile(`(?:[Pp]apers?\s+)?[Bb]y\s+([A-Z][A-Za-z\-']+(?:\s+[A-Z][A-Za-z\-']+)*)`)
	authorNamedRe  = regexp.MustCompile(`(?i:author)\s+([A-Z][A-Za-z\-']+(?:\s+[A-Z][A-Za-z\-']+)*)`)
	minYearRe      = regexp.MustCompile(`(?:after|since)\s+(\d{4})`)
	maxYearRe      = regexp.MustCompile(`before\s+(\d{4})`)
	yearRangeRe    = regexp.MustCompile(`(?:between|from)\s+(\d{4})\s+(?:and|to)\s+(\d{4})`)
	exclusionRe    = regexp.MustCompile(`(?i)\bnot\s+([a-zA-Z0-9\-\s]+)`)
	sortDirectives = []struct {
		keyword string
		order   model.SortOrder
	}{
		{"relevance", model.SortRelevance},
		{"date", model.SortSubmittedDate},
		{"submitted", model.SortSubmittedDate},
		{"updated", model.SortUpdatedDate},
	}
)

// Optimizer turns free text into a structured arXiv query plus filters.
// Deterministic for a fixed clock: phrase and category sets are sorted
// before the query string is assembled.
type Optimizer struct {
	now time.Time
	sim Similarity
}

// NewOptimizer creates an optimizer using the wall clock
func NewOptimizer() *Optimizer {
	return NewOptimizerAt(time.Now().UTC())
}

// NewOptimizerAt creates an optimizer with a pinned clock, used by tests and
// anywhere reproducible "recent" resolution matters
func NewOptimizerAt(now time.Time) *Optimizer {
	return &Optimizer{
		now: now,
		sim: diceSimilarity,
	}
}

// Optimize transforms user text into an arXiv query string and filters.
// An empty phrase set yields an empty (match-all) query; filters still apply.
func (o *Optimizer) Optimize(text string) (string, model.QueryFilters, error) {
	phrases, err := nounPhrases(text)
	if err != nil {
		return "", model.QueryFilters{}, fmt.Errorf("failed to extract phrases: %w", err)
	}
	phrases = expandSynonyms(phrases)

	sorted := make([]string, 0, len(phrases))
	for p := range phrases {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	parts := make([]string, 0, len(sorted)+3)
	for _, p := range sorted {
		parts = append(parts, fmt.Sprintf(`(ti:%q OR abs:%q)`, p, p))
	}

	categories := resolveCategories(sorted, o.sim)
	if len(categories) > 0 {
		clauses := make([]string, 0, len(categories))
		for _, c := range categories {
			clauses = append(clauses, "cat:"+c)
		}
		parts = append(parts, "("+strings.Join(clauses, " OR ")+")")
	}

	authors := parseAuthors(text)
	if len(authors) > 0 {
		clauses := make([]string, 0, len(authors))
		for _, a := range authors {
			clauses = append(clauses, fmt.Sprintf("au:%q", a))
		}
		parts = append(parts, "("+strings.Join(clauses, " OR ")+")")
	}

	exclusions := parseExclusions(text)
	for _, ex := range exclusions {
		parts = append(parts, fmt.Sprintf(`NOT (ti:%q OR abs:%q)`, ex, ex))
	}

	minYear, maxYear := o.parseDates(text)

	filters := model.QueryFilters{
		MinYear:    minYear,
		MaxYear:    maxYear,
		Categories: categories,
		Authors:    authors,
		Exclusions: exclusions,
		Sort:       detectSort(text),
		MaxResults: model.DefaultMaxResults,
	}

	return strings.Join(parts, " AND "), filters, nil
}

// resolveCategories maps phrases to taxonomy codes and unions the results
func resolveCategories(phrases []string, sim Similarity) []string {
	seen := make(map[string]struct{})
	for _, p := range phrases {
		if code, ok := closestCategory(p, sim); ok {
			seen[code] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// parseAuthors extracts author names following "by" or "author"
func parseAuthors(text string) []string {
	var authors []string
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{authorByRe, authorNamedRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			authors = append(authors, name)
		}
	}
	return authors
}

// parseDates returns (minYear, maxYear); zero means unset. A year range
// overrides single bounds and is normalized so minYear <= maxYear.
func (o *Optimizer) parseDates(text string) (int, int) {
	lower := strings.ToLower(text)
	minYear, maxYear := 0, 0

	if m := minYearRe.FindStringSubmatch(lower); m != nil {
		minYear, _ = strconv.Atoi(m[1])
	}
	if m := maxYearRe.FindStringSubmatch(lower); m != nil {
		maxYear, _ = strconv.Atoi(m[1])
	}
	if m := yearRangeRe.FindStringSubmatch(lower); m != nil {
		y1, _ := strconv.Atoi(m[1])
		y2, _ := strconv.Atoi(m[2])
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		minYear, maxYear = y1, y2
	}

	if minYear == 0 && strings.Contains(lower, "recent") {
		minYear = o.now.Year() - recentYearSpan
	}

	return minYear, maxYear
}

// parseExclusions extracts phrases following "not", capped at
// maxExclusionTokens words
func parseExclusions(text string) []string {
	var exclusions []string
	for _, m := range exclusionRe.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(strings.ToLower(m[1]))
		if len(words) == 0 {
			continue
		}
		if len(words) > maxExclusionTokens {
			words = words[:maxExclusionTokens]
		}
		exclusions = append(exclusions, strings.Join(words, " "))
	}
	return exclusions
}

// detectSort looks for an explicit "sort by X" / "sorted by X" directive;
// submitted-date order is the default
func detectSort(text string) model.SortOrder {
	lower := strings.ToLower(text)
	for _, d := range sortDirectives {
		if strings.Contains(lower, "sort by "+d.keyword) || strings.Contains(lower, "sorted by "+d.keyword) {
			return d.order
		}
	}
	return model.SortSubmittedDate
}
