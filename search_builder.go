package promptsgo

import (
	"fmt"
	"time"
)

// SearchBuilder is a fluent builder for a single search over a fixed record set.
type SearchBuilder struct {
	records []Prompt
	params  Params
	ratio   float64
	now     func() time.Time
	limit   int
}

// NewSearch starts a search over records.
func NewSearch(records []Prompt) *SearchBuilder {
	return &SearchBuilder{records: records, now: time.Now}
}

// Query sets the free-text query.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.params.Query = q
	return b
}

// Types restricts results to the given prompt types.
func (b *SearchBuilder) Types(types ...string) *SearchBuilder {
	b.params.Types = append(b.params.Types, types...)
	return b
}

// Models keeps prompts compatible with any of the given models.
func (b *SearchBuilder) Models(models ...string) *SearchBuilder {
	b.params.Models = append(b.params.Models, models...)
	return b
}

// Tags keeps prompts carrying any of the given tags.
func (b *SearchBuilder) Tags(tags ...string) *SearchBuilder {
	b.params.Tags = append(b.params.Tags, tags...)
	return b
}

// Categories keeps prompts in any of the given categories.
func (b *SearchBuilder) Categories(categories ...string) *SearchBuilder {
	b.params.Categories = append(b.params.Categories, categories...)
	return b
}

// Author matches the author's username exactly or a case-insensitive substring
// of the author's display name.
func (b *SearchBuilder) Author(author string) *SearchBuilder {
	b.params.Author = author
	return b
}

// MinHearts sets the inclusive lower heart bound.
func (b *SearchBuilder) MinHearts(n int) *SearchBuilder {
	b.params.MinHearts = &n
	return b
}

// MaxHearts sets the inclusive upper heart bound.
func (b *SearchBuilder) MaxHearts(n int) *SearchBuilder {
	b.params.MaxHearts = &n
	return b
}

// Between keeps prompts created within [from, to]. A zero time leaves that side open.
func (b *SearchBuilder) Between(from, to time.Time) *SearchBuilder {
	b.params.From, b.params.To = nil, nil
	if !from.IsZero() {
		b.params.From = &from
	}
	if !to.IsZero() {
		b.params.To = &to
	}
	return b
}

// SortBy sets the ranking strategy by name, e.g. "trending" or "most_liked".
func (b *SearchBuilder) SortBy(s string) *SearchBuilder {
	b.params.SortBy = s
	return b
}

// WordRatio sets the share of query words the fuzzy fallback must accept.
func (b *SearchBuilder) WordRatio(r float64) *SearchBuilder {
	b.ratio = r
	return b
}

// At fixes the reference time used by trending.
func (b *SearchBuilder) At(now time.Time) *SearchBuilder {
	b.now = func() time.Time { return now }
	return b
}

// Limit caps the number of results. Zero means no cap.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Criteria validates the accumulated parameters.
func (b *SearchBuilder) Criteria() (Criteria, error) {
	return NewCriteria(b.params)
}

// Do validates the parameters and runs the search.
func (b *SearchBuilder) Do() ([]Prompt, error) {
	if b.limit < 0 {
		return nil, fmt.Errorf("promptsgo: limit must be non-negative")
	}
	c, err := b.Criteria()
	if err != nil {
		return nil, err
	}
	out := SearchWithRatio(b.records, c, b.now(), b.ratio)
	if b.limit > 0 && len(out) > b.limit {
		out = out[:b.limit]
	}
	return out, nil
}
