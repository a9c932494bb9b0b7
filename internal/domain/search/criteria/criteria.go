package criteria

import (
	"fmt"
	"strings"
	"time"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/search/sortby"
)

// Criteria limits and sentinel defaults.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 512
	// MaxSetSize caps the number of values in a single set filter.
	MaxSetSize = 50
	// DefaultMinHearts and DefaultMaxHearts are the sentinel "no constraint" bounds.
	DefaultMinHearts = 0
	DefaultMaxHearts = 1000
)

// Params are the raw, optional inputs of a search. Zero values mean "no constraint".
type Params struct {
	Query      string
	Types      []string
	Models     []string
	Tags       []string
	Categories []string
	Author     string
	MinHearts  *int
	MaxHearts  *int
	From       *time.Time
	To         *time.Time
	SortBy     string
}

// Criteria is a validated filter/sort configuration. Every field has a defined default.
type Criteria struct {
	query      string
	types      Set
	models     Set
	tags       Set
	categories Set
	author     string
	minHearts  int
	maxHearts  int
	from       *time.Time
	to         *time.Time
	sortBy     sortby.SortBy
}

// Default returns criteria with no constraints, sorted by latest.
func Default() Criteria {
	return Criteria{
		minHearts: DefaultMinHearts,
		maxHearts: DefaultMaxHearts,
		sortBy:    sortby.Latest,
	}
}

// New validates and normalizes search parameters.
// An empty sort means relevance when a query is present and latest otherwise.
func New(p Params) (Criteria, error) {
	c := Default()

	c.query = strings.TrimSpace(p.Query)
	if len(c.query) > MaxQueryLength {
		return Criteria{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	var err error
	if c.types, err = newTypeSet(p.Types); err != nil {
		return Criteria{}, err
	}
	if c.models, err = newBoundedSet("models", p.Models); err != nil {
		return Criteria{}, err
	}
	if c.tags, err = newBoundedSet("tags", p.Tags); err != nil {
		return Criteria{}, err
	}
	if c.categories, err = newBoundedSet("categories", p.Categories); err != nil {
		return Criteria{}, err
	}

	c.author = strings.TrimSpace(p.Author)

	if p.MinHearts != nil {
		if *p.MinHearts < 0 {
			return Criteria{}, fmt.Errorf("min_hearts must be non-negative")
		}
		c.minHearts = *p.MinHearts
	}
	if p.MaxHearts != nil {
		if *p.MaxHearts < 0 {
			return Criteria{}, fmt.Errorf("max_hearts must be non-negative")
		}
		c.maxHearts = *p.MaxHearts
	}
	if c.MaxHeartsNarrowed() && c.minHearts > c.maxHearts {
		return Criteria{}, fmt.Errorf("min_hearts (%d) exceeds max_hearts (%d)", c.minHearts, c.maxHearts)
	}

	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return Criteria{}, fmt.Errorf("date range start is after its end")
	}
	c.from = p.From
	c.to = p.To

	switch {
	case strings.TrimSpace(p.SortBy) != "":
		if c.sortBy, err = sortby.Parse(p.SortBy); err != nil {
			return Criteria{}, err
		}
	case c.query != "":
		c.sortBy = sortby.Relevance
	}

	return c, nil
}

const dateOnly = "2006-01-02"

// ParseDateBound parses an RFC 3339 timestamp or a YYYY-MM-DD date. A blank value is nil.
// With endOfDay, a bare date covers that whole day.
func ParseDateBound(name, raw string, endOfDay bool) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date, got %q", name, s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func newTypeSet(values []string) (Set, error) {
	if len(values) > MaxSetSize {
		return Set{}, fmt.Errorf("too many types (max %d)", MaxSetSize)
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := prompt.ParseType(v); err != nil {
			return Set{}, err
		}
	}
	return NewSet(values), nil
}

func newBoundedSet(name string, values []string) (Set, error) {
	if len(values) > MaxSetSize {
		return Set{}, fmt.Errorf("too many %s (max %d)", name, MaxSetSize)
	}
	return NewSet(values), nil
}

// Query returns the trimmed text query ("" means no text filter).
func (c *Criteria) Query() string { return c.query }

// HasQuery reports whether a text filter is active.
func (c *Criteria) HasQuery() bool { return c.query != "" }

// Types returns the accepted prompt types (empty = any).
func (c *Criteria) Types() Set { return c.types }

// Models returns the accepted model names (empty = any).
func (c *Criteria) Models() Set { return c.models }

// Tags returns the accepted tags (empty = any).
func (c *Criteria) Tags() Set { return c.tags }

// Categories returns the accepted categories (empty = any).
func (c *Criteria) Categories() Set { return c.categories }

// Author returns the author filter ("" = any).
func (c *Criteria) Author() string { return c.author }

// MinHearts returns the inclusive lower heart bound.
func (c *Criteria) MinHearts() int { return c.minHearts }

// MaxHearts returns the inclusive upper heart bound.
func (c *Criteria) MaxHearts() int { return c.maxHearts }

// MinHeartsNarrowed reports whether the lower bound differs from its sentinel.
func (c *Criteria) MinHeartsNarrowed() bool { return c.minHearts != DefaultMinHearts }

// MaxHeartsNarrowed reports whether the upper bound differs from its sentinel.
func (c *Criteria) MaxHeartsNarrowed() bool { return c.maxHearts != DefaultMaxHearts }

// From returns the inclusive lower date bound, if any.
func (c *Criteria) From() (time.Time, bool) {
	if c.from == nil {
		return time.Time{}, false
	}
	return *c.from, true
}

// To returns the inclusive upper date bound, if any.
func (c *Criteria) To() (time.Time, bool) {
	if c.to == nil {
		return time.Time{}, false
	}
	return *c.to, true
}

// HasDateRange reports whether either date bound is set.
func (c *Criteria) HasDateRange() bool { return c.from != nil || c.to != nil }

// SortBy returns the ranking strategy.
func (c *Criteria) SortBy() sortby.SortBy { return c.sortBy }

// Set is a case-insensitive set of filter values. The zero value is empty and accepts everything.
type Set struct {
	values []string
	index  map[string]struct{}
}

// NewSet lowercases, trims and de-duplicates values, dropping blanks.
func NewSet(values []string) Set {
	var s Set
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if s.index == nil {
			s.index = make(map[string]struct{}, len(values))
		}
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.values = append(s.values, v)
	}
	return s
}

// Len returns the number of distinct values.
func (s Set) Len() int { return len(s.values) }

// IsEmpty reports whether the set imposes no constraint.
func (s Set) IsEmpty() bool { return len(s.values) == 0 }

// Has reports whether v is in the set, ignoring case.
func (s Set) Has(v string) bool {
	_, ok := s.index[strings.ToLower(v)]
	return ok
}

// HasAny reports whether any of vs is in the set.
func (s Set) HasAny(vs []string) bool {
	for _, v := range vs {
		if s.Has(v) {
			return true
		}
	}
	return false
}
