// Package promptsgo exposes the prompt search and ranking routine for
// in-process use: load a catalog, build criteria, run the search.
//
//	records, _ := promptsgo.LoadCatalog("prompts.yaml")
//	hits, err := promptsgo.NewSearch(records).
//		Query("email").
//		Types("text").
//		MinHearts(10).
//		Do()
//
// The routine never mutates its input and reads the clock only through
// SearchBuilder.At (time.Now by default).
package promptsgo

import (
	"context"
	"fmt"
	"time"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	domsearch "github.com/promptsgo/promptsgo/internal/domain/search"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	"github.com/promptsgo/promptsgo/internal/domain/search/filter"
	"github.com/promptsgo/promptsgo/internal/domain/search/fuzzy"
	"github.com/promptsgo/promptsgo/internal/domain/search/sortby"
	"github.com/promptsgo/promptsgo/internal/repository/catalog"
)

// Prompt is a searchable prompt record.
type Prompt = domprompt.Prompt

// Author identifies who wrote a prompt.
type Author = domprompt.Author

// Stats holds the engagement counters of a prompt.
type Stats = domprompt.Stats

// Type classifies what a prompt produces.
type Type = domprompt.Type

// Prompt types.
const (
	TypeText  = domprompt.TypeText
	TypeImage = domprompt.TypeImage
	TypeCode  = domprompt.TypeCode
	TypeAgent = domprompt.TypeAgent
	TypeChain = domprompt.TypeChain
)

// SortBy is a ranking strategy.
type SortBy = sortby.SortBy

// Ranking strategies.
const (
	SortRelevance  = sortby.Relevance
	SortTrending   = sortby.Trending
	SortLatest     = sortby.Latest
	SortMostLiked  = sortby.MostLiked
	SortMostForked = sortby.MostForked
)

// Criteria is a validated filter and sort configuration.
type Criteria = criteria.Criteria

// Params are the optional inputs of NewCriteria. Zero values mean "no constraint".
type Params = criteria.Params

// DefaultCriteria matches every record and sorts by latest.
func DefaultCriteria() Criteria { return criteria.Default() }

// NewCriteria validates p.
func NewCriteria(p Params) (Criteria, error) {
	c, err := criteria.New(p)
	if err != nil {
		return Criteria{}, fmt.Errorf("promptsgo: %w", err)
	}
	return c, nil
}

// Search filters records by c and ranks the survivors. The result is a new slice.
func Search(records []Prompt, c Criteria, now time.Time) []Prompt {
	return domsearch.Run(records, &c, now)
}

// SearchWithRatio is Search with a custom share of query words the fuzzy
// fallback must accept (0 selects the default 0.7).
func SearchWithRatio(records []Prompt, c Criteria, now time.Time, ratio float64) []Prompt {
	p := domsearch.Pipeline{Filter: filter.Stage{WordRatio: ratio}}
	return p.Run(records, &c, now)
}

// FuzzyMatch reports whether at least 70% of the words of query approximately
// occur in text, using the same matcher as the search fallback.
func FuzzyMatch(query, text string) bool {
	return fuzzy.MatchWords(query, text, fuzzy.DefaultWordRatio)
}

// LoadCatalog reads prompts from a YAML, JSON or Parquet catalog file.
func LoadCatalog(path string) ([]Prompt, error) {
	repo, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("promptsgo: %w", err)
	}
	return repo.List(context.Background())
}
