// Package search is the prompt search and ranking routine: a filter stage
// followed by a ranking stage over an in-memory record set.
//
// The routine is pure. It owns no state, performs no I/O and reads the clock
// only through the now argument.
package search

import (
	"time"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	"github.com/promptsgo/promptsgo/internal/domain/search/filter"
	"github.com/promptsgo/promptsgo/internal/domain/search/rank"
)

// Pipeline runs filter then rank. The zero value uses the default fuzzy ratio.
type Pipeline struct {
	Filter filter.Stage
}

// Run filters records by c and orders the survivors by c.SortBy().
// The result is a new slice; records are not modified.
func (p Pipeline) Run(records []prompt.Prompt, c *criteria.Criteria, now time.Time) []prompt.Prompt {
	matched := p.Filter.Apply(records, c)
	return rank.Sort(matched, c.SortBy(), c.Query(), now)
}

// Run is Pipeline.Run with defaults.
func Run(records []prompt.Prompt, c *criteria.Criteria, now time.Time) []prompt.Prompt {
	return Pipeline{}.Run(records, c, now)
}
