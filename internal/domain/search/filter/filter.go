// Package filter narrows prompt records by a search criteria.
// All active constraints must hold; values within one set are alternatives.
package filter

import (
	"strings"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	"github.com/promptsgo/promptsgo/internal/domain/search/fuzzy"
)

// Stage is a configured filter. The zero value uses fuzzy.DefaultWordRatio.
type Stage struct {
	// WordRatio is the share of query words the fuzzy fallback must accept.
	WordRatio float64
}

// Apply returns the records matching c with the default fuzzy ratio.
func Apply(records []prompt.Prompt, c *criteria.Criteria) []prompt.Prompt {
	return Stage{}.Apply(records, c)
}

// Apply returns a new slice with the records matching c, in input order.
// Input records are never modified.
func (s Stage) Apply(records []prompt.Prompt, c *criteria.Criteria) []prompt.Prompt {
	out := make([]prompt.Prompt, 0, len(records))
	for i := range records {
		if s.Matches(&records[i], c) {
			out = append(out, records[i])
		}
	}
	return out
}

// Matches reports whether a single record satisfies every active constraint.
func (s Stage) Matches(p *prompt.Prompt, c *criteria.Criteria) bool {
	return MatchesType(p, c) &&
		MatchesModels(p, c) &&
		MatchesTags(p, c) &&
		MatchesCategory(p, c) &&
		MatchesAuthor(p, c.Author()) &&
		MatchesHearts(p, c) &&
		MatchesDate(p, c) &&
		s.MatchesQuery(p, c.Query())
}

// Matches is Stage.Matches with the default fuzzy ratio.
func Matches(p *prompt.Prompt, c *criteria.Criteria) bool {
	return Stage{}.Matches(p, c)
}

// MatchesQuery is Stage.MatchesQuery with the default fuzzy ratio.
func MatchesQuery(p *prompt.Prompt, query string) bool {
	return Stage{}.MatchesQuery(p, query)
}

// MatchesQuery reports whether the lowercase query is a substring of any
// searchable field, or enough of its words fuzzy-match the joined text.
// A blank query matches everything.
func (s Stage) MatchesQuery(p *prompt.Prompt, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range searchableFields(p) {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return fuzzy.MatchWords(q, SearchableText(p), s.WordRatio)
}

// SearchableText joins every field the query is matched against.
func SearchableText(p *prompt.Prompt) string {
	return strings.Join(searchableFields(p), " ")
}

func searchableFields(p *prompt.Prompt) []string {
	fields := make([]string, 0, 6+len(p.Tags))
	fields = append(fields, p.Title, p.Description, p.Content)
	fields = append(fields, p.Tags...)
	return append(fields, p.Author.Name, p.Author.Username, p.Category)
}

// MatchesAuthor accepts an exact username or a case-insensitive substring of the author name.
func MatchesAuthor(p *prompt.Prompt, author string) bool {
	if author == "" {
		return true
	}
	if p.Author.Username == author {
		return true
	}
	return strings.Contains(strings.ToLower(p.Author.Name), strings.ToLower(author))
}

// MatchesHearts excludes a record only when it falls outside a narrowed bound.
func MatchesHearts(p *prompt.Prompt, c *criteria.Criteria) bool {
	h := p.Stats.Hearts
	if c.MinHeartsNarrowed() && h < c.MinHearts() {
		return false
	}
	if c.MaxHeartsNarrowed() && h > c.MaxHearts() {
		return false
	}
	return true
}

// MatchesDate checks createdAt against the inclusive range.
// With a range set, an unparseable createdAt never matches.
func MatchesDate(p *prompt.Prompt, c *criteria.Criteria) bool {
	if !c.HasDateRange() {
		return true
	}
	created, ok := p.CreatedTime()
	if !ok {
		return false
	}
	if from, ok := c.From(); ok && created.Before(from) {
		return false
	}
	if to, ok := c.To(); ok && created.After(to) {
		return false
	}
	return true
}

// MatchesType tests the record type against the type set.
func MatchesType(p *prompt.Prompt, c *criteria.Criteria) bool {
	return c.Types().IsEmpty() || c.Types().Has(string(p.Type))
}

// MatchesModels passes records listing at least one of the selected models.
func MatchesModels(p *prompt.Prompt, c *criteria.Criteria) bool {
	return c.Models().IsEmpty() || c.Models().HasAny(p.ModelCompatibility)
}

// MatchesTags passes records carrying at least one of the selected tags.
func MatchesTags(p *prompt.Prompt, c *criteria.Criteria) bool {
	return c.Tags().IsEmpty() || c.Tags().HasAny(p.Tags)
}

// MatchesCategory tests the record category against the category set.
func MatchesCategory(p *prompt.Prompt, c *criteria.Criteria) bool {
	return c.Categories().IsEmpty() || c.Categories().Has(p.Category)
}
