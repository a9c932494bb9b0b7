// Package rank orders filtered prompt records by a single strategy.
package rank

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/search/sortby"
)

// Relevance weights per matched field.
const (
	TitleWeight       = 10
	DescriptionWeight = 5
	ContentWeight     = 1
	TagWeight         = 3
)

var scoredStrategies = []sortby.SortBy{sortby.MostLiked, sortby.MostForked, sortby.Trending, sortby.Relevance}

type scored struct {
	record  prompt.Prompt
	score   float64
	created time.Time
}

// Sort returns a new slice ordered by the strategy, highest first.
// Ties keep their input order. Relevance without a query falls back to latest.
func Sort(records []prompt.Prompt, by sortby.SortBy, query string, now time.Time) []prompt.Prompt {
	q := strings.ToLower(strings.TrimSpace(query))
	if by == sortby.Relevance && q == "" {
		by = sortby.Latest
	}

	items := make([]scored, len(records))
	for i := range records {
		p := &records[i]
		it := scored{record: *p}
		switch by {
		case sortby.MostLiked:
			it.score = float64(p.Stats.Hearts)
		case sortby.MostForked:
			it.score = float64(p.Stats.Forks)
		case sortby.Trending:
			it.score = Trending(p, now)
		case sortby.Relevance:
			it.score = float64(Relevance(p, q))
		default:
			it.created = Latest(p)
		}
		items[i] = it
	}

	byTime := !slices.Contains(scoredStrategies, by)
	slices.SortStableFunc(items, func(a, b scored) int {
		if byTime {
			return b.created.Compare(a.created)
		}
		return cmp.Compare(b.score, a.score)
	})

	out := make([]prompt.Prompt, len(items))
	for i := range items {
		out[i] = items[i].record
	}
	return out
}

// Trending scores weighted engagement divided by age in days plus one.
// An unparseable createdAt counts as age zero; future dates never divide by less than one.
func Trending(p *prompt.Prompt, now time.Time) float64 {
	engagement := float64(p.Stats.Hearts + 2*p.Stats.Saves + 3*p.Stats.Forks)
	age := 0.0
	if created, ok := p.CreatedTime(); ok {
		age = now.Sub(created).Hours() / 24
	}
	return engagement / max(age+1, 1)
}

// Relevance sums field weights for every field containing the lowercase query.
// Tags add TagWeight once regardless of how many match.
func Relevance(p *prompt.Prompt, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	score := 0
	if strings.Contains(strings.ToLower(p.Title), q) {
		score += TitleWeight
	}
	if strings.Contains(strings.ToLower(p.Description), q) {
		score += DescriptionWeight
	}
	if strings.Contains(strings.ToLower(p.Content), q) {
		score += ContentWeight
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			score += TagWeight
			break
		}
	}
	return score
}

// Latest returns the creation time used for recency ordering, or the zero time.
func Latest(p *prompt.Prompt) time.Time {
	t, _ := p.CreatedTime()
	return t
}
