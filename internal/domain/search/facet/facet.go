// Package facet counts classification values across a result set.
package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// DefaultTopTags limits the tag facet.
const DefaultTopTags = 20

// Count is one facet bucket.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are value counts over a filtered record set.
type Facets struct {
	Types      []Count `json:"types"`
	Categories []Count `json:"categories"`
	Models     []Count `json:"models"`
	Tags       []Count `json:"tags"`
}

// Compute counts types, categories, models and the topTags most frequent tags.
// Values are lowercased; buckets sort by count descending then value.
// topTags <= 0 uses DefaultTopTags.
func Compute(records []prompt.Prompt, topTags int) Facets {
	if topTags <= 0 {
		topTags = DefaultTopTags
	}
	types := counter{}
	categories := counter{}
	models := counter{}
	tags := counter{}

	for i := range records {
		p := &records[i]
		types.add(string(p.Type))
		categories.add(p.Category)
		// Per-record dedupe so a record counts once per value.
		models.addOnce(p.ModelCompatibility)
		tags.addOnce(p.Tags)
	}

	return Facets{
		Types:      types.sorted(0),
		Categories: categories.sorted(0),
		Models:     models.sorted(0),
		Tags:       tags.sorted(topTags),
	}
}

type counter map[string]int

func (c counter) add(v string) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return
	}
	c[v]++
}

func (c counter) addOnce(vs []string) {
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		c[v]++
	}
}

func (c counter) sorted(limit int) []Count {
	out := make([]Count, 0, len(c))
	for v, n := range c {
		out = append(out, Count{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if n := cmp.Compare(b.Count, a.Count); n != 0 {
			return n
		}
		return strings.Compare(a.Value, b.Value)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
