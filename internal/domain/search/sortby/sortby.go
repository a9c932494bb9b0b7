package sortby

import (
	"fmt"
	"strings"
)

// SortBy is the ranking strategy.
type SortBy string

// Ranking strategy constants.
const (
	// Relevance scores field hits against the query; falls back to Latest without a query.
	Relevance  SortBy = "relevance"
	Trending   SortBy = "trending"
	Latest     SortBy = "latest"
	MostLiked  SortBy = "mostLiked"
	MostForked SortBy = "mostForked"
)

var aliases = map[string]SortBy{
	"relevance":   Relevance,
	"trending":    Trending,
	"latest":      Latest,
	"newest":      Latest,
	"mostliked":   MostLiked,
	"most_liked":  MostLiked,
	"most-liked":  MostLiked,
	"mostforked":  MostForked,
	"most_forked": MostForked,
	"most-forked": MostForked,
}

// IsValid checks if the strategy is one of the supported values.
func (s SortBy) IsValid() bool {
	return s == Relevance || s == Trending || s == Latest || s == MostLiked || s == MostForked
}

// Parse accepts the wire names plus snake/kebab-case aliases, case-insensitively.
func Parse(s string) (SortBy, error) {
	if v, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid sort: %q", s)
}
