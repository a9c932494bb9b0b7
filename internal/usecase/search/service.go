package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	domsearch "github.com/promptsgo/promptsgo/internal/domain/search"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	"github.com/promptsgo/promptsgo/internal/domain/search/facet"
	"github.com/promptsgo/promptsgo/internal/domain/search/filter"
	"github.com/promptsgo/promptsgo/internal/domain/search/page"
	"github.com/promptsgo/promptsgo/internal/logger"
	"github.com/promptsgo/promptsgo/internal/metrics"
)

// DefaultSuggestLimit caps Suggest when the caller passes no limit.
const DefaultSuggestLimit = 8

var flagReactions = []domprompt.Reaction{domprompt.Heart, domprompt.Save, domprompt.Fork}

// Request is a catalog search.
type Request struct {
	Criteria criteria.Criteria
	Cursor   string
	Limit    int
	Facets   bool
}

// Result is one page of ranked prompts.
type Result struct {
	Items      []domprompt.Prompt
	Total      int
	Limit      int
	NextCursor string
	Facets     *facet.Facets
}

// Suggestion is an autocomplete candidate for the search box.
type Suggestion struct {
	Text string
	Kind string // "title" or "tag"
	Slug string // set for titles
}

// Service searches the prompt catalog on behalf of a viewer.
type Service struct {
	catalog  Catalog
	flags    FlagSource
	pipeline domsearch.Pipeline
	clock    func() time.Time
	defLimit int
	maxLimit int
	topTags  int
	suggest  int
}

// New creates a search service. flags can be nil (anonymous-only callers such as the CLI).
func New(catalog Catalog, flags FlagSource) *Service {
	return &Service{
		catalog:  catalog,
		flags:    flags,
		clock:    time.Now,
		defLimit: page.DefaultLimit,
		maxLimit: page.MaxLimit,
		topTags:  facet.DefaultTopTags,
		suggest:  DefaultSuggestLimit,
	}
}

// WithClock overrides the clock used for age-based ranking.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithWordRatio sets the share of query words the fuzzy fallback must match.
func (s *Service) WithWordRatio(ratio float64) *Service {
	s.pipeline = domsearch.Pipeline{Filter: filter.Stage{WordRatio: ratio}}
	return s
}

// WithPageSizes sets the default and maximum page sizes.
func (s *Service) WithPageSizes(defLimit, maxLimit int) *Service {
	if defLimit > 0 {
		s.defLimit = defLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// WithTopTags limits the tag facet.
func (s *Service) WithTopTags(n int) *Service {
	if n > 0 {
		s.topTags = n
	}
	return s
}

// WithSuggestLimit sets how many suggestions Suggest returns when the caller passes no limit.
func (s *Service) WithSuggestLimit(n int) *Service {
	if n > 0 {
		s.suggest = n
	}
	return s
}

// Search filters and ranks the catalog visible to the viewer in ctx and returns one page.
func (s *Service) Search(ctx context.Context, req *Request) (Result, error) {
	start := time.Now()
	c := &req.Criteria

	pr, err := page.New(req.Cursor, req.Limit, s.defLimit, s.maxLimit)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	viewer := domain.ViewerFromContext(ctx)
	records, flags, err := s.load(ctx, viewer)
	if err != nil {
		return Result{}, err
	}
	metrics.CatalogSize.Set(float64(len(records)))

	visible := records[:0:0]
	for i := range records {
		if records[i].VisibleTo(viewer) {
			visible = append(visible, records[i])
		}
	}

	ranked := s.pipeline.Run(visible, c, s.clock())

	res := Result{Total: len(ranked), Limit: pr.Limit()}
	if req.Facets {
		f := facet.Compute(ranked, s.topTags)
		res.Facets = &f
	}

	items, next := page.Slice(ranked, pr)
	res.NextCursor = next
	res.Items = make([]domprompt.Prompt, len(items))
	for i := range items {
		res.Items[i] = items[i].Clone()
		flags.apply(&res.Items[i])
	}

	sortLabel := string(c.SortBy())
	metrics.SearchDuration.WithLabelValues(sortLabel).Observe(time.Since(start).Seconds())
	metrics.SearchResults.WithLabelValues(sortLabel).Observe(float64(res.Total))

	logger.FromContext(ctx).Debug("Catalog searched",
		zap.String("query", c.Query()),
		zap.String("sort", sortLabel),
		zap.Int("catalog", len(records)),
		zap.Int("visible", len(visible)),
		zap.Int("matched", res.Total),
		zap.Int("offset", pr.Offset()),
		zap.Int("returned", len(res.Items)),
		zap.Duration("duration", time.Since(start)),
	)

	return res, nil
}

// load fetches the catalog and, for a known viewer, their reaction sets concurrently.
func (s *Service) load(ctx context.Context, viewer string) ([]domprompt.Prompt, viewerFlags, error) {
	g, gctx := errgroup.WithContext(ctx)

	var records []domprompt.Prompt
	g.Go(func() error {
		var err error
		if records, err = s.catalog.List(gctx); err != nil {
			return fmt.Errorf("list catalog: %w", err)
		}
		return nil
	})

	sets := make([][]string, len(flagReactions))
	if viewer != "" && s.flags != nil {
		for i, kind := range flagReactions {
			g.Go(func() error {
				ids, err := s.flags.Members(gctx, viewer, kind)
				if err != nil {
					return fmt.Errorf("load %s: %w", kind, err)
				}
				sets[i] = ids
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, viewerFlags{}, err //nolint:wrapcheck // wrapped inside the group
	}
	return records, newViewerFlags(sets), nil
}

// Suggest returns up to limit distinct titles and tags matching prefix, best match first.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = s.suggest
	}

	records, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	src := newSuggestionSource(records, domain.ViewerFromContext(ctx))
	matches := fuzzy.FindFrom(prefix, src)

	out := make([]Suggestion, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, src[m.Index])
	}
	return out, nil
}

// viewerFlags holds one id set per flag reaction, indexed like flagReactions.
type viewerFlags struct {
	sets []map[string]struct{}
}

func newViewerFlags(lists [][]string) viewerFlags {
	f := viewerFlags{sets: make([]map[string]struct{}, len(lists))}
	for i, ids := range lists {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		f.sets[i] = set
	}
	return f
}

func (f viewerFlags) apply(p *domprompt.Prompt) {
	for i, set := range f.sets {
		_, ok := set[p.ID]
		p.Flags.Set(flagReactions[i], ok)
	}
}

// suggestionSource implements fuzzy.Source over distinct titles and tags.
type suggestionSource []Suggestion

func newSuggestionSource(records []domprompt.Prompt, viewer string) suggestionSource {
	seen := make(map[string]struct{})
	var src suggestionSource
	add := func(sg Suggestion) {
		key := sg.Kind + "\x00" + strings.ToLower(sg.Text)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		src = append(src, sg)
	}
	for i := range records {
		p := &records[i]
		if !p.VisibleTo(viewer) {
			continue
		}
		add(Suggestion{Text: p.Title, Kind: "title", Slug: p.Slug})
		for _, t := range p.Tags {
			add(Suggestion{Text: t, Kind: "tag"})
		}
	}
	return src
}

func (s suggestionSource) String(i int) string { return s[i].Text }

func (s suggestionSource) Len() int { return len(s) }
