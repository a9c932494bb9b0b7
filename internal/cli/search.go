package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptsgo/promptsgo/internal/domain"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	"github.com/promptsgo/promptsgo/internal/repository/catalog"
	reprompt "github.com/promptsgo/promptsgo/internal/repository/prompt"
	searchuc "github.com/promptsgo/promptsgo/internal/usecase/search"
)

type searchFlags struct {
	query      string
	types      []string
	models     []string
	tags       []string
	categories []string
	author     string
	minHearts  int
	maxHearts  int
	from       string
	to         string
	sort       string
	limit      int
	cursor     string
	viewer     string
}

// searchOutput is the JSON form of a search.
type searchOutput struct {
	Total      int               `json:"total"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Items      []reprompt.Record `json:"items"`
}

func (a *app) newSearchCmd() *cobra.Command {
	f := &searchFlags{}
	c := &cobra.Command{
		Use:   "search <catalog>",
		Short: "Filter and rank a catalog file",
		Long: `Filter and rank the prompts of a YAML, JSON or Parquet catalog file.

Set filters (--type, --model, --tag, --category) accept repeated or comma-separated values.
Dates accept RFC 3339 timestamps or YYYY-MM-DD; a bare --to date covers the whole day.
Sort: relevance, trending, latest, most_liked, most_forked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args[0], f)
		},
	}
	fl := c.Flags()
	fl.StringVarP(&f.query, "query", "q", "", "Text query")
	fl.StringSliceVarP(&f.types, "type", "t", nil, "Prompt types (text, image, code, agent, chain)")
	fl.StringSliceVar(&f.models, "model", nil, "Compatible models")
	fl.StringSliceVar(&f.tags, "tag", nil, "Tags")
	fl.StringSliceVar(&f.categories, "category", nil, "Categories")
	fl.StringVar(&f.author, "author", "", "Exact author username or part of the display name")
	fl.IntVar(&f.minHearts, "min-hearts", criteria.DefaultMinHearts, "Minimum hearts")
	fl.IntVar(&f.maxHearts, "max-hearts", criteria.DefaultMaxHearts, "Maximum hearts")
	fl.StringVar(&f.from, "from", "", "Created at or after")
	fl.StringVar(&f.to, "to", "", "Created at or before")
	fl.StringVarP(&f.sort, "sort", "s", "", "Sort order (default relevance with a query, latest otherwise)")
	fl.IntVarP(&f.limit, "limit", "n", 20, "Page size")
	fl.StringVar(&f.cursor, "cursor", "", "Cursor of the page to show")
	fl.StringVar(&f.viewer, "viewer", "", "Viewer id, to include their private prompts")
	return c
}

func (a *app) runSearch(cmd *cobra.Command, path string, f *searchFlags) error {
	repo, err := catalog.Load(path)
	if err != nil {
		return err
	}

	p := criteria.Params{
		Query:      f.query,
		Types:      f.types,
		Models:     f.models,
		Tags:       f.tags,
		Categories: f.categories,
		Author:     f.author,
		SortBy:     f.sort,
	}
	if cmd.Flags().Changed("min-hearts") {
		p.MinHearts = &f.minHearts
	}
	if cmd.Flags().Changed("max-hearts") {
		p.MaxHearts = &f.maxHearts
	}
	if p.From, err = criteria.ParseDateBound("from", f.from, false); err != nil {
		return err
	}
	if p.To, err = criteria.ParseDateBound("to", f.to, true); err != nil {
		return err
	}
	c, err := criteria.New(p)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	ctx := domain.ContextWithViewer(cmd.Context(), f.viewer)
	res, err := searchuc.New(repo, nil).
		WithClock(a.clock).
		Search(ctx, &searchuc.Request{Criteria: c, Cursor: f.cursor, Limit: f.limit})
	if err != nil {
		return fmt.Errorf("search %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if a.json() {
		items := make([]reprompt.Record, len(res.Items))
		for i := range res.Items {
			items[i] = reprompt.ToRecord(&res.Items[i])
		}
		return printJSON(out, searchOutput{Total: res.Total, NextCursor: res.NextCursor, Items: items})
	}

	if res.Total == 0 {
		_, err := fmt.Fprintln(out, "No prompts match.")
		return err
	}
	rows := make([][]string, len(res.Items))
	for i := range res.Items {
		it := &res.Items[i]
		rows[i] = []string{
			it.Slug,
			string(it.Type),
			strconv.Itoa(it.Stats.Hearts),
			it.Title,
			it.Author.Username,
			strings.SplitN(it.CreatedAt, "T", 2)[0],
		}
	}
	if err := printTable(out, []string{"SLUG", "TYPE", "HEARTS", "TITLE", "AUTHOR", "CREATED"}, rows); err != nil {
		return err
	}
	footer := fmt.Sprintf("%d of %d prompts", len(res.Items), res.Total)
	if res.NextCursor != "" {
		footer += fmt.Sprintf(" (next: --cursor %s)", res.NextCursor)
	}
	_, err = fmt.Fprintln(out, footer)
	return err
}
