package chi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
)

// SearchPromptsParams are the query parameters of GET /prompts.
type SearchPromptsParams struct {
	Q          *string
	Types      *[]string
	Models     *[]string
	Tags       *[]string
	Categories *[]string
	Author     *string
	MinHearts  *int
	MaxHearts  *int
	From       *string
	To         *string
	Sort       *string
	Limit      *int
	Cursor     *string
	Facets     *bool
}

// SuggestPromptsParams are the query parameters of GET /prompts/suggest.
type SuggestPromptsParams struct {
	Q     *string
	Limit *int
}

// GetUsageParams are the query parameters of GET /usage.
type GetUsageParams struct {
	Period *string
}

// InvalidParamFormatError reports a query or path parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

type queryBinding struct {
	name string
	dest any
}

func bindQuery(q url.Values, bindings ...queryBinding) error {
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return &InvalidParamFormatError{ParamName: b.name, Err: err}
		}
	}
	return nil
}

func bindSearchParams(r *http.Request) (SearchPromptsParams, error) {
	var p SearchPromptsParams
	err := bindQuery(r.URL.Query(),
		queryBinding{"q", &p.Q},
		queryBinding{"types", &p.Types},
		queryBinding{"models", &p.Models},
		queryBinding{"tags", &p.Tags},
		queryBinding{"categories", &p.Categories},
		queryBinding{"author", &p.Author},
		queryBinding{"min_hearts", &p.MinHearts},
		queryBinding{"max_hearts", &p.MaxHearts},
		queryBinding{"from", &p.From},
		queryBinding{"to", &p.To},
		queryBinding{"sort", &p.Sort},
		queryBinding{"limit", &p.Limit},
		queryBinding{"cursor", &p.Cursor},
		queryBinding{"facets", &p.Facets},
	)
	return p, err
}

func bindSuggestParams(r *http.Request) (SuggestPromptsParams, error) {
	var p SuggestPromptsParams
	err := bindQuery(r.URL.Query(),
		queryBinding{"q", &p.Q},
		queryBinding{"limit", &p.Limit},
	)
	return p, err
}

func bindUsageParams(r *http.Request) (GetUsageParams, error) {
	var p GetUsageParams
	err := bindQuery(r.URL.Query(), queryBinding{"period", &p.Period})
	return p, err
}

// bindPathParam binds a required simple-style path parameter.
func bindPathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return v, nil
}

// toCriteriaParams converts bound query parameters. Set filters accept repeated
// and comma-separated values. A date-only "to" covers that whole day.
func (p *SearchPromptsParams) toCriteriaParams() (criteria.Params, error) {
	cp := criteria.Params{
		Query:      deref(p.Q),
		Types:      splitList(p.Types),
		Models:     splitList(p.Models),
		Tags:       splitList(p.Tags),
		Categories: splitList(p.Categories),
		Author:     deref(p.Author),
		MinHearts:  p.MinHearts,
		MaxHearts:  p.MaxHearts,
		SortBy:     deref(p.Sort),
	}
	var err error
	if cp.From, err = criteria.ParseDateBound("from", deref(p.From), false); err != nil {
		return criteria.Params{}, err
	}
	if cp.To, err = criteria.ParseDateBound("to", deref(p.To), true); err != nil {
		return criteria.Params{}, err
	}
	return cp, nil
}

func splitList(values *[]string) []string {
	if values == nil {
		return nil
	}
	var out []string
	for _, v := range *values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseIfMatch reads an expected revision from If-Match. Absent or "*" means no check.
func parseIfMatch(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	rev, err := strconv.Atoi(raw)
	if err != nil || rev <= 0 {
		return 0, fmt.Errorf("If-Match must hold a positive revision, got %q", r.Header.Get("If-Match"))
	}
	return rev, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
