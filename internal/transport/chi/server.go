// Package chi serves the prompt catalog HTTP API on a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/prompt/patch"
	"github.com/promptsgo/promptsgo/internal/domain/search/criteria"
	domusage "github.com/promptsgo/promptsgo/internal/domain/usage"
	engagementuc "github.com/promptsgo/promptsgo/internal/usecase/engagement"
	healthuc "github.com/promptsgo/promptsgo/internal/usecase/health"
	playgrounduc "github.com/promptsgo/promptsgo/internal/usecase/playground"
	promptuc "github.com/promptsgo/promptsgo/internal/usecase/prompt"
	searchuc "github.com/promptsgo/promptsgo/internal/usecase/search"
	usageuc "github.com/promptsgo/promptsgo/internal/usecase/usage"
)

// maxBodyBytes bounds request bodies. Prompt content alone may reach 64 KB.
const maxBodyBytes = 1 << 20

// Server implements the HTTP API handlers.
type Server struct {
	search        *searchuc.Service
	prompts       *promptuc.Service
	engagement    *engagementuc.Service
	playground    *playgrounduc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	prompts *promptuc.Service,
	engagement *engagementuc.Service,
	playground *playgrounduc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		prompts:       prompts,
		engagement:    engagement,
		playground:    playground,
		usage:         usage,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// SearchPrompts handles GET /prompts.
func (s *Server) SearchPrompts(w http.ResponseWriter, r *http.Request, params SearchPromptsParams) {
	cp, err := params.toCriteriaParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	c, err := criteria.New(cp)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), &searchuc.Request{
		Criteria: c,
		Cursor:   deref(params.Cursor),
		Limit:    deref(params.Limit),
		Facets:   deref(params.Facets),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	viewer := domain.ViewerFromContext(r.Context())
	items := make([]PromptResponse, len(res.Items))
	for i := range res.Items {
		items[i] = promptToResponse(&res.Items[i], viewer)
	}

	resp := PromptListResponse{
		Items:   items,
		Total:   res.Total,
		Limit:   res.Limit,
		HasMore: res.NextCursor != "",
		Facets:  res.Facets,
	}
	if res.NextCursor != "" {
		resp.NextCursor = &res.NextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// SuggestPrompts handles GET /prompts/suggest.
func (s *Server) SuggestPrompts(w http.ResponseWriter, r *http.Request, params SuggestPromptsParams) {
	suggestions, err := s.search.Suggest(r.Context(), deref(params.Q), deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]SuggestionResponse, len(suggestions))
	for i, sg := range suggestions {
		items[i] = SuggestionResponse{Text: sg.Text, Kind: sg.Kind, Slug: sg.Slug}
	}
	writeJSON(w, http.StatusOK, SuggestionListResponse{Items: items})
}

// CreatePrompt handles POST /prompts.
func (s *Server) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req CreatePromptRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	viewer := domain.ViewerFromContext(r.Context())
	if viewer == "" {
		s.handleDomainError(w, r, domain.ErrUnauthenticated)
		return
	}

	d := domprompt.Draft{
		Title:              req.Title,
		Description:        req.Description,
		Content:            req.Content,
		Type:               domprompt.Type(req.Type),
		Category:           req.Category,
		Tags:               req.Tags,
		ModelCompatibility: req.ModelCompatibility,
		Author:             authorOrViewer(req.Author, viewer),
		AuthorID:           viewer,
		Visibility:         domprompt.Visibility(req.Visibility),
	}
	if req.Type != "" {
		t, err := domprompt.ParseType(req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
			return
		}
		d.Type = t
	}

	p, err := s.prompts.Create(r.Context(), d)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/prompts/%s", BasePath, p.ID))
	w.Header().Set("ETag", etag(p.Revision))
	writeJSON(w, http.StatusCreated, promptToResponse(&p, viewer))
}

// GetPrompt handles GET /prompts/{id}.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.prompts.Get(r.Context(), id)
	s.writePrompt(w, r, &p, err)
}

// GetPromptBySlug handles GET /prompts/by-slug/{slug}.
func (s *Server) GetPromptBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	p, err := s.prompts.GetBySlug(r.Context(), slug)
	s.writePrompt(w, r, &p, err)
}

func (s *Server) writePrompt(w http.ResponseWriter, r *http.Request, p *domprompt.Prompt, err error) {
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	viewer := domain.ViewerFromContext(r.Context())
	flags, err := s.engagement.FlagsFor(r.Context(), viewer, p.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p.Flags = flags
	w.Header().Set("ETag", etag(p.Revision))
	writeJSON(w, http.StatusOK, promptToResponse(p, viewer))
}

// PatchPrompt handles PATCH /prompts/{id}. If-Match carries the expected revision.
func (s *Server) PatchPrompt(w http.ResponseWriter, r *http.Request, id string) {
	var req PatchPromptRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	expected, err := parseIfMatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}

	p, err := patch.New(patch.Fields{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Type:        req.Type,
		Category:    req.Category,
		Tags:        req.Tags,
		Models:      req.ModelCompatibility,
		Visibility:  req.Visibility,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	viewer := domain.ViewerFromContext(r.Context())
	updated, err := s.prompts.Update(r.Context(), id, viewer, p, expected)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", etag(updated.Revision))
	writeJSON(w, http.StatusOK, promptToResponse(&updated, viewer))
}

// DeletePrompt handles DELETE /prompts/{id}.
func (s *Server) DeletePrompt(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.prompts.Delete(r.Context(), id, domain.ViewerFromContext(r.Context())); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForkPrompt handles POST /prompts/{id}/fork.
func (s *Server) ForkPrompt(w http.ResponseWriter, r *http.Request, id string) {
	var req ForkPromptRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	viewer := domain.ViewerFromContext(r.Context())

	fork, err := s.prompts.Fork(r.Context(), id, authorOrViewer(req.Author, viewer), viewer)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/prompts/%s", BasePath, fork.ID))
	w.Header().Set("ETag", etag(fork.Revision))
	writeJSON(w, http.StatusCreated, promptToResponse(&fork, viewer))
}

// React handles PUT and DELETE on /prompts/{id}/heart and /prompts/{id}/save.
func (s *Server) React(w http.ResponseWriter, r *http.Request, id string, kind domprompt.Reaction, on bool) {
	var toggle func(ctx context.Context, viewer, promptID string) (domprompt.Stats, error)
	switch {
	case kind == domprompt.Heart && on:
		toggle = s.engagement.Heart
	case kind == domprompt.Heart:
		toggle = s.engagement.Unheart
	case kind == domprompt.Save && on:
		toggle = s.engagement.Save
	default:
		toggle = s.engagement.Unsave
	}

	stats, err := toggle(r.Context(), domain.ViewerFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

// RecordView handles POST /prompts/{id}/views.
func (s *Server) RecordView(w http.ResponseWriter, r *http.Request, id string) {
	stats, err := s.engagement.View(r.Context(), domain.ViewerFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

// GetViewerReactions handles GET /me/reactions.
func (s *Server) GetViewerReactions(w http.ResponseWriter, r *http.Request) {
	flags, err := s.engagement.Flags(r.Context(), domain.ViewerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	ids := func(kind domprompt.Reaction) []string {
		out := append([]string{}, flags[kind]...)
		sort.Strings(out)
		return out
	}
	writeJSON(w, http.StatusOK, ReactionsResponse{
		Hearted: ids(domprompt.Heart),
		Saved:   ids(domprompt.Save),
		Forked:  ids(domprompt.Fork),
	})
}

// RenderPrompt handles POST /prompts/{id}/render.
func (s *Server) RenderPrompt(w http.ResponseWriter, r *http.Request, id string) {
	var req RenderRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	out, err := s.playground.Render(r.Context(), id, req.Variables)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{
		Text:      out.Text,
		Missing:   nonNil(out.Missing),
		Variables: out.Variables,
	})
}

// RunPrompt handles POST /prompts/{id}/run.
func (s *Server) RunPrompt(w http.ResponseWriter, r *http.Request, id string) {
	var req RunRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.playground.Run(ctx, id, req.Variables, req.Model)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setCompletionHeaders(w, usage)
	writeJSON(w, http.StatusOK, RunResponse{
		PromptID:     res.PromptID,
		Model:        res.Model,
		Input:        res.Input,
		Output:       res.Output,
		FinishReason: res.FinishReason,
		Usage: TokenUsage{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
		},
	})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	period, err := domusage.ParsePeriod(deref(params.Period))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()

	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Tokens:   report.Tokens(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if !report.PeriodStart().IsZero() {
		start, end := report.PeriodStart(), report.PeriodEnd()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if !b.IsUnlimited() && !b.ResetsAt().IsZero() {
		resetsAt := b.ResetsAt()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setCompletionHeaders(w http.ResponseWriter, usage *domain.CompletionUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Completion-Model", usage.Model)
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

// decodeBody decodes a JSON body into dst. With optional, an empty body is accepted.
// It writes the error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	switch {
	case err == nil:
		return true
	case optional && errors.Is(err, io.EOF):
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeBadRequest, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
	return false
}

func authorOrViewer(a *Author, viewer string) domprompt.Author {
	if a == nil || (a.Name == "" && a.Username == "") {
		return domprompt.Author{Name: viewer, Username: viewer}
	}
	return domprompt.Author{Name: a.Name, Username: a.Username}
}
