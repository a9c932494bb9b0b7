package chi

import (
	"time"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/search/facet"
	"github.com/promptsgo/promptsgo/internal/domain/template"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodePromptNotFound     ErrorResponseCode = "prompt_not_found"
	ErrorResponseCodeSlugTaken          ErrorResponseCode = "slug_taken"
	ErrorResponseCodeForbidden          ErrorResponseCode = "forbidden"
	ErrorResponseCodeRevisionConflict   ErrorResponseCode = "revision_conflict"
	ErrorResponseCodeQuotaExceeded      ErrorResponseCode = "quota_exceeded"
	ErrorResponseCodeProviderError      ErrorResponseCode = "provider_error"
	ErrorResponseCodePlaygroundDisabled ErrorResponseCode = "playground_disabled"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
	ErrorResponseCodeRouteNotFound      ErrorResponseCode = "not_found"
	ErrorResponseCodeMethodNotAllowed   ErrorResponseCode = "method_not_allowed"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code            ErrorResponseCode `json:"code"`
	Message         string            `json:"message"`
	CurrentRevision *int              `json:"current_revision,omitempty"`
}

// Author is the public author of a prompt.
type Author struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Stats are the engagement counters of a prompt.
type Stats struct {
	Hearts       int `json:"hearts"`
	SaveCount    int `json:"save_count"`
	ForkCount    int `json:"fork_count"`
	ViewCount    int `json:"view_count"`
	CommentCount int `json:"comment_count"`
}

// PromptResponse is a prompt as seen by the caller, with session flags.
type PromptResponse struct {
	ID                 string   `json:"id"`
	Slug               string   `json:"slug"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Content            string   `json:"content"`
	Type               string   `json:"type"`
	Category           string   `json:"category,omitempty"`
	Tags               []string `json:"tags"`
	ModelCompatibility []string `json:"model_compatibility"`
	Author             Author   `json:"author"`
	Stats
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	ForkedFrom string `json:"forked_from,omitempty"`
	Visibility string `json:"visibility"`
	Revision   int    `json:"revision"`
	IsHearted  bool   `json:"is_hearted"`
	IsSaved    bool   `json:"is_saved"`
	IsForked   bool   `json:"is_forked"`
	IsOwner    bool   `json:"is_owner"`
}

// PromptListResponse is one page of search results.
type PromptListResponse struct {
	Items      []PromptResponse `json:"items"`
	Total      int              `json:"total"`
	Limit      int              `json:"limit"`
	HasMore    bool             `json:"has_more"`
	NextCursor *string          `json:"next_cursor,omitempty"`
	Facets     *facet.Facets    `json:"facets,omitempty"`
}

// CreatePromptRequest is the body of POST /prompts.
type CreatePromptRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Content            string   `json:"content"`
	Type               string   `json:"type"`
	Category           string   `json:"category"`
	Tags               []string `json:"tags"`
	ModelCompatibility []string `json:"model_compatibility"`
	Visibility         string   `json:"visibility"`
	Author             *Author  `json:"author"`
}

// PatchPromptRequest is the body of PATCH /prompts/{id}. Absent fields are unchanged.
type PatchPromptRequest struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Content            *string   `json:"content"`
	Type               *string   `json:"type"`
	Category           *string   `json:"category"`
	Tags               *[]string `json:"tags"`
	ModelCompatibility *[]string `json:"model_compatibility"`
	Visibility         *string   `json:"visibility"`
}

// ForkPromptRequest is the optional body of POST /prompts/{id}/fork.
type ForkPromptRequest struct {
	Author *Author `json:"author"`
}

// SuggestionResponse is one autocomplete candidate.
type SuggestionResponse struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
	Slug string `json:"slug,omitempty"`
}

// SuggestionListResponse wraps suggestions.
type SuggestionListResponse struct {
	Items []SuggestionResponse `json:"items"`
}

// RenderRequest is the body of POST /prompts/{id}/render.
type RenderRequest struct {
	Variables map[string]string `json:"variables"`
}

// RenderResponse is a rendered template.
type RenderResponse struct {
	Text      string              `json:"text"`
	Missing   []string            `json:"missing"`
	Variables []template.Variable `json:"variables"`
}

// RunRequest is the body of POST /prompts/{id}/run.
type RunRequest struct {
	Variables map[string]string `json:"variables"`
	Model     string            `json:"model"`
}

// TokenUsage is the token usage of a playground run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RunResponse is the model output of a playground run.
type RunResponse struct {
	PromptID     string     `json:"prompt_id"`
	Model        string     `json:"model"`
	Input        string     `json:"input"`
	Output       string     `json:"output"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        TokenUsage `json:"usage"`
}

// BudgetStatus is the token budget of a usage period.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// ReactionsResponse lists the prompt ids the viewer hearted, saved and forked.
type ReactionsResponse struct {
	Hearted []string `json:"hearted"`
	Saved   []string `json:"saved"`
	Forked  []string `json:"forked"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Tokens        int64        `json:"tokens"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func promptToResponse(p *domprompt.Prompt, viewer string) PromptResponse {
	return PromptResponse{
		ID:                 p.ID,
		Slug:               p.Slug,
		Title:              p.Title,
		Description:        p.Description,
		Content:            p.Content,
		Type:               string(p.Type),
		Category:           p.Category,
		Tags:               nonNil(p.Tags),
		ModelCompatibility: nonNil(p.ModelCompatibility),
		Author:             Author{Name: p.Author.Name, Username: p.Author.Username},
		Stats:              statsToResponse(p.Stats),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		ForkedFrom:         p.ForkedFrom,
		Visibility:         string(p.Visibility),
		Revision:           p.Revision,
		IsHearted:          p.Flags.Hearted,
		IsSaved:            p.Flags.Saved,
		IsForked:           p.Flags.Forked,
		IsOwner:            p.OwnedBy(viewer),
	}
}

func statsToResponse(s domprompt.Stats) Stats {
	return Stats{
		Hearts:       s.Hearts,
		SaveCount:    s.Saves,
		ForkCount:    s.Forks,
		ViewCount:    s.Views,
		CommentCount: s.Comments,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
