// Package playground renders prompt templates and runs them against a chat completion model.
package playground

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/template"
	"github.com/promptsgo/promptsgo/internal/logger"
)

// Options are the completion defaults applied to every run.
type Options struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature float32
}

// Rendered is a template with values substituted.
type Rendered struct {
	Text      string
	Missing   []string
	Variables []template.Variable
}

// Usage is the token usage of a single run.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RunResult is the model output of a playground run.
type RunResult struct {
	PromptID     string
	Model        string
	Input        string
	Output       string
	FinishReason string
	Usage        Usage
}

// Service renders and runs prompts.
type Service struct {
	prompts   PromptReader
	completer domain.Completer
	opts      Options
}

// New creates a playground service. A nil completer disables Run; Render keeps working.
func New(prompts PromptReader, completer domain.Completer, opts Options) *Service {
	return &Service{prompts: prompts, completer: completer, opts: opts}
}

// Enabled reports whether a completion provider is configured.
func (s *Service) Enabled() bool { return s.completer != nil }

// Render fills the prompt's placeholders without calling a model.
// Missing variables are reported, not treated as an error.
func (s *Service) Render(ctx context.Context, promptID string, values map[string]string) (Rendered, error) {
	p, err := s.load(ctx, promptID)
	if err != nil {
		return Rendered{}, err
	}
	text, missing := template.Render(p.Content, values)
	return Rendered{
		Text:      text,
		Missing:   missing,
		Variables: template.Variables(p.Content),
	}, nil
}

// Run renders the prompt and sends it to the completion model.
// An empty model selects the configured default, or the prompt's first compatible model
// when the default is not compatible.
func (s *Service) Run(
	ctx context.Context, promptID string, values map[string]string, model string,
) (RunResult, error) {
	if s.completer == nil {
		return RunResult{}, domain.ErrPlaygroundDisabled
	}

	p, err := s.load(ctx, promptID)
	if err != nil {
		return RunResult{}, err
	}
	if p.Type == domprompt.TypeImage {
		return RunResult{}, fmt.Errorf("%w: image prompts cannot run in the playground", domain.ErrInvalidPrompt)
	}

	model, err = s.selectModel(&p, model)
	if err != nil {
		return RunResult{}, err
	}

	input, missing := template.Render(p.Content, values)
	if len(missing) > 0 {
		return RunResult{}, fmt.Errorf("%w: %s", domain.ErrMissingVariables, strings.Join(missing, ", "))
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model:       model,
		System:      s.opts.System,
		Prompt:      input,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("run prompt %s: %w", promptID, err)
	}

	if res.Model == "" {
		res.Model = model
	}
	domain.UsageFromContext(ctx).Add(res.Model, res.PromptTokens, res.CompletionTokens, res.TotalTokens)

	logger.FromContext(ctx).Info("Playground run completed",
		zap.String("prompt_id", promptID),
		zap.String("model", res.Model),
		zap.Int("total_tokens", res.TotalTokens),
	)

	return RunResult{
		PromptID:     p.ID,
		Model:        res.Model,
		Input:        input,
		Output:       res.Text,
		FinishReason: res.FinishReason,
		Usage: Usage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			TotalTokens:      res.TotalTokens,
		},
	}, nil
}

func (s *Service) load(ctx context.Context, promptID string) (domprompt.Prompt, error) {
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("load prompt: %w", err)
	}
	if !p.VisibleTo(domain.ViewerFromContext(ctx)) {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (s *Service) selectModel(p *domprompt.Prompt, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		if !p.SupportsModel(requested) {
			return "", fmt.Errorf("%w: %q is not listed for this prompt", domain.ErrUnsupportedModel, requested)
		}
		return requested, nil
	}
	if s.opts.Model != "" && p.SupportsModel(s.opts.Model) {
		return s.opts.Model, nil
	}
	if len(p.ModelCompatibility) > 0 {
		return p.ModelCompatibility[0], nil
	}
	return "", fmt.Errorf("%w: no model configured", domain.ErrUnsupportedModel)
}
