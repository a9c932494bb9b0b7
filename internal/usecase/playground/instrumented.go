package playground

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	"github.com/promptsgo/promptsgo/internal/metrics"
)

// InstrumentedCompleter wraps a Completer with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
// This layer owns budget tracking and the remaining-budget gauge only.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer with budget and observability.
// A nil budget disables enforcement.
func NewInstrumentedCompleter(
	inner domain.Completer, provider string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates to the inner completer, and records usage.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Error("Budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", req.Model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := c.inner.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", req.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	if c.budget != nil && result.TotalTokens > 0 {
		c.budget.Record(int64(result.TotalTokens))
		remaining := metrics.CompletionBudgetTokensRemaining
		remaining.WithLabelValues(c.provider, "daily").Set(float64(c.budget.RemainingDaily()))
		remaining.WithLabelValues(c.provider, "monthly").Set(float64(c.budget.RemainingMonthly()))
	}

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", result.Model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", result.FinishReason),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
