package playground

import (
	"context"
	"time"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// PromptReader loads the prompt to run.
type PromptReader interface {
	Get(ctx context.Context, id string) (domprompt.Prompt, error)
}

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// BudgetStore is the persistence interface for budget counters.
// Add must be safe to repeat: it increments and sets the TTL only on first write.
type BudgetStore interface {
	Add(ctx context.Context, key string, val int64, ttl time.Duration) error
	Load(ctx context.Context, keys ...string) ([]int64, error)
}
