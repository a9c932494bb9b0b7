package engagement

import (
	"context"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Reactions stores per-viewer reaction sets.
type Reactions interface {
	Add(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error)
	Remove(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error)
	Members(ctx context.Context, viewer string, kind domprompt.Reaction) ([]string, error)
	Has(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error)
}

// Counters reads prompts and moves their engagement counters.
type Counters interface {
	Get(ctx context.Context, id string) (domprompt.Prompt, error)
	Stats(ctx context.Context, id string) (domprompt.Stats, error)
	IncrStat(ctx context.Context, id, field string, delta int64) (int64, error)
}
