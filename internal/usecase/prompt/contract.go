package prompt

import (
	"context"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Repository defines the storage contract for prompts.
type Repository interface {
	ReserveSlug(ctx context.Context, slug, id string) (bool, error)
	ReleaseSlug(ctx context.Context, slug string) error
	ResolveSlug(ctx context.Context, slug string) (string, error)
	Create(ctx context.Context, p *domprompt.Prompt) error
	Save(ctx context.Context, p *domprompt.Prompt) error
	Get(ctx context.Context, id string) (domprompt.Prompt, error)
	Delete(ctx context.Context, p *domprompt.Prompt) error
	IncrStat(ctx context.Context, id, field string, delta int64) (int64, error)
}

// ReactionWriter records a viewer's reaction (used for the fork set).
type ReactionWriter interface {
	Add(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error)
}
