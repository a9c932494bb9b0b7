package search

import (
	"context"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Catalog returns a snapshot of every stored prompt, counters included.
type Catalog interface {
	List(ctx context.Context) ([]domprompt.Prompt, error)
}

// FlagSource returns the prompt ids a viewer has reacted to.
type FlagSource interface {
	Members(ctx context.Context, viewer string, kind domprompt.Reaction) ([]string, error)
}
