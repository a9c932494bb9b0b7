package engagement

import (
	"context"
	"fmt"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// store is the consumer interface for viewer reaction sets (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo keeps per-viewer reaction sets at {prefix}viewer:{viewer}:{reaction}.
type Repo struct {
	store  store
	prefix string
}

// New creates an engagement repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: domain.DefaultKeyPrefix}
}

// WithKeyPrefix overrides the key prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// Add records the reaction. Returns false if it was already present.
func (r *Repo) Add(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error) {
	n, err := r.store.SAdd(ctx, r.key(viewer, kind), promptID)
	if err != nil {
		return false, fmt.Errorf("add %s for %s: %w", kind, viewer, err)
	}
	return n > 0, nil
}

// Remove deletes the reaction. Returns false if it was absent.
func (r *Repo) Remove(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error) {
	n, err := r.store.SRem(ctx, r.key(viewer, kind), promptID)
	if err != nil {
		return false, fmt.Errorf("remove %s for %s: %w", kind, viewer, err)
	}
	return n > 0, nil
}

// Has reports whether the viewer holds the reaction on the prompt.
func (r *Repo) Has(ctx context.Context, viewer string, kind domprompt.Reaction, promptID string) (bool, error) {
	ok, err := r.store.SIsMember(ctx, r.key(viewer, kind), promptID)
	if err != nil {
		return false, fmt.Errorf("check %s for %s: %w", kind, viewer, err)
	}
	return ok, nil
}

// Members returns the prompt ids the viewer reacted to.
func (r *Repo) Members(ctx context.Context, viewer string, kind domprompt.Reaction) ([]string, error) {
	ids, err := r.store.SMembers(ctx, r.key(viewer, kind))
	if err != nil {
		return nil, fmt.Errorf("list %s for %s: %w", kind, viewer, err)
	}
	return ids, nil
}

func (r *Repo) key(viewer string, kind domprompt.Reaction) string {
	return r.prefix + "viewer:" + viewer + ":" + string(kind)
}
