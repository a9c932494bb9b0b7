package engagement

import (
	"context"
	"fmt"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Service records hearts, saves and views.
// Hearts and saves are idempotent per viewer: set membership decides whether the counter moves.
type Service struct {
	reactions Reactions
	counters  Counters
}

// New creates an engagement service.
func New(reactions Reactions, counters Counters) *Service {
	return &Service{reactions: reactions, counters: counters}
}

// Heart marks the prompt as hearted by viewer and returns the updated counters.
func (s *Service) Heart(ctx context.Context, viewer, promptID string) (domprompt.Stats, error) {
	return s.toggle(ctx, viewer, promptID, domprompt.Heart, true)
}

// Unheart removes the viewer's heart.
func (s *Service) Unheart(ctx context.Context, viewer, promptID string) (domprompt.Stats, error) {
	return s.toggle(ctx, viewer, promptID, domprompt.Heart, false)
}

// Save bookmarks the prompt for viewer.
func (s *Service) Save(ctx context.Context, viewer, promptID string) (domprompt.Stats, error) {
	return s.toggle(ctx, viewer, promptID, domprompt.Save, true)
}

// Unsave removes the viewer's bookmark.
func (s *Service) Unsave(ctx context.Context, viewer, promptID string) (domprompt.Stats, error) {
	return s.toggle(ctx, viewer, promptID, domprompt.Save, false)
}

// View counts a view. Anonymous viewers count too.
func (s *Service) View(ctx context.Context, viewer, promptID string) (domprompt.Stats, error) {
	if _, err := s.visible(ctx, viewer, promptID); err != nil {
		return domprompt.Stats{}, err
	}
	if _, err := s.counters.IncrStat(ctx, promptID, domprompt.StatViews, 1); err != nil {
		return domprompt.Stats{}, fmt.Errorf("count view: %w", err)
	}
	return s.stats(ctx, promptID)
}

// Flags returns the prompt ids the viewer hearted, saved and forked.
func (s *Service) Flags(ctx context.Context, viewer string) (map[domprompt.Reaction][]string, error) {
	if viewer == "" {
		return nil, domain.ErrUnauthenticated
	}
	out := make(map[domprompt.Reaction][]string, 3)
	for _, kind := range []domprompt.Reaction{domprompt.Heart, domprompt.Save, domprompt.Fork} {
		ids, err := s.reactions.Members(ctx, viewer, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		out[kind] = ids
	}
	return out, nil
}

// FlagsFor returns the viewer's flags on one prompt. An anonymous viewer has none.
func (s *Service) FlagsFor(ctx context.Context, viewer, promptID string) (domprompt.Flags, error) {
	var f domprompt.Flags
	if viewer == "" {
		return f, nil
	}
	for _, kind := range []domprompt.Reaction{domprompt.Heart, domprompt.Save, domprompt.Fork} {
		ok, err := s.reactions.Has(ctx, viewer, kind, promptID)
		if err != nil {
			return domprompt.Flags{}, fmt.Errorf("check %s: %w", kind, err)
		}
		f.Set(kind, ok)
	}
	return f, nil
}

func (s *Service) toggle(
	ctx context.Context, viewer, promptID string, kind domprompt.Reaction, on bool,
) (domprompt.Stats, error) {
	if viewer == "" {
		return domprompt.Stats{}, domain.ErrUnauthenticated
	}
	if _, err := s.visible(ctx, viewer, promptID); err != nil {
		return domprompt.Stats{}, err
	}

	var (
		changed bool
		err     error
		delta   int64 = 1
	)
	if on {
		changed, err = s.reactions.Add(ctx, viewer, kind, promptID)
	} else {
		changed, err = s.reactions.Remove(ctx, viewer, kind, promptID)
		delta = -1
	}
	if err != nil {
		return domprompt.Stats{}, fmt.Errorf("update %s: %w", kind, err)
	}

	if changed {
		if _, err := s.counters.IncrStat(ctx, promptID, kind.StatField(), delta); err != nil {
			return domprompt.Stats{}, fmt.Errorf("count %s: %w", kind, err)
		}
	}
	return s.stats(ctx, promptID)
}

func (s *Service) visible(ctx context.Context, viewer, promptID string) (domprompt.Prompt, error) {
	p, err := s.counters.Get(ctx, promptID)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	if !p.VisibleTo(viewer) {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (s *Service) stats(ctx context.Context, promptID string) (domprompt.Stats, error) {
	st, err := s.counters.Stats(ctx, promptID)
	if err != nil {
		return domprompt.Stats{}, fmt.Errorf("read stats: %w", err)
	}
	return st, nil
}
