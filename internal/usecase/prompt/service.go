package prompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/prompt/patch"
	"github.com/promptsgo/promptsgo/internal/logger"
)

// MaxSlugAttempts bounds the -2, -3, ... suffix search for a free slug.
const MaxSlugAttempts = 50

// Service manages the prompt catalog: create, read, update, delete and fork.
type Service struct {
	repo      Repository
	reactions ReactionWriter
	clock     func() time.Time
	newID     func() string
}

// New creates a prompt service.
func New(repo Repository, reactions ReactionWriter) *Service {
	return &Service{
		repo:      repo,
		reactions: reactions,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithIDGenerator overrides the prompt id source.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.newID = gen
	return s
}

// Create validates a draft, assigns an id and a unique slug derived from the title, and stores it.
// An empty AuthorID is taken from the viewer in ctx.
func (s *Service) Create(ctx context.Context, d domprompt.Draft) (domprompt.Prompt, error) {
	if d.AuthorID == "" {
		d.AuthorID = domain.ViewerFromContext(ctx)
	}
	if d.AuthorID == "" {
		return domprompt.Prompt{}, domain.ErrUnauthenticated
	}
	if err := domprompt.ValidateDraft(d); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("%w: %w", domain.ErrInvalidPrompt, err)
	}

	id := s.newID()
	slug, err := s.reserveSlug(ctx, domprompt.Slugify(d.Title), id)
	if err != nil {
		return domprompt.Prompt{}, err
	}

	p, err := domprompt.New(id, slug, d, s.clock())
	if err != nil {
		s.releaseSlug(ctx, slug)
		return domprompt.Prompt{}, fmt.Errorf("%w: %w", domain.ErrInvalidPrompt, err)
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		s.releaseSlug(ctx, slug)
		return domprompt.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	logger.FromContext(ctx).Info("Prompt created",
		zap.String("prompt_id", p.ID),
		zap.String("slug", p.Slug),
		zap.String("type", string(p.Type)),
	)
	return p, nil
}

// Get returns a prompt by id. Private prompts of other authors are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (domprompt.Prompt, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	if !p.VisibleTo(domain.ViewerFromContext(ctx)) {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

// GetBySlug resolves a slug and returns the prompt holding it.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domprompt.Prompt, error) {
	id, err := s.repo.ResolveSlug(ctx, slug)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("resolve slug: %w", err)
	}
	return s.Get(ctx, id)
}

// Update applies a patch on behalf of editor. expectedRevision 0 skips the revision check.
// The slug never changes, even when the title does.
func (s *Service) Update(
	ctx context.Context, id, editor string, p patch.Patch, expectedRevision int,
) (domprompt.Prompt, error) {
	current, err := s.owned(ctx, id, editor)
	if err != nil {
		return domprompt.Prompt{}, err
	}
	if expectedRevision > 0 && expectedRevision != current.Revision {
		return domprompt.Prompt{}, domain.NewRevisionConflict(current.Revision)
	}

	updated := p.Apply(&current)
	updated.Revision = current.Revision + 1
	updated.UpdatedAt = s.clock().UTC().Format(time.RFC3339)

	if err := s.repo.Save(ctx, &updated); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("save prompt: %w", err)
	}
	return updated, nil
}

// Delete removes a prompt, its slug reservation and its counters. Author only.
func (s *Service) Delete(ctx context.Context, id, editor string) error {
	current, err := s.owned(ctx, id, editor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, &current); err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	logger.FromContext(ctx).Info("Prompt deleted", zap.String("prompt_id", id))
	return nil
}

// Fork copies a visible prompt into a new one owned by ownerID, bumps the parent's
// fork counter and records the fork in the owner's fork set.
func (s *Service) Fork(
	ctx context.Context, id string, owner domprompt.Author, ownerID string,
) (domprompt.Prompt, error) {
	if ownerID == "" {
		return domprompt.Prompt{}, domain.ErrUnauthenticated
	}
	parent, err := s.Get(domain.ContextWithViewer(ctx, ownerID), id)
	if err != nil {
		return domprompt.Prompt{}, err
	}

	forkID := s.newID()
	slug, err := s.reserveSlug(ctx, domprompt.Slugify(parent.Title), forkID)
	if err != nil {
		return domprompt.Prompt{}, err
	}

	fork := parent.Fork(forkID, slug, owner, ownerID, s.clock())
	if err := s.repo.Create(ctx, &fork); err != nil {
		s.releaseSlug(ctx, slug)
		return domprompt.Prompt{}, fmt.Errorf("create fork: %w", err)
	}

	if _, err := s.repo.IncrStat(ctx, parent.ID, domprompt.Fork.StatField(), 1); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("count fork: %w", err)
	}
	if s.reactions != nil {
		if _, err := s.reactions.Add(ctx, ownerID, domprompt.Fork, parent.ID); err != nil {
			return domprompt.Prompt{}, fmt.Errorf("record fork: %w", err)
		}
	}

	logger.FromContext(ctx).Info("Prompt forked",
		zap.String("prompt_id", fork.ID),
		zap.String("forked_from", parent.ID),
	)
	return fork, nil
}

// ImportResult counts the outcome of Import.
type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// Import stores catalog prompts under their own ids and slugs. Existing ids are skipped
// unless replace is set. A slug held by a different prompt stops the import.
// Counters are written for new prompts only; replacing keeps live counters.
func (s *Service) Import(ctx context.Context, prompts []domprompt.Prompt, replace bool) (ImportResult, error) {
	var res ImportResult
	for i := range prompts {
		p := &prompts[i]
		if p.ID == "" || !domprompt.IsValidSlug(p.Slug) {
			return res, fmt.Errorf("%w: prompt %q has an invalid id or slug %q", domain.ErrInvalidPrompt, p.ID, p.Slug)
		}

		current, err := s.repo.Get(ctx, p.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, domain.ErrPromptNotFound) {
			return res, fmt.Errorf("get prompt %s: %w", p.ID, err)
		}
		if exists && !replace {
			res.Skipped++
			continue
		}

		if err := s.claimSlug(ctx, p.Slug, p.ID); err != nil {
			return res, err
		}

		if exists {
			if current.Slug != p.Slug {
				s.releaseSlug(ctx, current.Slug)
			}
			if err := s.repo.Save(ctx, p); err != nil {
				return res, fmt.Errorf("save prompt: %w", err)
			}
			res.Updated++
			continue
		}
		if err := s.repo.Create(ctx, p); err != nil {
			s.releaseSlug(ctx, p.Slug)
			return res, fmt.Errorf("create prompt: %w", err)
		}
		res.Created++
	}

	logger.FromContext(ctx).Info("Catalog imported",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// claimSlug reserves slug for id, accepting a reservation id already holds.
func (s *Service) claimSlug(ctx context.Context, slug, id string) error {
	ok, err := s.repo.ReserveSlug(ctx, slug, id)
	if err != nil {
		return fmt.Errorf("reserve slug: %w", err)
	}
	if ok {
		return nil
	}
	owner, err := s.repo.ResolveSlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("resolve slug: %w", err)
	}
	if owner != id {
		return fmt.Errorf("%w: %s is held by %s", domain.ErrSlugTaken, slug, owner)
	}
	return nil
}

// owned loads a prompt and checks that editor authored it.
func (s *Service) owned(ctx context.Context, id, editor string) (domprompt.Prompt, error) {
	if editor == "" {
		return domprompt.Prompt{}, domain.ErrUnauthenticated
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	if !p.OwnedBy(editor) {
		if !p.IsPublic() {
			return domprompt.Prompt{}, domain.ErrPromptNotFound
		}
		return domprompt.Prompt{}, domain.ErrForbidden
	}
	return p, nil
}

// reserveSlug claims base, then base-2, base-3, ... for id.
func (s *Service) reserveSlug(ctx context.Context, base, id string) (string, error) {
	for n := 1; n <= MaxSlugAttempts; n++ {
		slug := domprompt.SlugCandidate(base, n)
		ok, err := s.repo.ReserveSlug(ctx, slug, id)
		if err != nil {
			return "", fmt.Errorf("reserve slug: %w", err)
		}
		if ok {
			return slug, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrSlugTaken, base)
}

func (s *Service) releaseSlug(ctx context.Context, slug string) {
	if err := s.repo.ReleaseSlug(ctx, slug); err != nil && !errors.Is(err, context.Canceled) {
		logger.FromContext(ctx).Warn("Failed to release slug", zap.String("slug", slug), zap.Error(err))
	}
}
