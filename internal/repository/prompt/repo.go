package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/promptsgo/promptsgo/internal/db"
	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// store is the consumer interface for prompts (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
}

// Repo stores prompt records as JSON strings with counters in a hash.
//
// Keys: {prefix}prompt:{id}, {prefix}slug:{slug} -> id, {prefix}stats:{id}.
type Repo struct {
	store  store
	prefix string
}

// New creates a prompt repository.
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

// ReserveSlug claims slug for id. Returns false if another prompt holds it.
func (r *Repo) ReserveSlug(ctx context.Context, slug, id string) (bool, error) {
	ok, err := r.store.SetNX(ctx, r.slugKey(slug), []byte(id))
	if err != nil {
		return false, fmt.Errorf("reserve slug %s: %w", slug, err)
	}
	return ok, nil
}

// ReleaseSlug frees a slug reservation.
func (r *Repo) ReleaseSlug(ctx context.Context, slug string) error {
	if err := r.store.Del(ctx, r.slugKey(slug)); err != nil {
		return fmt.Errorf("release slug %s: %w", slug, err)
	}
	return nil
}

// ResolveSlug returns the prompt id holding slug.
func (r *Repo) ResolveSlug(ctx context.Context, slug string) (string, error) {
	raw, err := r.store.Get(ctx, r.slugKey(slug))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrPromptNotFound
		}
		return "", fmt.Errorf("get slug %s: %w", slug, err)
	}
	return string(raw), nil
}

// Create stores a new record and initializes its counters.
func (r *Repo) Create(ctx context.Context, p *domprompt.Prompt) error {
	if err := r.Save(ctx, p); err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.statsKey(p.ID), statsToHash(p.Stats)); err != nil {
		return fmt.Errorf("init stats %s: %w", p.ID, err)
	}
	return nil
}

// Save writes the record. Counters are untouched.
func (r *Repo) Save(ctx context.Context, p *domprompt.Prompt) error {
	rec := ToRecord(p)
	rec.Stats = nil
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal prompt: %w", err)
	}
	if err := r.store.Set(ctx, r.promptKey(p.ID), data); err != nil {
		return fmt.Errorf("set prompt %s: %w", p.ID, err)
	}
	return nil
}

// Get returns a prompt hydrated with its counters.
func (r *Repo) Get(ctx context.Context, id string) (domprompt.Prompt, error) {
	raw, err := r.store.Get(ctx, r.promptKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprompt.Prompt{}, domain.ErrPromptNotFound
		}
		return domprompt.Prompt{}, fmt.Errorf("get prompt %s: %w", id, err)
	}
	p, err := decode(raw)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("decode prompt %s: %w", id, err)
	}

	stats, err := r.Stats(ctx, id)
	if err != nil {
		return domprompt.Prompt{}, err
	}
	p.Stats = stats
	return p, nil
}

// List returns every stored prompt ordered by id, hydrated with counters.
// Records that vanish or fail to decode between SCAN and MGET are skipped.
func (r *Repo) List(ctx context.Context) ([]domprompt.Prompt, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"prompt:*")
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	slices.Sort(keys)

	raws, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget prompts: %w", err)
	}

	out := make([]domprompt.Prompt, 0, len(raws))
	statKeys := make([]string, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		p, err := decode(raw)
		if err != nil {
			continue
		}
		out = append(out, p)
		statKeys = append(statKeys, r.statsKey(p.ID))
	}

	hashes, err := r.store.HGetAllMulti(ctx, statKeys)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	for i := range out {
		if i < len(hashes) {
			out[i].Stats = statsFromHash(hashes[i])
		}
	}
	return out, nil
}

// Delete removes the record, its slug reservation and its counters.
func (r *Repo) Delete(ctx context.Context, p *domprompt.Prompt) error {
	keys := []string{r.promptKey(p.ID), r.statsKey(p.ID)}
	if p.Slug != "" {
		keys = append(keys, r.slugKey(p.Slug))
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete prompt %s: %w", p.ID, err)
	}
	return nil
}

// Stats returns the counters of a prompt.
func (r *Repo) Stats(ctx context.Context, id string) (domprompt.Stats, error) {
	m, err := r.store.HGetAll(ctx, r.statsKey(id))
	if err != nil {
		return domprompt.Stats{}, fmt.Errorf("get stats %s: %w", id, err)
	}
	return statsFromHash(m), nil
}

// IncrStat moves one counter by delta and returns the new value.
func (r *Repo) IncrStat(ctx context.Context, id, field string, delta int64) (int64, error) {
	n, err := r.store.HIncrBy(ctx, r.statsKey(id), field, delta)
	if err != nil {
		return 0, fmt.Errorf("incr %s %s: %w", id, field, err)
	}
	return n, nil
}

func decode(raw []byte) (domprompt.Prompt, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domprompt.Prompt{}, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return domprompt.Prompt{}, fmt.Errorf("record without id")
	}
	return rec.ToDomain(), nil
}

func (r *Repo) promptKey(id string) string { return r.prefix + "prompt:" + id }
func (r *Repo) slugKey(slug string) string { return r.prefix + "slug:" + slug }
func (r *Repo) statsKey(id string) string  { return r.prefix + "stats:" + id }
