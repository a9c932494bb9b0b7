package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// --- Fakes ---

type fakeReactions struct {
	sets   map[string]map[string]bool
	addErr error
}

func newFakeReactions() *fakeReactions {
	return &fakeReactions{sets: map[string]map[string]bool{}}
}

func (f *fakeReactions) Add(_ context.Context, viewer string, kind domprompt.Reaction, id string) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	key := viewer + ":" + string(kind)
	if f.sets[key] == nil {
		f.sets[key] = map[string]bool{}
	}
	if f.sets[key][id] {
		return false, nil
	}
	f.sets[key][id] = true
	return true, nil
}

func (f *fakeReactions) Remove(_ context.Context, viewer string, kind domprompt.Reaction, id string) (bool, error) {
	key := viewer + ":" + string(kind)
	if !f.sets[key][id] {
		return false, nil
	}
	delete(f.sets[key], id)
	return true, nil
}

func (f *fakeReactions) Members(_ context.Context, viewer string, kind domprompt.Reaction) ([]string, error) {
	var ids []string
	for id := range f.sets[viewer+":"+string(kind)] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeReactions) Has(_ context.Context, viewer string, kind domprompt.Reaction, id string) (bool, error) {
	return f.sets[viewer+":"+string(kind)][id], nil
}

type fakeCounters struct {
	prompts map[string]domprompt.Prompt
	fields  map[string]map[string]int64
}

func newFakeCounters(prompts ...domprompt.Prompt) *fakeCounters {
	f := &fakeCounters{prompts: map[string]domprompt.Prompt{}, fields: map[string]map[string]int64{}}
	for _, p := range prompts {
		f.prompts[p.ID] = p
		f.fields[p.ID] = map[string]int64{}
	}
	return f
}

func (f *fakeCounters) Get(_ context.Context, id string) (domprompt.Prompt, error) {
	p, ok := f.prompts[id]
	if !ok {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (f *fakeCounters) Stats(_ context.Context, id string) (domprompt.Stats, error) {
	return domprompt.StatsFromFields(f.fields[id]), nil
}

func (f *fakeCounters) IncrStat(_ context.Context, id, field string, delta int64) (int64, error) {
	f.fields[id][field] += delta
	return f.fields[id][field], nil
}

func publicPrompt() domprompt.Prompt {
	return domprompt.Prompt{ID: "p-1", AuthorID: "v-author", Visibility: domprompt.Public}
}

// --- Tests ---

func TestHeart_Idempotent(t *testing.T) {
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt()))
	ctx := context.Background()

	for range 3 {
		st, err := svc.Heart(ctx, "v-1", "p-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.Hearts != 1 {
			t.Fatalf("Hearts = %d, want 1", st.Hearts)
		}
	}

	st, err := svc.Heart(ctx, "v-2", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Hearts != 2 {
		t.Errorf("Hearts = %d, want 2", st.Hearts)
	}

	for range 2 {
		if st, err = svc.Unheart(ctx, "v-1", "p-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if st.Hearts != 1 {
		t.Errorf("Hearts after double unheart = %d, want 1", st.Hearts)
	}
}

func TestSave_Unsave(t *testing.T) {
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt()))
	ctx := context.Background()

	st, err := svc.Save(ctx, "v-1", "p-1")
	if err != nil || st.Saves != 1 {
		t.Fatalf("Save: %+v, %v", st, err)
	}
	st, err = svc.Unsave(ctx, "v-1", "p-1")
	if err != nil || st.Saves != 0 {
		t.Fatalf("Unsave: %+v, %v", st, err)
	}
	st, err = svc.Unsave(ctx, "v-1", "p-1")
	if err != nil || st.Saves != 0 {
		t.Errorf("Unsave on absent bookmark must not go negative: %+v, %v", st, err)
	}
}

func TestView_CountsEveryCall(t *testing.T) {
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt()))
	ctx := context.Background()

	var st domprompt.Stats
	var err error
	for range 3 {
		if st, err = svc.View(ctx, "", "p-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if st.Views != 3 {
		t.Errorf("Views = %d, want 3", st.Views)
	}
}

func TestToggle_Errors(t *testing.T) {
	private := domprompt.Prompt{ID: "p-priv", AuthorID: "v-author", Visibility: domprompt.Private}
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt(), private))
	ctx := context.Background()

	tests := []struct {
		name   string
		viewer string
		id     string
		want   error
	}{
		{"anonymous", "", "p-1", domain.ErrUnauthenticated},
		{"missing prompt", "v-1", "nope", domain.ErrPromptNotFound},
		{"private prompt", "v-1", "p-priv", domain.ErrPromptNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Heart(ctx, tc.viewer, tc.id); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.Heart(ctx, "v-author", "p-priv"); err != nil {
		t.Errorf("author may heart own private prompt: %v", err)
	}
}

func TestToggle_StoreError(t *testing.T) {
	reactions := newFakeReactions()
	reactions.addErr = errors.New("conn refused")
	counters := newFakeCounters(publicPrompt())
	svc := New(reactions, counters)

	if _, err := svc.Save(context.Background(), "v-1", "p-1"); err == nil {
		t.Fatal("expected error")
	}
	if counters.fields["p-1"]["saves"] != 0 {
		t.Error("counter must not move when the set write fails")
	}
}

func TestFlags(t *testing.T) {
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt()))
	ctx := context.Background()

	if _, err := svc.Heart(ctx, "v-1", "p-1"); err != nil {
		t.Fatalf("heart: %v", err)
	}

	flags, err := svc.Flags(ctx, "v-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flags[domprompt.Heart]) != 1 || len(flags[domprompt.Save]) != 0 || len(flags[domprompt.Fork]) != 0 {
		t.Errorf("unexpected flags: %v", flags)
	}
	if _, err := svc.Flags(ctx, ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestFlagsFor(t *testing.T) {
	svc := New(newFakeReactions(), newFakeCounters(publicPrompt()))
	ctx := context.Background()

	if _, err := svc.Save(ctx, "v-1", "p-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := svc.FlagsFor(ctx, "v-1", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Hearted || !f.Saved || f.Forked {
		t.Errorf("flags = %+v, want saved only", f)
	}

	f, err = svc.FlagsFor(ctx, "", "p-1")
	if err != nil || f != (domprompt.Flags{}) {
		t.Errorf("anonymous flags = %+v, %v", f, err)
	}
}
