package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/promptsgo/promptsgo/internal/domain"
	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	"github.com/promptsgo/promptsgo/internal/domain/prompt/patch"
)

// --- Fakes ---

type fakeRepo struct {
	prompts   map[string]domprompt.Prompt
	slugs     map[string]string
	createErr error
	saveErr   error
	released  []string
	incr      map[string]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		prompts: map[string]domprompt.Prompt{},
		slugs:   map[string]string{},
		incr:    map[string]int64{},
	}
}

func (f *fakeRepo) ReserveSlug(_ context.Context, slug, id string) (bool, error) {
	if _, ok := f.slugs[slug]; ok {
		return false, nil
	}
	f.slugs[slug] = id
	return true, nil
}

func (f *fakeRepo) ReleaseSlug(_ context.Context, slug string) error {
	delete(f.slugs, slug)
	f.released = append(f.released, slug)
	return nil
}

func (f *fakeRepo) ResolveSlug(_ context.Context, slug string) (string, error) {
	id, ok := f.slugs[slug]
	if !ok {
		return "", domain.ErrPromptNotFound
	}
	return id, nil
}

func (f *fakeRepo) Create(_ context.Context, p *domprompt.Prompt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.prompts[p.ID] = *p
	return nil
}

func (f *fakeRepo) Save(_ context.Context, p *domprompt.Prompt) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.prompts[p.ID] = *p
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domprompt.Prompt, error) {
	p, ok := f.prompts[id]
	if !ok {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (f *fakeRepo) Delete(_ context.Context, p *domprompt.Prompt) error {
	delete(f.prompts, p.ID)
	delete(f.slugs, p.Slug)
	return nil
}

func (f *fakeRepo) IncrStat(_ context.Context, id, field string, delta int64) (int64, error) {
	f.incr[id+":"+field] += delta
	return f.incr[id+":"+field], nil
}

type fakeReactions struct {
	added []string
}

func (f *fakeReactions) Add(_ context.Context, viewer string, kind domprompt.Reaction, id string) (bool, error) {
	f.added = append(f.added, viewer+":"+string(kind)+":"+id)
	return true, nil
}

// --- Helpers ---

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(repo *fakeRepo, reactions *fakeReactions) *Service {
	n := 0
	return New(repo, reactions).
		WithClock(func() time.Time { return testNow }).
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		})
}

func draft() domprompt.Draft {
	return domprompt.Draft{
		Title:   "Email Generator",
		Content: "Write an email to {{recipient}}",
		Tags:    []string{"Email"},
		Author:  domprompt.Author{Name: "Jane Smith", Username: "jsmith"},
	}
}

func viewerCtx(v string) context.Context {
	return domain.ContextWithViewer(context.Background(), v)
}

// --- Tests ---

func TestCreate(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	p, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "id-1" || p.Slug != "email-generator" || p.AuthorID != "v-1" {
		t.Errorf("unexpected prompt: %+v", p)
	}
	if p.Type != domprompt.TypeText || p.Revision != 1 || p.Visibility != domprompt.Public {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.CreatedAt != "2025-06-15T12:00:00Z" {
		t.Errorf("CreatedAt = %q", p.CreatedAt)
	}
	if repo.slugs["email-generator"] != "id-1" {
		t.Error("slug not reserved")
	}
}

func TestCreate_SlugCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.slugs["email-generator"] = "other"
	repo.slugs["email-generator-2"] = "other2"
	svc := newService(repo, nil)

	p, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slug != "email-generator-3" {
		t.Errorf("Slug = %q, want email-generator-3", p.Slug)
	}
}

func TestCreate_SlugExhausted(t *testing.T) {
	repo := newFakeRepo()
	for n := 1; n <= MaxSlugAttempts; n++ {
		repo.slugs[domprompt.SlugCandidate("email-generator", n)] = "x"
	}
	svc := newService(repo, nil)

	_, err := svc.Create(viewerCtx("v-1"), draft())
	if !errors.Is(err, domain.ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}
}

func TestCreate_Anonymous(t *testing.T) {
	svc := newService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), draft())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreate_Invalid(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	d := draft()
	d.Content = "  "

	_, err := svc.Create(viewerCtx("v-1"), d)
	if !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Errorf("expected ErrInvalidPrompt, got %v", err)
	}
	if len(repo.slugs) != 0 {
		t.Error("invalid draft must not reserve a slug")
	}
}

func TestCreate_StoreFailureReleasesSlug(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("conn refused")
	svc := newService(repo, nil)

	if _, err := svc.Create(viewerCtx("v-1"), draft()); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.released) != 1 || repo.released[0] != "email-generator" {
		t.Errorf("released = %v", repo.released)
	}
}

func TestGet_PrivateHiddenFromOthers(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	d := draft()
	d.Visibility = domprompt.Private
	p, err := svc.Create(viewerCtx("v-1"), d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(viewerCtx("v-1"), p.ID); err != nil {
		t.Errorf("owner must see private prompt: %v", err)
	}
	if _, err := svc.Get(viewerCtx("v-2"), p.ID); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("expected ErrPromptNotFound, got %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	created, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := svc.GetBySlug(context.Background(), "email-generator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != created.ID {
		t.Errorf("ID = %q", p.ID)
	}
	if _, err := svc.GetBySlug(context.Background(), "missing"); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("expected ErrPromptNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	created, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Better Emails"
	pt, err := patch.New(patch.Fields{Title: &title})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, "v-1", pt, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Better Emails" || updated.Slug != "email-generator" || updated.Revision != 2 {
		t.Errorf("unexpected update: %+v", updated)
	}
	if repo.prompts[created.ID].Revision != 2 {
		t.Error("update not saved")
	}
}

func TestUpdate_Errors(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	created, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	title := "New"
	pt, _ := patch.New(patch.Fields{Title: &title})

	tests := []struct {
		name     string
		id       string
		editor   string
		revision int
		want     error
	}{
		{"anonymous", created.ID, "", 0, domain.ErrUnauthenticated},
		{"not author", created.ID, "v-2", 0, domain.ErrForbidden},
		{"missing", "nope", "v-1", 0, domain.ErrPromptNotFound},
		{"stale revision", created.ID, "v-1", 7, domain.ErrRevisionConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tc.id, tc.editor, pt, tc.revision)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	_, err = svc.Update(context.Background(), created.ID, "v-1", pt, 7)
	var rc *domain.RevisionConflictError
	if !errors.As(err, &rc) || rc.CurrentRevision != 1 {
		t.Errorf("expected conflict at revision 1, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	created, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, "v-2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID, "v-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.prompts[created.ID]; ok {
		t.Error("prompt not deleted")
	}
	if _, ok := repo.slugs["email-generator"]; ok {
		t.Error("slug not released")
	}
}

func TestFork(t *testing.T) {
	repo := newFakeRepo()
	reactions := &fakeReactions{}
	svc := newService(repo, reactions)
	parent, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	owner := domprompt.Author{Name: "Bob", Username: "bob"}
	fork, err := svc.Fork(context.Background(), parent.ID, owner, "v-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fork.ID != "id-2" || fork.Slug != "email-generator-2" {
		t.Errorf("fork identity = %q/%q", fork.ID, fork.Slug)
	}
	if fork.ForkedFrom != parent.ID || fork.AuthorID != "v-2" || fork.Author != owner {
		t.Errorf("unexpected fork: %+v", fork)
	}
	if fork.Title != parent.Title || fork.Stats != (domprompt.Stats{}) {
		t.Errorf("fork must copy content and reset counters: %+v", fork)
	}
	if repo.incr[parent.ID+":forks"] != 1 {
		t.Errorf("parent fork count = %d", repo.incr[parent.ID+":forks"])
	}
	if len(reactions.added) != 1 || reactions.added[0] != "v-2:forks:"+parent.ID {
		t.Errorf("fork set = %v", reactions.added)
	}
}

func TestFork_OwnPromptAllowed(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeReactions{})
	parent, err := svc.Create(viewerCtx("v-1"), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Fork(context.Background(), parent.ID, parent.Author, "v-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFork_Errors(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	d := draft()
	d.Visibility = domprompt.Private
	private, err := svc.Create(viewerCtx("v-1"), d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Fork(context.Background(), private.ID, domprompt.Author{}, ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Fork(context.Background(), private.ID, domprompt.Author{}, "v-2"); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("expected ErrPromptNotFound, got %v", err)
	}
}

func catalogPrompt(id, slug string) domprompt.Prompt {
	return domprompt.Prompt{
		ID:       id,
		Slug:     slug,
		Title:    "Imported " + id,
		Content:  "Summarize {{text}}",
		Type:     domprompt.TypeText,
		Stats:    domprompt.Stats{Hearts: 7},
		Revision: 1,
	}
}

func TestImport(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	res, err := svc.Import(context.Background(), []domprompt.Prompt{
		catalogPrompt("p-1", "summarizer"),
		catalogPrompt("p-2", "summarizer-2"),
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (ImportResult{Created: 2}) {
		t.Errorf("result = %+v", res)
	}
	if repo.slugs["summarizer"] != "p-1" || repo.prompts["p-2"].Stats.Hearts != 7 {
		t.Error("prompts must be stored under their own ids and slugs")
	}

	res, err = svc.Import(context.Background(), []domprompt.Prompt{catalogPrompt("p-1", "summarizer")}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (ImportResult{Skipped: 1}) {
		t.Errorf("second import = %+v, want skipped", res)
	}
}

func TestImport_Replace(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	if _, err := svc.Import(context.Background(), []domprompt.Prompt{catalogPrompt("p-1", "summarizer")}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	updated := catalogPrompt("p-1", "text-summarizer")
	updated.Title = "Text Summarizer"
	res, err := svc.Import(context.Background(), []domprompt.Prompt{updated}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (ImportResult{Updated: 1}) {
		t.Errorf("result = %+v", res)
	}
	if repo.prompts["p-1"].Title != "Text Summarizer" {
		t.Errorf("title = %q", repo.prompts["p-1"].Title)
	}
	if _, ok := repo.slugs["summarizer"]; ok {
		t.Error("old slug must be released")
	}
	if repo.slugs["text-summarizer"] != "p-1" {
		t.Error("new slug must be reserved")
	}
}

func TestImport_Errors(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)
	repo.slugs["summarizer"] = "someone-else"

	_, err := svc.Import(context.Background(), []domprompt.Prompt{catalogPrompt("p-1", "summarizer")}, false)
	if !errors.Is(err, domain.ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	_, err = svc.Import(context.Background(), []domprompt.Prompt{catalogPrompt("p-2", "Bad Slug")}, false)
	if !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Errorf("expected ErrInvalidPrompt, got %v", err)
	}

	repo.createErr = errors.New("boom")
	_, err = svc.Import(context.Background(), []domprompt.Prompt{catalogPrompt("p-3", "fresh")}, false)
	if err == nil {
		t.Fatal("expected create error")
	}
	if _, ok := repo.slugs["fresh"]; ok {
		t.Error("slug must be released when create fails")
	}
}
