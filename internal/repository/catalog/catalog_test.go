package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

func TestLoad_YAML(t *testing.T) {
	repo, err := Load(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.Len() != 3 {
		t.Fatalf("Len = %d, want 3", repo.Len())
	}
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	email := got[0]
	if email.Slug != "email-generator" {
		t.Errorf("derived slug = %q", email.Slug)
	}
	if email.Stats.Hearts != 12 || email.Stats.Views != 300 {
		t.Errorf("Stats = %+v", email.Stats)
	}
	if email.Author.Username != "jsmith" || email.Type != domprompt.TypeText {
		t.Errorf("unexpected record: %+v", email)
	}
	if got[1].Slug != "sql-optimizer" || got[2].Type != domprompt.TypeImage {
		t.Errorf("unexpected records: %+v", got[1:])
	}
	if !got[2].IsPublic() || got[2].Revision != 1 {
		t.Error("defaults not applied")
	}
}

func TestList_ReturnsCopies(t *testing.T) {
	repo := New([]domprompt.Prompt{{ID: "a", Tags: []string{"x"}}})
	first, _ := repo.List(context.Background())
	first[0].Tags[0] = "changed"
	first[0].Flags.Hearted = true
	second, _ := repo.List(context.Background())
	if second[0].Tags[0] != "x" || second[0].Flags.Hearted {
		t.Error("List leaked internal state")
	}
}

func TestParse_JSON(t *testing.T) {
	data := `[{"id":"a","title":"Hello World","content":"x","type":"Agent"}]`
	got, err := Parse([]byte(data), "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Type != domprompt.TypeAgent || got[0].Slug != "hello-world" {
		t.Errorf("Parse = %+v", got)
	}
}

func TestParse_BareYAMLList(t *testing.T) {
	got, err := Parse([]byte("- id: a\n  title: A\n  content: x\n"), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Type != domprompt.TypeText {
		t.Errorf("Parse = %+v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name, data, format, want string
	}{
		{"missing id", "prompts:\n  - title: A\n", "yaml", "id is required"},
		{"duplicate id", "- id: a\n- id: a\n", "yaml", "duplicate id"},
		{"bad type", "- id: a\n  type: video\n", "yaml", "invalid prompt type"},
		{"bad yaml", "prompts: [", "yaml", "decode yaml"},
		{"bad format", "", "toml", "unsupported"},
		{"bad parquet", "not parquet", "parquet", "decode parquet"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestParse_DerivedSlugsStayUnique(t *testing.T) {
	data := `
- id: a
  title: Email Generator
  content: x
- id: b
  title: Email Generator
  content: y
- id: c
  slug: email-generator-2
  title: Other
  content: z
- id: d
  title: Email generator!
  content: w
`
	got, err := Parse([]byte(data), "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"email-generator", "email-generator-3", "email-generator-2", "email-generator-4"}
	for i, p := range got {
		if p.Slug != want[i] {
			t.Errorf("prompt %s slug = %q, want %q", p.ID, p.Slug, want[i])
		}
	}
}

func TestParse_RepeatedExplicitSlug(t *testing.T) {
	data := `[{"id":"a","slug":"dup","title":"A","content":"x"},{"id":"b","slug":"dup","title":"B","content":"y"}]`
	_, err := Parse([]byte(data), "json")
	if err == nil {
		t.Fatal("expected error for a repeated slug")
	}
	for _, part := range []string{`"dup"`, "prompt a", "prompt b"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q should mention %s", err, part)
		}
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"prompts":[{"id":"a","title":"A","content":"x"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	repo, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d", repo.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]string{
		"a.json": "json", "a.PARQUET": "parquet", "a.yml": "yaml", "catalog": "yaml",
	} {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSave_Parquet(t *testing.T) {
	src, err := Load(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	records, _ := src.List(context.Background())

	path := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := Save(path, records); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := repo.List(context.Background())
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	sql := got[1]
	if sql.Slug != "sql-optimizer" || sql.Type != domprompt.TypeCode || sql.Author.Username != "bstone" {
		t.Errorf("unexpected record: %+v", sql)
	}
	if sql.Stats.Hearts != 40 || sql.Stats.Forks != 6 {
		t.Errorf("Stats = %+v", sql.Stats)
	}
	if strings.Join(sql.Tags, ",") != "sql,database" || sql.CreatedAt != "2025-02-01T08:30:00Z" {
		t.Errorf("Tags = %v, CreatedAt = %q", sql.Tags, sql.CreatedAt)
	}
}

func TestSave_YAMLReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	in := []domprompt.Prompt{{ID: "a", Slug: "a", Title: "A", Content: "x", Type: domprompt.TypeChain}}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := repo.List(context.Background())
	if len(got) != 1 || got[0].Type != domprompt.TypeChain {
		t.Errorf("got %+v", got)
	}
}
