package facet

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
)

func TestCompute(t *testing.T) {
	records := []prompt.Prompt{
		{Type: prompt.TypeText, Category: "Writing", Tags: []string{"email", "Email"}, ModelCompatibility: []string{"gpt-4o"}},
		{Type: prompt.TypeCode, Category: "writing", Tags: []string{"sql"}, ModelCompatibility: []string{"gpt-4o", "claude-3"}},
		{Type: prompt.TypeText, Category: "", Tags: []string{"email", "sql"}},
	}
	got := Compute(records, 0)
	want := Facets{
		Types:      []Count{{"text", 2}, {"code", 1}},
		Categories: []Count{{"writing", 2}},
		Models:     []Count{{"gpt-4o", 2}, {"claude-3", 1}},
		Tags:       []Count{{"email", 2}, {"sql", 2}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("facets mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_TopTags(t *testing.T) {
	var records []prompt.Prompt
	for i := range 30 {
		tags := []string{fmt.Sprintf("tag-%02d", i)}
		if i < 5 {
			tags = append(tags, "popular")
		}
		records = append(records, prompt.Prompt{Type: prompt.TypeText, Tags: tags})
	}
	got := Compute(records, 3).Tags
	want := []Count{{"popular", 5}, {"tag-00", 1}, {"tag-01", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top tags mismatch (-want +got):\n%s", diff)
	}
	if n := len(Compute(records, 0).Tags); n != DefaultTopTags {
		t.Errorf("default tag facet size = %d, want %d", n, DefaultTopTags)
	}
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil, 0)
	if len(got.Types) != 0 || len(got.Tags) != 0 {
		t.Errorf("Compute(nil) = %+v", got)
	}
}
