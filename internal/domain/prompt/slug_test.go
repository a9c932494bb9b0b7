package prompt

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Email Generator", "email-generator"},
		{"  SQL -- Query   Builder!! ", "sql-query-builder"},
		{"C++ tips & tricks", "c-tips-tricks"},
		{"GPT-4o vision", "gpt-4o-vision"},
		{"!!!", "prompt"},
		{"", "prompt"},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("word ", 40))
	if len(got) > MaxSlugLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
	if !IsValidSlug(got) {
		t.Errorf("slug %q is not valid", got)
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "email-generator", "gpt-4o", "x-2"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false", s)
		}
	}
	invalid := []string{"", "-a", "a-", "a--b", "Upper", "with space", "a_b"}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true", s)
		}
	}
}

func TestSlugCandidate(t *testing.T) {
	if got := SlugCandidate("email", 1); got != "email" {
		t.Errorf("n=1: %q", got)
	}
	if got := SlugCandidate("email", 3); got != "email-3" {
		t.Errorf("n=3: %q", got)
	}
}
