package sortby

import "testing"

func TestIsValid(t *testing.T) {
	valid := []SortBy{Relevance, Trending, Latest, MostLiked, MostForked}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", s)
		}
	}

	invalid := []SortBy{"", "popular", "most_liked", "LATEST"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want SortBy
	}{
		{"relevance", Relevance},
		{"Trending", Trending},
		{" latest ", Latest},
		{"newest", Latest},
		{"mostLiked", MostLiked},
		{"most_liked", MostLiked},
		{"most-forked", MostForked},
		{"MOSTFORKED", MostForked},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := Parse("popular"); err == nil {
		t.Error("Parse(popular) should fail")
	}
}
