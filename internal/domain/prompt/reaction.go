package prompt

import "fmt"

// Reaction is a per-viewer engagement recorded as set membership.
type Reaction string

// Reaction constants. Values double as storage set names.
const (
	Heart Reaction = "hearts"
	Save  Reaction = "saves"
	Fork  Reaction = "forks"
)

// IsValid checks if the reaction is supported.
func (r Reaction) IsValid() bool {
	return r == Heart || r == Save || r == Fork
}

// StatField names the Stats counter the reaction moves.
func (r Reaction) StatField() string { return string(r) }

// Stat field names beyond reactions.
const (
	StatViews    = "views"
	StatComments = "comments"
)

// StatsFromFields builds Stats from stored counter fields. Unknown or malformed fields are ignored.
func StatsFromFields(fields map[string]int64) Stats {
	return Stats{
		Hearts:   int(max(fields[string(Heart)], 0)),
		Saves:    int(max(fields[string(Save)], 0)),
		Forks:    int(max(fields[string(Fork)], 0)),
		Views:    int(max(fields[StatViews], 0)),
		Comments: int(max(fields[StatComments], 0)),
	}
}

// Fields returns the counters keyed by stored field name.
func (s Stats) Fields() map[string]int64 {
	return map[string]int64{
		string(Heart): int64(s.Hearts),
		string(Save):  int64(s.Saves),
		string(Fork):  int64(s.Forks),
		StatViews:     int64(s.Views),
		StatComments:  int64(s.Comments),
	}
}

// Set sets the flag matching r.
func (f *Flags) Set(r Reaction, v bool) {
	switch r {
	case Heart:
		f.Hearted = v
	case Save:
		f.Saved = v
	case Fork:
		f.Forked = v
	}
}

// ParseReaction validates a reaction name.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid reaction: %q", s)
	}
	return r, nil
}
