package prompt

import (
	"strconv"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Record is the stored form of a prompt. Session flags are never stored.
// Stats is only set in catalog files; Valkey keeps counters in a separate hash.
type Record struct {
	ID                 string       `json:"id" yaml:"id"`
	Slug               string       `json:"slug" yaml:"slug"`
	Title              string       `json:"title" yaml:"title"`
	Description        string       `json:"description,omitempty" yaml:"description,omitempty"`
	Content            string       `json:"content" yaml:"content"`
	Type               string       `json:"type" yaml:"type"`
	Category           string       `json:"category,omitempty" yaml:"category,omitempty"`
	Tags               []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	ModelCompatibility []string     `json:"model_compatibility,omitempty" yaml:"model_compatibility,omitempty"`
	Author             AuthorRecord `json:"author" yaml:"author"`
	AuthorID           string       `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	CreatedAt          string       `json:"created_at" yaml:"created_at"`
	UpdatedAt          string       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	ForkedFrom         string       `json:"forked_from,omitempty" yaml:"forked_from,omitempty"`
	Visibility         string       `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Revision           int          `json:"revision" yaml:"revision,omitempty"`
	Stats              *StatsRecord `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// AuthorRecord is the stored author.
type AuthorRecord struct {
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
}

// StatsRecord carries counters inside catalog files.
type StatsRecord struct {
	Hearts   int `json:"hearts,omitempty" yaml:"hearts,omitempty"`
	Saves    int `json:"saves,omitempty" yaml:"saves,omitempty"`
	Forks    int `json:"forks,omitempty" yaml:"forks,omitempty"`
	Views    int `json:"views,omitempty" yaml:"views,omitempty"`
	Comments int `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// ToRecord converts a domain prompt, embedding its counters.
func ToRecord(p *domprompt.Prompt) Record {
	return Record{
		ID:                 p.ID,
		Slug:               p.Slug,
		Title:              p.Title,
		Description:        p.Description,
		Content:            p.Content,
		Type:               string(p.Type),
		Category:           p.Category,
		Tags:               p.Tags,
		ModelCompatibility: p.ModelCompatibility,
		Author:             AuthorRecord{Name: p.Author.Name, Username: p.Author.Username},
		AuthorID:           p.AuthorID,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		ForkedFrom:         p.ForkedFrom,
		Visibility:         string(p.Visibility),
		Revision:           p.Revision,
		Stats: &StatsRecord{
			Hearts: p.Stats.Hearts, Saves: p.Stats.Saves, Forks: p.Stats.Forks,
			Views: p.Stats.Views, Comments: p.Stats.Comments,
		},
	}
}

// ToDomain converts back. Missing visibility is public; a missing revision is 1.
func (r *Record) ToDomain() domprompt.Prompt {
	p := domprompt.Prompt{
		ID:                 r.ID,
		Slug:               r.Slug,
		Title:              r.Title,
		Description:        r.Description,
		Content:            r.Content,
		Type:               domprompt.Type(r.Type),
		Category:           r.Category,
		Tags:               r.Tags,
		ModelCompatibility: r.ModelCompatibility,
		Author:             domprompt.Author{Name: r.Author.Name, Username: r.Author.Username},
		AuthorID:           r.AuthorID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		ForkedFrom:         r.ForkedFrom,
		Visibility:         domprompt.Visibility(r.Visibility),
		Revision:           r.Revision,
	}
	if p.Visibility == "" {
		p.Visibility = domprompt.Public
	}
	if p.Revision <= 0 {
		p.Revision = 1
	}
	if r.Stats != nil {
		p.Stats = domprompt.Stats{
			Hearts: r.Stats.Hearts, Saves: r.Stats.Saves, Forks: r.Stats.Forks,
			Views: r.Stats.Views, Comments: r.Stats.Comments,
		}
	}
	return p
}

// statsToHash converts counters into HSET fields.
func statsToHash(s domprompt.Stats) map[string]string {
	fields := s.Fields()
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = strconv.FormatInt(v, 10)
	}
	return out
}

// statsFromHash parses HGETALL output. Malformed values count as zero.
func statsFromHash(m map[string]string) domprompt.Stats {
	fields := make(map[string]int64, len(m))
	for k, v := range m {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			fields[k] = n
		}
	}
	return domprompt.StatsFromFields(fields)
}
