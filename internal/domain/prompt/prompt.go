package prompt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxContentSize       = 65536 // 64KB
	MaxTags              = 20
	MaxTagLength         = 40
	MaxModels            = 20
)

// Type classifies what a prompt produces.
type Type string

// Prompt type constants.
const (
	TypeText  Type = "text"
	TypeImage Type = "image"
	TypeCode  Type = "code"
	TypeAgent Type = "agent"
	TypeChain Type = "chain"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	switch t {
	case TypeText, TypeImage, TypeCode, TypeAgent, TypeChain:
		return true
	}
	return false
}

// ParseType normalizes and validates a type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid prompt type: %q", s)
	}
	return t, nil
}

// Visibility controls who can discover a prompt.
type Visibility string

// Visibility constants.
const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Author identifies who wrote a prompt.
type Author struct {
	Name     string
	Username string
}

// Stats holds the engagement counters of a prompt.
type Stats struct {
	Hearts   int
	Saves    int
	Forks    int
	Views    int
	Comments int
}

// Flags are per-viewer session flags, computed by the caller of search.
type Flags struct {
	Hearted bool
	Saved   bool
	Forked  bool
}

// Prompt is a prompt record. Search reads it and never mutates it.
// CreatedAt and UpdatedAt keep the stored ISO-8601 text so malformed values survive hydration.
type Prompt struct {
	ID                 string
	Slug               string
	Title              string
	Description        string
	Content            string
	Type               Type
	Category           string
	Tags               []string
	ModelCompatibility []string
	Stats              Stats
	Author             Author
	AuthorID           string
	CreatedAt          string
	UpdatedAt          string
	ForkedFrom         string
	Visibility         Visibility
	Revision           int
	Flags              Flags
}

// Draft is the author-supplied part of a new prompt.
type Draft struct {
	Title              string
	Description        string
	Content            string
	Type               Type
	Category           string
	Tags               []string
	ModelCompatibility []string
	Author             Author
	AuthorID           string
	Visibility         Visibility
}

// New validates a draft and creates a prompt at revision 1.
func New(id, slug string, d Draft, now time.Time) (Prompt, error) {
	if id == "" {
		return Prompt{}, fmt.Errorf("prompt ID is required")
	}
	if !IsValidSlug(slug) {
		return Prompt{}, fmt.Errorf("slug %q must be lowercase alphanumeric words joined by hyphens", slug)
	}
	d, err := normalizeDraft(d)
	if err != nil {
		return Prompt{}, err
	}

	ts := now.UTC().Format(time.RFC3339)
	return Prompt{
		ID:                 id,
		Slug:               slug,
		Title:              d.Title,
		Description:        d.Description,
		Content:            d.Content,
		Type:               d.Type,
		Category:           d.Category,
		Tags:               d.Tags,
		ModelCompatibility: d.ModelCompatibility,
		Author:             d.Author,
		AuthorID:           d.AuthorID,
		CreatedAt:          ts,
		UpdatedAt:          ts,
		Visibility:         d.Visibility,
		Revision:           1,
	}, nil
}

// ValidateDraft checks a draft without creating a prompt.
func ValidateDraft(d Draft) error {
	_, err := normalizeDraft(d)
	return err
}

func normalizeDraft(d Draft) (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return Draft{}, fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		return Draft{}, fmt.Errorf("title too long (max %d chars)", MaxTitleLength)
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return Draft{}, fmt.Errorf("description too long (max %d chars)", MaxDescriptionLength)
	}
	if strings.TrimSpace(d.Content) == "" {
		return Draft{}, fmt.Errorf("content is required")
	}
	if len(d.Content) > MaxContentSize {
		return Draft{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if d.Type == "" {
		d.Type = TypeText
	}
	if !d.Type.IsValid() {
		return Draft{}, fmt.Errorf("invalid prompt type: %q", d.Type)
	}
	if d.AuthorID == "" {
		return Draft{}, fmt.Errorf("author ID is required")
	}
	if d.Visibility == "" {
		d.Visibility = Public
	}
	if d.Visibility != Public && d.Visibility != Private {
		return Draft{}, fmt.Errorf("invalid visibility: %q", d.Visibility)
	}

	tags, err := NormalizeTags(d.Tags)
	if err != nil {
		return Draft{}, err
	}
	d.Tags = tags

	models := dedupe(d.ModelCompatibility, strings.TrimSpace)
	if len(models) > MaxModels {
		return Draft{}, fmt.Errorf("too many models (max %d)", MaxModels)
	}
	d.ModelCompatibility = models
	d.Category = strings.TrimSpace(d.Category)

	return d, nil
}

// NormalizeTags lowercases, trims and de-duplicates tags, enforcing count and length limits.
func NormalizeTags(tags []string) ([]string, error) {
	out := dedupe(tags, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
	if len(out) > MaxTags {
		return nil, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	for _, t := range out {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return nil, fmt.Errorf("tag %q too long (max %d chars)", t, MaxTagLength)
		}
	}
	return out, nil
}

// dedupe applies norm to each value and keeps the first occurrence of every non-empty result.
func dedupe(in []string, norm func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = norm(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Timestamp layouts accepted when reading CreatedAt/UpdatedAt, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedTime returns the parsed creation time and whether it parsed.
func (p *Prompt) CreatedTime() (time.Time, bool) { return ParseTimestamp(p.CreatedAt) }

// IsPublic reports whether any viewer may discover the prompt.
func (p *Prompt) IsPublic() bool { return p.Visibility != Private }

// OwnedBy reports whether the viewer authored the prompt.
func (p *Prompt) OwnedBy(viewerID string) bool {
	return viewerID != "" && p.AuthorID == viewerID
}

// VisibleTo reports whether the viewer may see the prompt.
func (p *Prompt) VisibleTo(viewerID string) bool {
	return p.IsPublic() || p.OwnedBy(viewerID)
}

// SupportsModel reports whether the prompt lists the model, or lists no models at all.
func (p *Prompt) SupportsModel(model string) bool {
	if len(p.ModelCompatibility) == 0 {
		return true
	}
	for _, m := range p.ModelCompatibility {
		if strings.EqualFold(m, model) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can set flags without touching shared records.
func (p *Prompt) Clone() Prompt {
	c := *p
	c.Tags = cloneStrings(p.Tags)
	c.ModelCompatibility = cloneStrings(p.ModelCompatibility)
	return c
}

// Fork derives a copy of p owned by another author. Counters and flags start empty.
func (p *Prompt) Fork(id, slug string, owner Author, ownerID string, now time.Time) Prompt {
	ts := now.UTC().Format(time.RFC3339)
	f := p.Clone()
	f.ID = id
	f.Slug = slug
	f.Author = owner
	f.AuthorID = ownerID
	f.CreatedAt = ts
	f.UpdatedAt = ts
	f.ForkedFrom = p.ID
	f.Visibility = Public
	f.Revision = 1
	f.Stats = Stats{}
	f.Flags = Flags{}
	return f
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
