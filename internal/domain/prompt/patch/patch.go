package patch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// Patch is a partial prompt update. Nil fields are unchanged.
// A non-nil empty slice for Tags or Models clears the list.
type Patch struct {
	title       *string
	description *string
	content     *string
	promptType  *prompt.Type
	category    *string
	tags        []string
	tagsSet     bool
	models      []string
	modelsSet   bool
	visibility  *prompt.Visibility
}

// Fields are the raw optional inputs of a patch.
type Fields struct {
	Title       *string
	Description *string
	Content     *string
	Type        *string
	Category    *string
	Tags        *[]string
	Models      *[]string
	Visibility  *string
}

// New validates and creates a Patch. At least one field must be provided.
func New(f Fields) (Patch, error) {
	var p Patch

	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		if t == "" {
			return Patch{}, fmt.Errorf("title cannot be empty")
		}
		if utf8.RuneCountInString(t) > prompt.MaxTitleLength {
			return Patch{}, fmt.Errorf("title too long (max %d chars)", prompt.MaxTitleLength)
		}
		p.title = &t
	}
	if f.Description != nil {
		if utf8.RuneCountInString(*f.Description) > prompt.MaxDescriptionLength {
			return Patch{}, fmt.Errorf("description too long (max %d chars)", prompt.MaxDescriptionLength)
		}
		p.description = f.Description
	}
	if f.Content != nil {
		if strings.TrimSpace(*f.Content) == "" {
			return Patch{}, fmt.Errorf("content cannot be empty")
		}
		if len(*f.Content) > prompt.MaxContentSize {
			return Patch{}, fmt.Errorf("content too large (max %d bytes)", prompt.MaxContentSize)
		}
		p.content = f.Content
	}
	if f.Type != nil {
		t, err := prompt.ParseType(*f.Type)
		if err != nil {
			return Patch{}, err
		}
		p.promptType = &t
	}
	if f.Category != nil {
		c := strings.TrimSpace(*f.Category)
		p.category = &c
	}
	if f.Tags != nil {
		tags, err := prompt.NormalizeTags(*f.Tags)
		if err != nil {
			return Patch{}, err
		}
		p.tags = tags
		p.tagsSet = true
	}
	if f.Models != nil {
		p.models = normalizeModels(*f.Models)
		if len(p.models) > prompt.MaxModels {
			return Patch{}, fmt.Errorf("too many models (max %d)", prompt.MaxModels)
		}
		p.modelsSet = true
	}
	if f.Visibility != nil {
		v := prompt.Visibility(*f.Visibility)
		if v != prompt.Public && v != prompt.Private {
			return Patch{}, fmt.Errorf("invalid visibility: %q", *f.Visibility)
		}
		p.visibility = &v
	}

	if p.IsEmpty() {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	return p, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.title == nil && p.description == nil && p.content == nil &&
		p.promptType == nil && p.category == nil && !p.tagsSet && !p.modelsSet &&
		p.visibility == nil
}

// Apply returns a copy of src with the patch applied. Slug, counters and identity never change.
func (p Patch) Apply(src *prompt.Prompt) prompt.Prompt {
	out := src.Clone()
	if p.title != nil {
		out.Title = *p.title
	}
	if p.description != nil {
		out.Description = *p.description
	}
	if p.content != nil {
		out.Content = *p.content
	}
	if p.promptType != nil {
		out.Type = *p.promptType
	}
	if p.category != nil {
		out.Category = *p.category
	}
	if p.tagsSet {
		out.Tags = p.tags
	}
	if p.modelsSet {
		out.ModelCompatibility = p.models
	}
	if p.visibility != nil {
		out.Visibility = *p.visibility
	}
	return out
}

func normalizeModels(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
