// Package catalog reads prompt catalogs from YAML or JSON files.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
	reprompt "github.com/promptsgo/promptsgo/internal/repository/prompt"
)

// File is the catalog document. A bare list of prompts is accepted too.
type File struct {
	Prompts []reprompt.Record `json:"prompts" yaml:"prompts"`
}

// Repo serves a fixed in-memory catalog.
type Repo struct {
	records []domprompt.Prompt
}

// New creates a catalog over records.
func New(records []domprompt.Prompt) *Repo {
	return &Repo{records: records}
}

// FormatOf picks the catalog format from a file extension: .json, .parquet, else yaml.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".parquet":
		return "parquet"
	default:
		return "yaml"
	}
}

// Load reads a catalog file in the format given by its extension.
func Load(path string) (*Repo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	records, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(records), nil
}

// Parse decodes catalog data in the given format ("yaml", "json" or "parquet").
// Blank slugs are derived from titles with a numeric suffix on collision.
// A slug given explicitly twice is an error. Blank types default to text.
func Parse(data []byte, format string) ([]domprompt.Prompt, error) {
	recs, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	// Explicit slugs are claimed first so derived ones never take them.
	slugs := make(map[string]string, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.Slug == "" {
			continue
		}
		if owner, dup := slugs[rec.Slug]; dup {
			return nil, fmt.Errorf("prompt %s: slug %q already used by prompt %s", rec.ID, rec.Slug, owner)
		}
		slugs[rec.Slug] = rec.ID
	}

	out := make([]domprompt.Prompt, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		rec := &recs[i]
		if strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("prompt #%d: id is required", i+1)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("prompt #%d: duplicate id %q", i+1, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if rec.Type == "" {
			rec.Type = string(domprompt.TypeText)
		}
		t, err := domprompt.ParseType(rec.Type)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", rec.ID, err)
		}
		rec.Type = string(t)
		if rec.Slug == "" {
			rec.Slug = freeSlug(slugs, domprompt.Slugify(rec.Title))
			slugs[rec.Slug] = rec.ID
		}
		out = append(out, rec.ToDomain())
	}
	return out, nil
}

// freeSlug returns base, or base with the first numeric suffix not in used.
func freeSlug(used map[string]string, base string) string {
	for n := 1; ; n++ {
		c := domprompt.SlugCandidate(base, n)
		if _, taken := used[c]; !taken {
			return c
		}
	}
}

func decode(data []byte, format string) ([]reprompt.Record, error) {
	switch format {
	case "json":
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			var list []reprompt.Record
			if err := json.Unmarshal(data, &list); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			return list, nil
		}
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return f.Prompts, nil
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			var list []reprompt.Record
			if err := root.Decode(&list); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			return list, nil
		}
		var f File
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return f.Prompts, nil
	case "parquet":
		return decodeParquet(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}

// Write encodes records as a catalog in the given format.
func Write(w io.Writer, records []domprompt.Prompt, format string) error {
	recs := make([]reprompt.Record, len(records))
	for i := range records {
		recs[i] = reprompt.ToRecord(&records[i])
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(File{Prompts: recs}); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(File{Prompts: recs}); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil
	case "parquet":
		return encodeParquet(w, recs)
	default:
		return fmt.Errorf("unsupported catalog format %q", format)
	}
}

// Save writes records to path in the format given by its extension.
func Save(path string, records []domprompt.Prompt) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close catalog: %w", cerr)
		}
	}()
	return Write(f, records, FormatOf(path))
}

// List returns copies of every record, so callers may set flags freely.
func (r *Repo) List(_ context.Context) ([]domprompt.Prompt, error) {
	out := make([]domprompt.Prompt, len(r.records))
	for i := range r.records {
		out[i] = r.records[i].Clone()
	}
	return out, nil
}

// Len returns the number of records.
func (r *Repo) Len() int { return len(r.records) }
