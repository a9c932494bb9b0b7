package catalog

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	reprompt "github.com/promptsgo/promptsgo/internal/repository/prompt"
)

// parquetRow is the flat columnar layout of a catalog record.
type parquetRow struct {
	ID             string   `parquet:"id"`
	Slug           string   `parquet:"slug"`
	Title          string   `parquet:"title"`
	Description    string   `parquet:"description"`
	Content        string   `parquet:"content"`
	Type           string   `parquet:"type"`
	Category       string   `parquet:"category"`
	Tags           []string `parquet:"tags,list"`
	Models         []string `parquet:"model_compatibility,list"`
	AuthorName     string   `parquet:"author_name"`
	AuthorUsername string   `parquet:"author_username"`
	AuthorID       string   `parquet:"author_id"`
	CreatedAt      string   `parquet:"created_at"`
	UpdatedAt      string   `parquet:"updated_at"`
	ForkedFrom     string   `parquet:"forked_from"`
	Visibility     string   `parquet:"visibility"`
	Revision       int64    `parquet:"revision"`
	Hearts         int64    `parquet:"hearts"`
	Saves          int64    `parquet:"saves"`
	Forks          int64    `parquet:"forks"`
	Views          int64    `parquet:"views"`
	Comments       int64    `parquet:"comments"`
}

func decodeParquet(data []byte) ([]reprompt.Record, error) {
	rows, err := parquet.Read[parquetRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet: %w", err)
	}
	out := make([]reprompt.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].toRecord()
	}
	return out, nil
}

func encodeParquet(w io.Writer, recs []reprompt.Record) error {
	rows := make([]parquetRow, len(recs))
	for i := range recs {
		rows[i] = fromRecord(&recs[i])
	}
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("encode parquet: %w", err)
	}
	return nil
}

func (r *parquetRow) toRecord() reprompt.Record {
	return reprompt.Record{
		ID:                 r.ID,
		Slug:               r.Slug,
		Title:              r.Title,
		Description:        r.Description,
		Content:            r.Content,
		Type:               r.Type,
		Category:           r.Category,
		Tags:               r.Tags,
		ModelCompatibility: r.Models,
		Author:             reprompt.AuthorRecord{Name: r.AuthorName, Username: r.AuthorUsername},
		AuthorID:           r.AuthorID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		ForkedFrom:         r.ForkedFrom,
		Visibility:         r.Visibility,
		Revision:           int(r.Revision),
		Stats: &reprompt.StatsRecord{
			Hearts:   int(r.Hearts),
			Saves:    int(r.Saves),
			Forks:    int(r.Forks),
			Views:    int(r.Views),
			Comments: int(r.Comments),
		},
	}
}

func fromRecord(r *reprompt.Record) parquetRow {
	row := parquetRow{
		ID:             r.ID,
		Slug:           r.Slug,
		Title:          r.Title,
		Description:    r.Description,
		Content:        r.Content,
		Type:           r.Type,
		Category:       r.Category,
		Tags:           r.Tags,
		Models:         r.ModelCompatibility,
		AuthorName:     r.Author.Name,
		AuthorUsername: r.Author.Username,
		AuthorID:       r.AuthorID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		ForkedFrom:     r.ForkedFrom,
		Visibility:     r.Visibility,
		Revision:       int64(r.Revision),
	}
	if s := r.Stats; s != nil {
		row.Hearts = int64(s.Hearts)
		row.Saves = int64(s.Saves)
		row.Forks = int64(s.Forks)
		row.Views = int64(s.Views)
		row.Comments = int64(s.Comments)
	}
	return row
}
