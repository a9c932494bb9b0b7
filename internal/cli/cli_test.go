package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/config"
	"github.com/promptsgo/promptsgo/internal/db"
	"github.com/promptsgo/promptsgo/internal/db/memory"
	promptrepo "github.com/promptsgo/promptsgo/internal/repository/prompt"
	"github.com/promptsgo/promptsgo/internal/version"
)

const catalogPath = "testdata/catalog.yaml"

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, opts []Option, args ...string) result {
	t.Helper()
	opts = append([]Option{
		WithLogger(zap.NewNop()),
		WithClock(func() time.Time { return testNow }),
	}, opts...)

	root := NewRootCmd(opts...)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func searchJSON(t *testing.T, args ...string) searchOutput {
	t.Helper()
	res := run(t, "", nil, append([]string{"search", catalogPath, "-o", "json"}, args...)...)
	require.NoError(t, res.err)
	var out searchOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out), res.stdout)
	return out
}

func ids(out searchOutput) []string {
	got := make([]string, len(out.Items))
	for i, it := range out.Items {
		got[i] = it.ID
	}
	return got
}

func TestSearch(t *testing.T) {
	t.Run("no filters sorts by latest", func(t *testing.T) {
		out := searchJSON(t)
		assert.Equal(t, 3, out.Total)
		assert.Equal(t, []string{"p-sql", "p-email", "p-logo"}, ids(out))
	})

	t.Run("query ranks by relevance", func(t *testing.T) {
		out := searchJSON(t, "-q", "email")
		require.NotEmpty(t, out.Items)
		assert.Equal(t, "p-email", out.Items[0].ID)
	})

	t.Run("comma separated types", func(t *testing.T) {
		out := searchJSON(t, "--type", "code,image")
		assert.ElementsMatch(t, []string{"p-sql", "p-logo"}, ids(out))
	})

	t.Run("hearts bound and sort", func(t *testing.T) {
		out := searchJSON(t, "--min-hearts", "10", "--sort", "most_liked")
		assert.Equal(t, []string{"p-sql", "p-email"}, ids(out))
	})

	t.Run("author username", func(t *testing.T) {
		out := searchJSON(t, "--author", "jsmith")
		assert.Equal(t, []string{"p-email"}, ids(out))
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		out := searchJSON(t, "--from", "2025-01-10", "--to", "2025-02-01")
		assert.ElementsMatch(t, []string{"p-sql", "p-email"}, ids(out))
	})

	t.Run("paging", func(t *testing.T) {
		first := searchJSON(t, "--limit", "2")
		assert.Len(t, first.Items, 2)
		require.NotEmpty(t, first.NextCursor)

		rest := searchJSON(t, "--limit", "2", "--cursor", first.NextCursor)
		assert.Equal(t, []string{"p-logo"}, ids(rest))
		assert.Empty(t, rest.NextCursor)
	})
}

func TestSearch_Table(t *testing.T) {
	res := run(t, "", nil, "search", catalogPath, "--sort", "most_liked")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "SLUG")
	assert.Contains(t, res.stdout, "sql-optimizer")
	assert.Contains(t, res.stdout, "email-generator")
	assert.Contains(t, res.stdout, "2025-02-01")
	assert.Contains(t, res.stdout, "3 of 3 prompts")
	assert.Less(t, strings.Index(res.stdout, "sql-optimizer"), strings.Index(res.stdout, "email-generator"))
}

func TestSearch_NoMatch(t *testing.T) {
	res := run(t, "", nil, "search", catalogPath, "--tag", "nonexistent")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No prompts match.")
}

func TestSearch_Help(t *testing.T) {
	res := run(t, "", nil, "search", "--help")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "YAML, JSON or Parquet")
	assert.Contains(t, res.stdout, "agent, chain")
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad sort", []string{"search", catalogPath, "--sort", "popular"}, "invalid sort"},
		{"inverted hearts", []string{"search", catalogPath, "--min-hearts", "50", "--max-hearts", "10"}, "exceeds"},
		{"bad date", []string{"search", catalogPath, "--from", "soon"}, "from must be"},
		{"missing file", []string{"search", "testdata/none.yaml"}, "read catalog"},
		{"bad output", []string{"search", catalogPath, "-o", "xml"}, "invalid output format"},
		{"missing arg", []string{"search"}, "accepts 1 arg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, "", nil, tc.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tc.want)
		})
	}
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email.txt")
	require.NoError(t, os.WriteFile(path, []byte("Dear {{name}}, {{tone:kind}} regards."), 0o600))

	t.Run("fills values and defaults", func(t *testing.T) {
		res := run(t, "", nil, "render", path, "--var", "name=Ada")
		require.NoError(t, res.err)
		assert.Equal(t, "Dear Ada, kind regards.", res.stdout)
		assert.Empty(t, res.stderr)
	})

	t.Run("reports missing on stderr", func(t *testing.T) {
		res := run(t, "", nil, "render", path)
		require.NoError(t, res.err)
		assert.Equal(t, "Dear {{name}}, kind regards.", res.stdout)
		assert.Contains(t, res.stderr, "missing variables: name")
	})

	t.Run("strict", func(t *testing.T) {
		res := run(t, "", nil, "render", path, "--strict")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "name")
	})

	t.Run("stdin and json", func(t *testing.T) {
		res := run(t, "Hi {{who}}", nil, "render", "-", "--var", "who=Bo", "-o", "json")
		require.NoError(t, res.err)
		var out renderOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.Equal(t, "Hi Bo", out.Text)
		assert.Empty(t, out.Missing)
		require.Len(t, out.Variables, 1)
		assert.Equal(t, "who", out.Variables[0].Name)
	})

	t.Run("bad var", func(t *testing.T) {
		res := run(t, "", nil, "render", path, "--var", "nameAda")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "want name=value")
	})
}

func TestSeed(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("http:\n  port: 8080\ndatabase:\n  driver: memory\n"), 0o600))

	store := memory.New()
	opener := WithStoreOpener(func(cfg *config.DatabaseConfig) (db.Store, error) {
		assert.Equal(t, "memory", cfg.Driver)
		return store, nil
	})

	res := run(t, "", []Option{opener}, "seed", catalogPath, "--config", cfgPath)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "3 created, 0 updated, 0 skipped")

	repo := promptrepo.New(store).WithKeyPrefix("promptsgo:")
	p, err := repo.Get(context.Background(), "p-sql")
	require.NoError(t, err)
	assert.Equal(t, "sql-optimizer", p.Slug)
	assert.Equal(t, 40, p.Stats.Hearts)

	id, err := repo.ResolveSlug(context.Background(), "email-generator")
	require.NoError(t, err)
	assert.Equal(t, "p-email", id)

	res = run(t, "", []Option{opener}, "seed", catalogPath, "--config", cfgPath, "-o", "json")
	require.NoError(t, res.err)
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &counts))
	assert.Equal(t, map[string]int{"created": 0, "updated": 0, "skipped": 3}, counts)

	res = run(t, "", []Option{opener}, "seed", catalogPath, "--config", cfgPath, "--replace")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "0 created, 3 updated, 0 skipped")
}

func TestSeed_SameTitles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("http:\n  port: 8080\ndatabase:\n  driver: memory\n"), 0o600))
	catPath := filepath.Join(dir, "twins.yaml")
	twins := "- id: a\n  title: Email Generator\n  content: x\n- id: b\n  title: Email Generator\n  content: y\n"
	require.NoError(t, os.WriteFile(catPath, []byte(twins), 0o600))

	store := memory.New()
	opener := WithStoreOpener(func(*config.DatabaseConfig) (db.Store, error) { return store, nil })

	res := run(t, "", []Option{opener}, "seed", catPath, "--config", cfgPath)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2 created, 0 updated, 0 skipped")

	repo := promptrepo.New(store).WithKeyPrefix("promptsgo:")
	id, err := repo.ResolveSlug(context.Background(), "email-generator-2")
	require.NoError(t, err)
	assert.Equal(t, "b", id)
}

func TestSeed_BadConfig(t *testing.T) {
	res := run(t, "", nil, "seed", catalogPath, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to read config")
}

func TestVersion(t *testing.T) {
	version.Version, version.Commit, version.Date = "1.0.0", "abc", "2025-06-01"

	res := run(t, "", nil, "version")
	require.NoError(t, res.err)
	assert.Equal(t, "promptsctl 1.0.0 (commit abc, built 2025-06-01)\n", res.stdout)

	res = run(t, "", nil, "version", "-o", "json")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"version":"1.0.0","commit":"abc","date":"2025-06-01"}`, res.stdout)
}

func TestConvert(t *testing.T) {
	out := filepath.Join(t.TempDir(), "catalog.parquet")

	res := run(t, "", nil, "convert", catalogPath, out)
	require.NoError(t, res.err)
	assert.Equal(t, "Wrote 3 prompts to "+out+" (parquet)\n", res.stdout)

	res = run(t, "", nil, "search", out, "-o", "json", "--type", "code")
	require.NoError(t, res.err)
	var got searchOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "sql-optimizer", got.Items[0].Slug)
	assert.Equal(t, 40, got.Items[0].Stats.Hearts)
}

func TestConvert_MissingInput(t *testing.T) {
	res := run(t, "", nil, "convert", "testdata/nope.yaml", filepath.Join(t.TempDir(), "x.json"))
	require.Error(t, res.err)
}
