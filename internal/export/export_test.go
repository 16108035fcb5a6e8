// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medcorpus/internal/loader"
	"github.com/pdiddy/medcorpus/internal/pipeline"
	"github.com/pdiddy/medcorpus/pkg/types"
)

// --- test helpers ---

func entityYAML(id, name string, refs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\ncategory: condition\nname: %s\nlevels:\n", id, name)
	for n := 1; n <= types.LevelCount; n++ {
		fmt.Fprintf(&b, "  - level: %d\n    title: Title %d\n    content: Body %d\n", n, n, n)
		fmt.Fprintf(&b, "    vocabulary:\n      - term: T%d\n        definition: D%d\n", n, n)
	}
	if len(refs) > 0 {
		b.WriteString("crossReferences:\n")
		for _, r := range refs {
			fmt.Fprintf(&b, "  - targetId: %s\n    relationship: related\n", r)
		}
	}
	b.WriteString("citations:\n  - id: c1\n    title: A paper\n    source: A journal\n    authors: [Smith, Jones]\n")
	return b.String()
}

// sampleResult holds two admissible entities and one with a dangling
// cross-reference.
func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	var docs []loader.Document
	docs = append(docs, loader.Parse("b.yaml", []byte(entityYAML("condition-b", "Bravo", "condition-a")))...)
	docs = append(docs, loader.Parse("a.yaml", []byte(entityYAML("condition-a", "Alpha")))...)
	docs = append(docs, loader.Parse("c.yaml", []byte(entityYAML("condition-c", "Charlie", "condition-xyz")))...)

	res, err := pipeline.Process(context.Background(), docs, 2, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed())
	return res
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

// --- tests ---

func TestEntitiesFiltersAndSorts(t *testing.T) {
	res := sampleResult(t)

	var ids []string
	for _, e := range Entities(res, false) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"condition-a", "condition-b"}, ids)
	assert.Len(t, Entities(res, true), 3)
}

func TestWriteSQLite(t *testing.T) {
	res := sampleResult(t)
	dir := filepath.Join(t.TempDir(), "build")

	path, err := Write(context.Background(), res, types.ExportSQLite, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "corpus.db"), path)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, res.RunID))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM entities`))
	assert.Equal(t, 10, count(t, db, `SELECT COUNT(*) FROM levels`))
	assert.Equal(t, 10, count(t, db, `SELECT COUNT(*) FROM glossary`))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM citations`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM cross_references WHERE target_id = 'condition-a'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM validation_errors WHERE kind = 'DanglingCrossReference'`))

	var authors string
	require.NoError(t, db.QueryRow(`SELECT authors FROM citations WHERE entity_id = 'condition-a'`).Scan(&authors))
	assert.JSONEq(t, `["Smith","Jones"]`, authors)
}

func TestWriteSQLiteReplacesPreviousExport(t *testing.T) {
	res := sampleResult(t)
	dir := t.TempDir()

	_, err := WriteSQLite(context.Background(), res, Options{Dir: dir})
	require.NoError(t, err)
	path, err := WriteSQLite(context.Background(), res, Options{Dir: dir, IncludeInvalid: true})
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 3, count(t, db, `SELECT COUNT(*) FROM entities`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM entities WHERE admissible = 0`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM runs`))
}

func TestWriteYAML(t *testing.T) {
	res := sampleResult(t)
	dir := t.TempDir()

	path, err := Write(context.Background(), res, types.ExportYAML, Options{Dir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.Entity
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "condition-a", got[0].ID)
	assert.Equal(t, "Body 3", got[0].Levels[3].Body)
}

func TestWriteJSON(t *testing.T) {
	res := sampleResult(t)
	dir := t.TempDir()

	path, err := Write(context.Background(), res, types.ExportJSON, Options{Dir: dir, IncludeInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "corpus.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.Entity
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "condition-c", got[2].ID)
	assert.Equal(t, "Title 1", got[2].Levels[1].Title)
}

func TestWriteUnsupportedFormat(t *testing.T) {
	_, err := Write(context.Background(), sampleResult(t), "csv", Options{Dir: t.TempDir()})
	assert.ErrorContains(t, err, "unsupported format")
}

func TestExportKeepsExtrasWithNonStringKeys(t *testing.T) {
	src := entityYAML("condition-a", "Alpha")
	src = strings.ReplaceAll(src, "    vocabulary:\n", "    dosing: {1: low, 2: high}\n    vocabulary:\n")
	res, err := pipeline.Process(context.Background(), loader.Parse("a.yaml", []byte(src)), 1, zap.NewNop())
	require.NoError(t, err)
	require.True(t, res.Admissible("condition-a"))
	dir := t.TempDir()

	path, err := WriteJSON(res, Options{Dir: dir})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.Entity
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"1": "low", "2": "high"}, got[0].Levels[2].Supplementary.Extra["dosing"])

	dbPath, err := WriteSQLite(context.Background(), res, Options{Dir: dir})
	require.NoError(t, err)
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var supplementary string
	require.NoError(t, db.QueryRow(
		`SELECT supplementary FROM levels WHERE entity_id = 'condition-a' AND level_number = 2`,
	).Scan(&supplementary))
	assert.JSONEq(t, `{"extra": {"dosing": {"1": "low", "2": "high"}}}`, supplementary)
}

func TestJSONColumnsReportsEncodeFailure(t *testing.T) {
	cols, err := jsonColumns("tags", []string{"a"}, "media", make(chan int))
	assert.Nil(t, cols)
	assert.ErrorContains(t, err, "encoding media")

	_, err = jsonText(map[any]any{1: "low"})
	assert.Error(t, err)
}
