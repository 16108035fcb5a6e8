// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medcorpus/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseSingleEntity(t *testing.T) {
	docs := Parse("afib.yaml", []byte("id: condition-afib\ncategory: condition\nname: AFib\n"))
	require.Len(t, docs, 1)
	require.NoError(t, docs[0].Err)
	assert.Equal(t, "afib.yaml", docs[0].Source)
	assert.Equal(t, "condition-afib", docs[0].Entity.ID)
}

func TestParseMultipleDocuments(t *testing.T) {
	docs := Parse("multi.yaml", []byte("id: a\n---\nid: b\n---\n"))
	require.Len(t, docs, 2)
	assert.Equal(t, "multi.yaml#1", docs[0].Source)
	assert.Equal(t, "multi.yaml#2", docs[1].Source)
	assert.Equal(t, "b", docs[1].Entity.ID)
}

func TestParseSequence(t *testing.T) {
	docs := Parse("list.yaml", []byte("- id: a\n- id: b\n- just a string\n"))
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].Entity.ID)
	assert.Equal(t, "b", docs[1].Entity.ID)
	assert.Nil(t, docs[2].Entity)
	assert.Error(t, docs[2].Err)
	assert.Equal(t, "list.yaml#3", docs[2].Source)
}

func TestParseJSON(t *testing.T) {
	src := `{
  "id": "calc-bmi",
  "category": "calculation-concept",
  "name": "Body mass index",
  "levels": [{"level": 1, "title": "What", "content": "Weight over height squared"}]
}`
	docs := Parse("bmi.json", []byte(src))
	require.Len(t, docs, 1)
	require.NoError(t, docs[0].Err)

	raw := docs[0].Entity
	assert.True(t, types.IsArrayLevelsSource(raw))
	levels, err := raw.ArrayLevels()
	require.NoError(t, err)
	require.Len(t, levels.Levels, 1)
	assert.Equal(t, 1, levels.Levels[0].Level.Value)
	assert.Equal(t, "What", levels.Levels[0].Title)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		data   string
	}{
		{name: "malformed YAML", source: "bad.yaml", data: "id: [unclosed\n"},
		{name: "malformed JSON", source: "bad.json", data: `{"id": `},
		{name: "scalar document", source: "scalar.yaml", data: "hello\n"},
		{name: "wrong field type", source: "type.yaml", data: "id: a\nmedia: nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := Parse(tt.source, []byte(tt.data))
			require.Len(t, docs, 1)
			assert.Error(t, docs[0].Err)
			assert.Nil(t, docs[0].Entity)
			assert.Equal(t, tt.source, docs[0].Source)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conditions/b.yaml", "id: b\n")
	writeFile(t, dir, "conditions/a.yml", "id: a\n")
	writeFile(t, dir, "calculations/c.json", `{"id": "c"}`)
	writeFile(t, dir, "README.md", "# not content\n")
	writeFile(t, dir, ".drafts/hidden.yaml", "id: hidden\n")
	writeFile(t, dir, "conditions/.swap.yaml", "id: swap\n")

	docs, err := Load(context.Background(), dir)
	require.NoError(t, err)

	var ids []string
	for _, d := range docs {
		require.NoError(t, d.Err)
		ids = append(ids, d.Entity.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, filepath.Join(dir, "calculations", "c.json"), docs[0].Source)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
