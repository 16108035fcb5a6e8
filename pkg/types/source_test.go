// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func decodeRaw(t *testing.T, src string) *RawEntity {
	t.Helper()
	var raw RawEntity
	require.NoError(t, yaml.Unmarshal([]byte(src), &raw))
	return &raw
}

func TestShapeGuards(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantArray bool
		wantKeyed bool
	}{
		{
			name:      "sequence of levels",
			src:       "id: a\nlevels:\n  - level: 1\n    title: t\n",
			wantArray: true,
		},
		{
			name:      "mapping keyed by level number",
			src:       "id: a\nlevels:\n  1:\n    level: 1\n    summary: s\n",
			wantKeyed: true,
		},
		{
			name:      "flow sequence",
			src:       "id: a\nlevels: [{level: 1}]\n",
			wantArray: true,
		},
		{
			name:      "aliased sequence",
			src:       "shared: &lv\n  - level: 1\nid: a\nlevels: *lv\n",
			wantArray: true,
		},
		{name: "missing levels", src: "id: a\n"},
		{name: "null levels", src: "id: a\nlevels: null\n"},
		{name: "scalar levels", src: "id: a\nlevels: five\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := decodeRaw(t, tt.src)
			assert.Equal(t, tt.wantArray, IsArrayLevelsSource(raw))
			assert.Equal(t, tt.wantKeyed, IsKeyedLevelsSource(raw))
			assert.False(t, IsArrayLevelsSource(raw) && IsKeyedLevelsSource(raw), "guards must be mutually exclusive")
		})
	}
}

func TestShapeGuardsNil(t *testing.T) {
	assert.False(t, IsArrayLevelsSource(nil))
	assert.False(t, IsKeyedLevelsSource(nil))
}

func TestArrayLevelsKeepsUnknownFields(t *testing.T) {
	raw := decodeRaw(t, `
id: a
levels:
  - level: 1
    title: Intro
    content: Body
    keyPoints: [one, two]
    vocabulary:
      - term: BP
        definition: Blood pressure
    funFact: Hearts beat about 100,000 times a day.
`)
	src, err := raw.ArrayLevels()
	require.NoError(t, err)
	require.Len(t, src.Levels, 1)

	l := src.Levels[0]
	assert.Equal(t, LevelNumber{Value: 1}, l.Level)
	assert.Equal(t, "Intro", l.Title)
	assert.Equal(t, "Body", l.Content)
	assert.Equal(t, []SourceTerm{{Term: "BP", Definition: "Blood pressure"}}, l.Vocabulary)
	assert.Equal(t, map[string]any{"funFact": "Hearts beat about 100,000 times a day."}, l.Extra)

	_, err = raw.KeyedLevels()
	assert.Error(t, err)
}

func TestKeyedLevelsPreservesOrderAndDuplicates(t *testing.T) {
	raw := decodeRaw(t, `
id: a
levels:
  "2":
    level: 2
    summary: second
  1:
    level: 1
    summary: first
    patientCounselingPoints:
      - Take medication daily
  "01":
    level: 1
    summary: again
`)
	src, err := raw.KeyedLevels()
	require.NoError(t, err)
	require.Len(t, src.Entries, 3)

	assert.Equal(t, "2", src.Entries[0].Key)
	assert.Equal(t, "1", src.Entries[1].Key)
	assert.Equal(t, "01", src.Entries[2].Key)
	assert.Equal(t, "first", src.Entries[1].Level.Summary)
	assert.Equal(t, map[string]any{
		"patientCounselingPoints": []any{"Take medication daily"},
	}, src.Entries[1].Level.Extra)
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    StringList
		wantErr bool
	}{
		{name: "single string", src: "tags: cardiology", want: StringList{"cardiology"}},
		{name: "list", src: "tags: [cardiology, renal]", want: StringList{"cardiology", "renal"}},
		{name: "null", src: "tags: null", want: nil},
		{name: "mapping", src: "tags: {a: b}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				Tags StringList `yaml:"tags"`
			}
			err := yaml.Unmarshal([]byte(tt.src), &doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Tags)
		})
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		src     string
		want    time.Time
		wantErr bool
	}{
		{src: `at: 2024-03-01`, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{src: `at: "2024-03-01T10:30:00Z"`, want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{src: `at: "2024-03-01T10:30:00+02:00"`, want: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{src: `at: ""`},
		{src: `at: last tuesday`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var doc struct {
				At Timestamp `yaml:"at"`
			}
			err := yaml.Unmarshal([]byte(tt.src), &doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(doc.At.Time), "got %v, want %v", doc.At.Time, tt.want)
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{"", StatusDraft, StatusReview, StatusPublished} {
		assert.True(t, s.Valid(), "status %q", s)
	}
	assert.False(t, Status("archived").Valid())
}

func TestEntityClone(t *testing.T) {
	e := Entity{
		ID:   "a",
		Tags: []string{"x"},
		Levels: map[int]Level{
			1: {LevelNumber: 1, Glossary: []GlossaryEntry{{Term: "t", Definition: "d"}}},
		},
		Citations: []Citation{{ID: "c1", Authors: []string{"Smith"}}},
	}
	c := e.Clone()
	assert.Equal(t, e, c)

	c.Tags[0] = "y"
	c.Levels[1].Glossary[0].Term = "changed"
	c.Citations[0].Authors[0] = "Jones"
	assert.Equal(t, "x", e.Tags[0])
	assert.Equal(t, "t", e.Levels[1].Glossary[0].Term)
	assert.Equal(t, "Smith", e.Citations[0].Authors[0])
}

func TestLevelNumber(t *testing.T) {
	tests := []struct {
		src   string
		want  LevelNumber
		isInt bool
	}{
		{src: "level: 3", want: LevelNumber{Value: 3}, isInt: true},
		{src: `level: "4"`, want: LevelNumber{Value: 4}, isInt: true},
		{src: "level: three", want: LevelNumber{Raw: "three"}},
		{src: "level: 2.5", want: LevelNumber{Raw: "2.5"}},
		{src: "level: [1]", want: LevelNumber{Raw: "<!!seq>"}},
		{src: "title: no level", want: LevelNumber{}, isInt: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var doc struct {
				Level LevelNumber `yaml:"level"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &doc))
			assert.Equal(t, tt.want, doc.Level)
			assert.Equal(t, tt.isInt, doc.Level.IsInt())
		})
	}
}

func TestDecodeValueStringifiesKeys(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("dosing:\n  1: low\n  2: [{3: high}]\n"), &doc))

	got, err := DecodeValue(doc.Content[0])
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"dosing": map[string]any{
			"1": "low",
			"2": []any{map[string]any{"3": "high"}},
		},
	}, got)
}

func TestArrayLevelsStringifiesExtraKeys(t *testing.T) {
	raw := decodeRaw(t, "id: a\nlevels:\n  - level: 1\n    dosing: {1: low}\n")
	src, err := raw.ArrayLevels()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dosing": map[string]any{"1": "low"}}, src.Levels[0].Extra)
}
