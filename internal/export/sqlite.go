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
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/medcorpus/internal/pipeline"
	"github.com/pdiddy/medcorpus/pkg/types"
)

var schema = []string{
	`CREATE TABLE runs (
		run_id TEXT PRIMARY KEY,
		exported_at TEXT NOT NULL,
		entities INTEGER,
		admissible INTEGER,
		rejected INTEGER,
		errors INTEGER
	)`,
	`CREATE TABLE entities (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		alternate_names TEXT,
		localized_names TEXT,
		tags TEXT,
		media TEXT,
		version TEXT,
		status TEXT,
		created_at TEXT,
		updated_at TEXT,
		source_shape TEXT,
		admissible INTEGER NOT NULL
	)`,
	`CREATE INDEX idx_entities_category ON entities(category)`,
	`CREATE TABLE levels (
		entity_id TEXT NOT NULL REFERENCES entities(id),
		level_number INTEGER NOT NULL,
		title TEXT,
		body TEXT,
		supplementary TEXT,
		PRIMARY KEY (entity_id, level_number)
	)`,
	`CREATE TABLE glossary (
		entity_id TEXT NOT NULL REFERENCES entities(id),
		level_number INTEGER NOT NULL,
		position INTEGER NOT NULL,
		term TEXT,
		definition TEXT,
		pronunciation TEXT,
		PRIMARY KEY (entity_id, level_number, position)
	)`,
	`CREATE TABLE cross_references (
		source_id TEXT NOT NULL REFERENCES entities(id),
		position INTEGER NOT NULL,
		target_id TEXT NOT NULL,
		target_type TEXT,
		relationship TEXT,
		label TEXT,
		PRIMARY KEY (source_id, position)
	)`,
	`CREATE INDEX idx_cross_references_target ON cross_references(target_id)`,
	`CREATE TABLE citations (
		entity_id TEXT NOT NULL REFERENCES entities(id),
		position INTEGER NOT NULL,
		citation_id TEXT,
		type TEXT,
		title TEXT,
		authors TEXT,
		source TEXT,
		url TEXT,
		PRIMARY KEY (entity_id, position)
	)`,
	`CREATE TABLE validation_errors (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		source TEXT,
		entity_id TEXT,
		kind TEXT NOT NULL,
		path TEXT,
		level INTEGER,
		target_id TEXT,
		message TEXT
	)`,
}

// WriteSQLite writes the snapshot to Dir/corpus.db, replacing any previous
// export. Validation errors of the run are written alongside so
// consumers can see why an entity is missing.
func WriteSQLite(ctx context.Context, res *pipeline.Result, opts Options) (string, error) {
	dir := opts.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, dbFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing previous export: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	s := res.Summary()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, exported_at, entities, admissible, rejected, errors)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.RunID, time.Now().UTC().Format(time.RFC3339), s.Entities, s.Admissible, s.Rejected, s.Errors,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, e := range Entities(res, opts.IncludeInvalid) {
		if err := insertEntity(ctx, tx, e, res.Admissible(e.ID)); err != nil {
			return "", fmt.Errorf("inserting entity %s: %w", e.ID, err)
		}
	}

	for _, rep := range res.Reports {
		for _, ve := range rep.Errors {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO validation_errors (run_id, source, entity_id, kind, path, level, target_id, message)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, rep.Source, rep.EntityID, string(ve.Kind), ve.Path, ve.Level, ve.TargetID, ve.Message,
			)
			if err != nil {
				return "", fmt.Errorf("inserting validation error: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing export: %w", err)
	}
	return path, nil
}

func insertEntity(ctx context.Context, tx *sql.Tx, e types.Entity, admissible bool) error {
	cols, err := jsonColumns(
		"alternate_names", e.AlternateNames,
		"localized_names", e.LocalizedNames,
		"tags", e.Tags,
		"media", e.Media,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO entities (id, category, name, alternate_names, localized_names, tags, media,
			version, status, created_at, updated_at, source_shape, admissible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Category), e.Name,
		cols[0], cols[1], cols[2], cols[3],
		e.Version, string(e.Status), timeText(e.CreatedAt), timeText(e.UpdatedAt),
		string(e.Shape), admissible,
	)
	if err != nil {
		return err
	}

	for _, n := range e.LevelNumbers() {
		l := e.Levels[n]
		supplementary, err := jsonText(l.Supplementary)
		if err != nil {
			return fmt.Errorf("level %d supplementary: %w", n, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO levels (entity_id, level_number, title, body, supplementary) VALUES (?, ?, ?, ?, ?)`,
			e.ID, n, l.Title, l.Body, supplementary,
		); err != nil {
			return fmt.Errorf("level %d: %w", n, err)
		}
		for i, g := range l.Glossary {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO glossary (entity_id, level_number, position, term, definition, pronunciation)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				e.ID, n, i, g.Term, g.Definition, g.Pronunciation,
			); err != nil {
				return fmt.Errorf("level %d glossary: %w", n, err)
			}
		}
	}

	for i, x := range e.CrossReferences {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cross_references (source_id, position, target_id, target_type, relationship, label)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, i, x.TargetID, x.TargetType, x.Relationship, x.Label,
		); err != nil {
			return fmt.Errorf("cross-reference %d: %w", i, err)
		}
	}

	for i, c := range e.Citations {
		authors, err := jsonText(c.Authors)
		if err != nil {
			return fmt.Errorf("citation %d authors: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO citations (entity_id, position, citation_id, type, title, authors, source, url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i, c.ID, c.Type, c.Title, authors, c.Source, c.URL,
		); err != nil {
			return fmt.Errorf("citation %d: %w", i, err)
		}
	}
	return nil
}

func jsonText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// jsonColumns encodes each value as JSON text, failing on the first value
// that cannot be encoded.
func jsonColumns(named ...any) ([]string, error) {
	out := make([]string, 0, len(named)/2)
	for i := 0; i+1 < len(named); i += 2 {
		text, err := jsonText(named[i+1])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", named[i], err)
		}
		out = append(out, text)
	}
	return out, nil
}

func timeText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
