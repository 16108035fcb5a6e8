// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the load-time content pass: load, normalize and
// intra-entity validation on a worker pool, then a barrier, then
// registration and cross-reference validation against the complete
// registry. One bad entity never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/medcorpus/internal/loader"
	"github.com/pdiddy/medcorpus/internal/normalize"
	"github.com/pdiddy/medcorpus/internal/registry"
	"github.com/pdiddy/medcorpus/internal/validate"
	"github.com/pdiddy/medcorpus/pkg/types"
)

// Result is the outcome of one pipeline run.
type Result struct {
	RunID    string
	Registry *registry.Registry

	// Reports holds one report per authored entity (or unreadable file),
	// in load order.
	Reports []validate.Report

	// registered maps an entity id to the report of the entity that won
	// registration.
	registered map[string]int
}

// Summary counts the outcome of a run.
type Summary struct {
	Entities    int `json:"entities" yaml:"entities"`
	Admissible  int `json:"admissible" yaml:"admissible"`
	Rejected    int `json:"rejected" yaml:"rejected"`
	ShapeErrors int `json:"shape_errors" yaml:"shape_errors"`
	Errors      int `json:"errors" yaml:"errors"`
}

// String renders the summary line printed after a run.
func (s Summary) String() string {
	return fmt.Sprintf("entities: %d, admissible: %d, rejected: %d, errors: %d",
		s.Entities, s.Admissible, s.Rejected, s.Errors)
}

// Summary tallies the reports.
func (r *Result) Summary() Summary {
	var s Summary
	for _, rep := range r.Reports {
		s.Entities++
		s.Errors += len(rep.Errors)
		if rep.Admissible() {
			s.Admissible++
		} else {
			s.Rejected++
		}
		s.ShapeErrors += rep.Count(validate.KindShapeError) + rep.Count(validate.KindUnreadableSource)
	}
	return s
}

// Failed returns the number of reports with at least one error.
func (r *Result) Failed() int {
	return r.Summary().Rejected
}

// Admissible reports whether the registered entity id passed validation.
func (r *Result) Admissible(id string) bool {
	i, ok := r.registered[id]
	return ok && r.Reports[i].Admissible()
}

// Run loads cfg.ContentDir and processes every entity in it.
func Run(ctx context.Context, cfg types.CorpusConfig, log *zap.Logger) (*Result, error) {
	docs, err := loader.Load(ctx, cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	return Process(ctx, docs, cfg.Workers, log)
}

// Process normalizes, registers and validates docs. workers bounds the
// first stage; zero or less uses GOMAXPROCS. The only errors returned are
// context cancellation and registry misuse; contract violations go into
// the reports.
func Process(ctx context.Context, docs []loader.Document, workers int, log *zap.Logger) (*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))
	log.Info("processing corpus", zap.Int("documents", len(docs)), zap.Int("workers", workers))

	entities := make([]types.Entity, len(docs))
	normalized := make([]bool, len(docs))
	reports := make([]validate.Report, len(docs))

	// Stage 1: each entity independently. Every goroutine writes only its
	// own index.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i], entities[i], normalized[i] = prepare(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage 2: register in load order so the first authored entity wins.
	b := registry.NewBuilder()
	registered := make(map[string]int, len(docs))
	for i := range docs {
		if !normalized[i] {
			log.Warn("entity not normalized",
				zap.String("source", reports[i].Source),
				zap.String("entity_id", reports[i].EntityID),
				zap.Error(validate.ErrorList(reports[i].Errors)))
			continue
		}
		err := b.Register(entities[i])
		var dup *validate.Error
		switch {
		case err == nil:
			registered[entities[i].ID] = i
		case errors.As(err, &dup):
			reports[i].Errors = append(reports[i].Errors, *dup)
		default:
			return nil, err
		}
	}
	reg := b.Build()

	// Stage 3: cross-references need every entity registered.
	for i := range docs {
		if normalized[i] {
			reports[i].Errors = append(reports[i].Errors, validate.CheckReferences(entities[i], reg)...)
		}
	}

	res := &Result{
		RunID:      runID,
		Registry:   reg,
		Reports:    reports,
		registered: registered,
	}
	for _, rep := range reports {
		if !rep.Admissible() {
			log.Debug("entity rejected",
				zap.String("source", rep.Source),
				zap.String("entity_id", rep.EntityID),
				zap.Int("errors", len(rep.Errors)))
		}
	}
	s := res.Summary()
	log.Info("corpus processed",
		zap.Int("entities", s.Entities),
		zap.Int("registered", reg.Len()),
		zap.Int("admissible", s.Admissible),
		zap.Int("rejected", s.Rejected),
		zap.Int("errors", s.Errors))
	return res, nil
}

// prepare normalizes one document and runs the intra-entity checks.
func prepare(doc loader.Document) (validate.Report, types.Entity, bool) {
	if doc.Err != nil {
		return validate.Report{
			Source: doc.Source,
			Errors: []validate.Error{validate.Unreadable(doc.Source, doc.Err)},
		}, types.Entity{}, false
	}

	e, err := normalize.Normalize(doc.Entity)
	if err != nil {
		return validate.Report{
			EntityID: doc.Entity.ID,
			Source:   doc.Source,
			Errors:   []validate.Error{validate.ShapeFailure(doc.Entity.ID, err)},
		}, types.Entity{}, false
	}

	return validate.Report{
		EntityID: e.ID,
		Source:   doc.Source,
		Errors:   validate.CheckEntity(e),
	}, e, true
}
