// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package diagnose maps free-text candidate diagnoses onto corpus condition
// documents. A candidate is embedded, matched against introduction and
// symptom documents, and each hit's parent chain is walked up to the
// condition document it belongs to; the most frequent condition wins.
package diagnose

import (
	"context"
	"log/slog"

	"github.com/clint-dev/clint/internal/corpus"
	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// resolveRetrievalSize is how many corpus hits vote on the condition.
const resolveRetrievalSize = 8

// Embedder turns text into a vector in the corpus embedding space.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Resolved is a candidate diagnosis pinned to a corpus condition document.
type Resolved struct {
	ID   corpus.DocID
	Name string
}

// Resolve maps candidate onto the condition document the corpus most agrees
// with. Returns a not-found error when no retrieved document leads to a
// condition ancestor.
func Resolve(ctx context.Context, embedder Embedder, store *corpus.Store, candidate string) (*Resolved, error) {
	vec, err := embedder.CreateEmbedding(ctx, candidate)
	if err != nil {
		return nil, err
	}
	projected, err := store.GetPCAMapped(vec)
	if err != nil {
		return nil, err
	}

	filter := store.CategorySet(corpus.CategoryIntroduction, corpus.CategorySymptom)
	hits, err := store.GetSimilar(projected, resolveRetrievalSize, filter)
	if err != nil {
		return nil, err
	}

	votes := map[corpus.DocID]int{}
	var order []corpus.DocID
	for _, hit := range hits {
		condition, ok := conditionAncestor(store, hit)
		if !ok {
			slog.Debug("hit has no condition ancestor", "doc_id", hit.String())
			continue
		}
		if votes[condition] == 0 {
			order = append(order, condition)
		}
		votes[condition]++
	}
	if len(order) == 0 {
		return nil, clinterr.New(clinterr.CodeDiagnoseUnresolved,
			"diagnose: no condition matches candidate",
			clinterr.Field("candidate", candidate))
	}

	// Highest vote count wins; ties go to the higher-ranked hit.
	best := order[0]
	for _, id := range order[1:] {
		if votes[id] > votes[best] {
			best = id
		}
	}

	// A condition the corpus cannot name is useless to callers; treat it
	// the same as no condition matching at all.
	name, ok := store.Title(best)
	if !ok {
		return nil, clinterr.New(clinterr.CodeDiagnoseUnresolved,
			"diagnose: winning condition has no title",
			clinterr.Field("candidate", candidate),
			clinterr.Field("doc_id", best.String()))
	}
	return &Resolved{ID: best, Name: name}, nil
}

// conditionAncestor walks id's parent chain until it reaches a condition
// document. The visited set bounds the walk: parent records come from data
// and may form a cycle.
func conditionAncestor(store *corpus.Store, id corpus.DocID) (corpus.DocID, bool) {
	visited := map[corpus.DocID]struct{}{}
	for current := id; ; {
		if _, seen := visited[current]; seen {
			return corpus.DocID{}, false
		}
		visited[current] = struct{}{}

		if store.IsCondition(current) {
			return current, true
		}
		parent, ok := store.Parent(current)
		if !ok {
			return corpus.DocID{}, false
		}
		current = parent
	}
}

// Dedup drops later entries resolving to an already-seen document.
func Dedup(list []Resolved) []Resolved {
	seen := map[corpus.DocID]struct{}{}
	out := make([]Resolved, 0, len(list))
	for _, r := range list {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
