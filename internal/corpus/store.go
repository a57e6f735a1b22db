// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package corpus holds the immutable in-memory document corpus: one embedding
// row per document plus hierarchical metadata (parents, titles, URLs) and
// category membership. The store is built once from raw byte buffers and
// never mutated, so any number of goroutines may query it without locks.
package corpus

import (
	"bytes"
	"sort"
	"unicode/utf8"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// Category names a corpus membership set.
type Category string

const (
	CategoryIntroduction Category = "introduction"
	CategoryCondition    Category = "condition"
	CategorySymptom      Category = "symptom"
)

// Resources are the raw byte buffers a Store is built from. Embeddings and
// PCAMapping are NPY matrices; IDs and the category lists are newline-
// delimited hex ids; Parents, Titles and URLs are tab-separated two-column
// records keyed by hex id. PCAMapping may be nil, in which case retrieval
// space is raw embedding space.
type Resources struct {
	Embeddings   []byte
	PCAMapping   []byte
	IDs          []byte
	Parents      []byte
	Titles       []byte
	URLs         []byte
	Introduction []byte
	Condition    []byte
	Symptoms     []byte
}

// Store is the corpus database. Zero value is not usable; construct with New.
type Store struct {
	embeddings *matrix
	pca        *matrix
	ids        []DocID
	parents    map[DocID]DocID
	titles     map[DocID]string
	urls       map[DocID]string
	intro      map[DocID]struct{}
	condition  map[DocID]struct{}
	symptoms   map[DocID]struct{}
}

// New builds a Store from raw resources. Construction is all-or-nothing: any
// malformed buffer, NaN value, or id/row count mismatch fails without
// producing a partial store.
//
// The id list may contain duplicates; keyed lookups resolve to the first
// occurrence while every embedding row remains reachable through GetSimilar.
func New(res Resources) (*Store, error) {
	embeddings, err := parseNPYMatrix(res.Embeddings)
	if err != nil {
		return nil, err
	}

	var pca *matrix
	if res.PCAMapping != nil {
		pca, err = parseNPYMatrix(res.PCAMapping)
		if err != nil {
			return nil, err
		}
	}

	ids, err := parseIDList(res.IDs)
	if err != nil {
		return nil, err
	}
	if len(ids) != embeddings.rows {
		return nil, clinterr.Errorf(clinterr.CodeCorpusConstructShapeMismatch,
			"corpus: %d ids for %d embedding rows", len(ids), embeddings.rows)
	}

	parents, err := parseParentRecords(res.Parents)
	if err != nil {
		return nil, err
	}

	titles, err := parseTextRecords(res.Titles, "title")
	if err != nil {
		return nil, err
	}

	urls, err := parseTextRecords(res.URLs, "url")
	if err != nil {
		return nil, err
	}

	intro, err := parseIDSet(res.Introduction)
	if err != nil {
		return nil, err
	}
	condition, err := parseIDSet(res.Condition)
	if err != nil {
		return nil, err
	}
	symptoms, err := parseIDSet(res.Symptoms)
	if err != nil {
		return nil, err
	}

	return &Store{
		embeddings: embeddings,
		pca:        pca,
		ids:        ids,
		parents:    parents,
		titles:     titles,
		urls:       urls,
		intro:      intro,
		condition:  condition,
		symptoms:   symptoms,
	}, nil
}

// Len returns the number of embedding rows.
func (s *Store) Len() int {
	return len(s.ids)
}

// Dim returns the dimension of the raw embedding space.
func (s *Store) Dim() int {
	return s.embeddings.cols
}

// GetSimilar returns up to n document ids ranked by descending dot-product
// similarity to query. The dot product is the only operation performed;
// callers normalize their vectors when cosine similarity is intended.
//
// When filter is non-nil, rows whose id is absent from it are discarded
// before ranking. Ties keep their original row order. n larger than the
// eligible set returns all of it; n = 0 returns nothing.
func (s *Store) GetSimilar(query []float32, n int, filter map[DocID]struct{}) ([]DocID, error) {
	if len(query) != s.embeddings.cols {
		return nil, clinterr.Errorf(clinterr.CodeCorpusQueryInvalidInput,
			"corpus: query dimension %d, corpus dimension %d", len(query), s.embeddings.cols)
	}

	scores := s.embeddings.mulVec(query)

	eligible := make([]int, 0, len(s.ids))
	for i, id := range s.ids {
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		eligible = append(eligible, i)
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		return scores[eligible[a]] > scores[eligible[b]]
	})

	if n > len(eligible) {
		n = len(eligible)
	}
	out := make([]DocID, 0, n)
	for _, i := range eligible[:n] {
		out = append(out, s.ids[i])
	}
	return out, nil
}

// GetPCAMapped projects query through the configured mapping, or returns a
// copy of it unchanged when no mapping is configured.
func (s *Store) GetPCAMapped(query []float32) ([]float32, error) {
	if s.pca == nil {
		out := make([]float32, len(query))
		copy(out, query)
		return out, nil
	}
	if len(query) != s.pca.rows {
		return nil, clinterr.Errorf(clinterr.CodeCorpusQueryInvalidInput,
			"corpus: query dimension %d, mapping input dimension %d", len(query), s.pca.rows)
	}
	return s.pca.vecMul(query), nil
}

// Parent returns the parent document of id, if it has one.
func (s *Store) Parent(id DocID) (DocID, bool) {
	p, ok := s.parents[id]
	return p, ok
}

// Title returns the title of id, if one is known.
func (s *Store) Title(id DocID) (string, bool) {
	t, ok := s.titles[id]
	return t, ok
}

// URL returns the canonical URL of id, if one is known.
func (s *Store) URL(id DocID) (string, bool) {
	u, ok := s.urls[id]
	return u, ok
}

// IsIntroduction reports whether id is an introduction section.
func (s *Store) IsIntroduction(id DocID) bool {
	_, ok := s.intro[id]
	return ok
}

// IsCondition reports whether id describes a diagnosis or condition.
func (s *Store) IsCondition(id DocID) bool {
	_, ok := s.condition[id]
	return ok
}

// IsSymptoms reports whether id is a symptoms section for a condition.
func (s *Store) IsSymptoms(id DocID) bool {
	_, ok := s.symptoms[id]
	return ok
}

// CategorySet returns a fresh union of the named membership sets, suitable
// as a GetSimilar filter.
func (s *Store) CategorySet(cats ...Category) map[DocID]struct{} {
	out := make(map[DocID]struct{})
	for _, cat := range cats {
		var src map[DocID]struct{}
		switch cat {
		case CategoryIntroduction:
			src = s.intro
		case CategoryCondition:
			src = s.condition
		case CategorySymptom:
			src = s.symptoms
		default:
			continue
		}
		for id := range src {
			out[id] = struct{}{}
		}
	}
	return out
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		out = append(out, line)
	}
	return out
}

func parseIDList(data []byte) ([]DocID, error) {
	lines := splitLines(data)
	ids := make([]DocID, 0, len(lines))
	for _, line := range lines {
		id, err := ParseDocID(string(line))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIDSet(data []byte) (map[DocID]struct{}, error) {
	set := make(map[DocID]struct{})
	for _, line := range splitLines(data) {
		id, err := ParseDocID(string(line))
		if err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func splitRecord(line []byte, field string) (DocID, []byte, error) {
	key, value, ok := bytes.Cut(line, []byte{'\t'})
	if !ok {
		return DocID{}, nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidRecord,
			"corpus: %s line lacks two columns", field)
	}
	id, err := ParseDocID(string(key))
	if err != nil {
		return DocID{}, nil, err
	}
	return id, value, nil
}

func parseParentRecords(data []byte) (map[DocID]DocID, error) {
	out := make(map[DocID]DocID)
	for _, line := range splitLines(data) {
		id, value, err := splitRecord(line, "parent")
		if err != nil {
			return nil, err
		}
		parent, err := ParseDocID(string(value))
		if err != nil {
			return nil, err
		}
		if _, ok := out[id]; !ok {
			out[id] = parent
		}
	}
	return out, nil
}

func parseTextRecords(data []byte, field string) (map[DocID]string, error) {
	out := make(map[DocID]string)
	for _, line := range splitLines(data) {
		id, value, err := splitRecord(line, field)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(value) {
			return nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidRecord,
				"corpus: %s line isn't a valid string", field)
		}
		if _, ok := out[id]; !ok {
			out[id] = string(value)
		}
	}
	return out, nil
}
