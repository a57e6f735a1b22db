// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package assistant orchestrates retrieval: embed a query, project it into
// the corpus retrieval space, rank documents, and assemble excerpt context
// for the chat model.
package assistant

import (
	"context"

	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/docs"
)

// Embedder turns text into a vector in the raw embedding space.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ExcerptFetcher assembles excerpt strings for a batch of document ids.
type ExcerptFetcher interface {
	Excerpts(ctx context.Context, meta docs.Meta, ids []corpus.DocID) []string
}

// Result is one ranked retrieval hit with its display metadata.
type Result struct {
	ID    corpus.DocID `json:"id"`
	Title string       `json:"title,omitempty"`
	URL   string       `json:"url,omitempty"`
}

// Assistant ties the corpus, the embedder, and the document fetcher
// together. Safe for concurrent use.
type Assistant struct {
	store    *corpus.Store
	embedder Embedder
	fetcher  ExcerptFetcher
}

func New(store *corpus.Store, embedder Embedder, fetcher ExcerptFetcher) *Assistant {
	return &Assistant{store: store, embedder: embedder, fetcher: fetcher}
}

// Store exposes the underlying corpus for callers that need raw lookups.
func (a *Assistant) Store() *corpus.Store {
	return a.store
}

// EmbedForCorpus embeds text and projects it into the retrieval space.
func (a *Assistant) EmbedForCorpus(ctx context.Context, text string) ([]float32, error) {
	vec, err := a.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	return a.store.GetPCAMapped(vec)
}

// Retrieve returns the n documents most similar to text, restricted to cats
// when any are given, with titles and URLs resolved.
func (a *Assistant) Retrieve(ctx context.Context, text string, n int, cats ...corpus.Category) ([]Result, error) {
	query, err := a.EmbedForCorpus(ctx, text)
	if err != nil {
		return nil, err
	}

	var filter map[corpus.DocID]struct{}
	if len(cats) > 0 {
		filter = a.store.CategorySet(cats...)
	}
	ids, err := a.store.GetSimilar(query, n, filter)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		result := Result{ID: id}
		result.Title, _ = a.store.Title(id)
		result.URL, _ = a.store.URL(id)
		results = append(results, result)
	}
	return results, nil
}

// Excerpts fetches excerpt context for the n documents most similar to
// text. Documents that fail to fetch are dropped.
func (a *Assistant) Excerpts(ctx context.Context, text string, n int) ([]string, error) {
	query, err := a.EmbedForCorpus(ctx, text)
	if err != nil {
		return nil, err
	}
	ids, err := a.store.GetSimilar(query, n, nil)
	if err != nil {
		return nil, err
	}
	return a.fetcher.Excerpts(ctx, a.store, ids), nil
}
