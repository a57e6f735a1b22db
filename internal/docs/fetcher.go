// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package docs fetches document bodies from the corpus content origin and
// assembles excerpts for retrieval-augmented prompts.
package docs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clint-dev/clint/internal/corpus"
	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// Meta is the slice of corpus metadata excerpt assembly needs.
// *corpus.Store satisfies it.
type Meta interface {
	Parent(id corpus.DocID) (corpus.DocID, bool)
	Title(id corpus.DocID) (string, bool)
}

// Fetcher retrieves documents from a content origin that lays files out as
// {origin}/db/documents/{c0}/{c1}/{c2}/{hex}.md, sharding on the first three
// hex characters of the document id.
type Fetcher struct {
	origin string
	http   *http.Client
}

// NewFetcher creates a Fetcher for origin. A nil client gets a default with
// a request timeout.
func NewFetcher(origin string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{origin: strings.TrimSuffix(origin, "/"), http: client}
}

// URL returns the content address for id.
func (f *Fetcher) URL(id corpus.DocID) string {
	hex := id.String()
	return fmt.Sprintf("%s/db/documents/%c/%c/%c/%s.md", f.origin, hex[0], hex[1], hex[2], hex)
}

// Document fetches the raw markdown body for id.
func (f *Fetcher) Document(ctx context.Context, id corpus.DocID) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(id), nil)
	if err != nil {
		return "", clinterr.Wrap(err, clinterr.CodeDocsFetchFailure,
			"docs: building request", clinterr.FieldDocID(id.String()))
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", clinterr.Wrap(err, clinterr.CodeDocsFetchFailure,
			"docs: fetching document", clinterr.FieldDocID(id.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", clinterr.New(clinterr.CodeDocsFetchFailure,
			"docs: unexpected document status",
			clinterr.FieldDocID(id.String()),
			clinterr.Field("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", clinterr.Wrap(err, clinterr.CodeDocsFetchFailure,
			"docs: reading document body", clinterr.FieldDocID(id.String()))
	}
	return string(body), nil
}

// Excerpt fetches id and frames its body with the ancestor title chain and
// an id trailer, so the model can cite the document it quotes.
func (f *Fetcher) Excerpt(ctx context.Context, meta Meta, id corpus.DocID) (string, error) {
	body, err := f.Document(ctx, id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if chain := TitleChain(meta, id); chain != "" {
		b.WriteString("# ")
		b.WriteString(chain)
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n<id:")
	b.WriteString(id.String())
	b.WriteString(">")
	return b.String(), nil
}

// Excerpts fetches excerpts for ids in order. Ids that fail to fetch are
// dropped, not fatal: a partial context beats no context.
func (f *Fetcher) Excerpts(ctx context.Context, meta Meta, ids []corpus.DocID) []string {
	excerpts := make([]string, 0, len(ids))
	for _, id := range ids {
		excerpt, err := f.Excerpt(ctx, meta, id)
		if err != nil {
			slog.Warn("dropping document from excerpt batch", "doc_id", id.String(), "error", err)
			continue
		}
		excerpts = append(excerpts, excerpt)
	}
	return excerpts
}

// TitleChain renders the titles from id's root ancestor down to id itself,
// joined with " > ". Untitled nodes are skipped. The walk carries a visited
// set: parent records come from data, so a cycle must not hang the caller.
func TitleChain(meta Meta, id corpus.DocID) string {
	visited := map[corpus.DocID]struct{}{}
	var titles []string

	for current := id; ; {
		if _, seen := visited[current]; seen {
			break
		}
		visited[current] = struct{}{}

		if title, ok := meta.Title(current); ok {
			titles = append(titles, title)
		}

		parent, ok := meta.Parent(current)
		if !ok {
			break
		}
		current = parent
	}

	for i, j := 0, len(titles)-1; i < j; i, j = i+1, j-1 {
		titles[i], titles[j] = titles[j], titles[i]
	}
	return strings.Join(titles, " > ")
}
