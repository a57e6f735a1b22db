// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package assistant

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vec []float32
}

func (e *fixedEmbedder) CreateEmbedding(context.Context, string) ([]float32, error) {
	return e.vec, nil
}

type fakeFetcher struct {
	got []corpus.DocID
}

func (f *fakeFetcher) Excerpts(_ context.Context, _ docs.Meta, ids []corpus.DocID) []string {
	f.got = ids
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "excerpt " + id.String()[:4]
	}
	return out
}

func npy(t *testing.T, rows, cols int, values []float32) []byte {
	t.Helper()
	require.Len(t, values, rows*cols)
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }\n", rows, cols)
	buf := []byte("\x93NUMPY\x01\x00")
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func hex(b byte) string {
	return strings.Repeat(string("0123456789abcdef"[b&0xf]), 32)
}

func id(t *testing.T, b byte) corpus.DocID {
	t.Helper()
	parsed, err := corpus.ParseDocID(hex(b))
	require.NoError(t, err)
	return parsed
}

// testAssistant retrieves over a 4-dimensional embedding space projected
// down to two retrieval dimensions, so EmbedForCorpus is exercised for real.
func testAssistant(t *testing.T, embedder Embedder, fetcher ExcerptFetcher) *Assistant {
	t.Helper()
	store, err := corpus.New(corpus.Resources{
		Embeddings: npy(t, 3, 2, []float32{
			0, 1,
			1, 0,
			1, 1,
		}),
		PCAMapping: npy(t, 4, 2, []float32{
			1, 0,
			0, 1,
			0, 0,
			0, 0,
		}),
		IDs:          []byte(hex(1) + "\n" + hex(2) + "\n" + hex(3) + "\n"),
		Titles:       []byte(hex(1) + "\tChest pain\n" + hex(2) + "\tHeartburn\n"),
		URLs:         []byte(hex(2) + "\thttps://example.org/heartburn\n"),
		Introduction: []byte(hex(1) + "\n"),
		Condition:    []byte(hex(3) + "\n"),
		Symptoms:     []byte(hex(2) + "\n"),
	})
	require.NoError(t, err)
	return New(store, embedder, fetcher)
}

func TestEmbedForCorpus_Projects(t *testing.T) {
	a := testAssistant(t, &fixedEmbedder{vec: []float32{0.5, 0.25, 9, 9}}, &fakeFetcher{})

	got, err := a.EmbedForCorpus(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, got)
}

func TestRetrieve(t *testing.T) {
	// Projects to (1, 0): closest rows are 2...2 then 3...3.
	a := testAssistant(t, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, &fakeFetcher{})

	results, err := a.Retrieve(context.Background(), "burning chest", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, id(t, 2), results[0].ID)
	assert.Equal(t, "Heartburn", results[0].Title)
	assert.Equal(t, "https://example.org/heartburn", results[0].URL)
	assert.Equal(t, id(t, 3), results[1].ID)
	assert.Empty(t, results[1].Title, "untitled documents still rank")
}

func TestRetrieve_CategoryFilter(t *testing.T) {
	a := testAssistant(t, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, &fakeFetcher{})

	results, err := a.Retrieve(context.Background(), "burning chest", 5,
		corpus.CategoryIntroduction, corpus.CategorySymptom)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, id(t, 2), results[0].ID)
	assert.Equal(t, id(t, 1), results[1].ID)
}

func TestExcerpts(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := testAssistant(t, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, fetcher)

	excerpts, err := a.Excerpts(context.Background(), "burning chest", 2)
	require.NoError(t, err)

	assert.Equal(t, []corpus.DocID{id(t, 2), id(t, 3)}, fetcher.got)
	require.Len(t, excerpts, 2)
	assert.True(t, strings.HasPrefix(excerpts[0], "excerpt "))
}
