// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package diagnose

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/clint-dev/clint/internal/corpus"
	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vec []float32
}

func (e *fixedEmbedder) CreateEmbedding(context.Context, string) ([]float32, error) {
	return e.vec, nil
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

func id(t *testing.T, b byte) corpus.DocID {
	t.Helper()
	parsed, err := corpus.ParseDocID(strings.Repeat(string("0123456789abcdef"[b&0xf]), 32))
	require.NoError(t, err)
	return parsed
}

func hex(b byte) string {
	return strings.Repeat(string("0123456789abcdef"[b&0xf]), 32)
}

// testStore builds a corpus of two conditions and four leaf documents:
//
//	row 0: condition "Angina"   (1...1), embedding (0, 0)
//	row 1: condition "Reflux"   (2...2), embedding (0, 0)
//	row 2: symptom  -> Angina   (3...3), embedding (1, 0)
//	row 3: intro    -> Angina   (4...4), embedding (0.9, 0.1)
//	row 4: symptom  -> Reflux   (5...5), embedding (0.5, 0.5)
//	row 5: symptom, parent cycle (6...6), embedding (0.4, 0.4)
func testStore(t *testing.T) *corpus.Store {
	t.Helper()
	store, err := corpus.New(corpus.Resources{
		Embeddings: npy(t, 6, 2, []float32{
			0, 0,
			0, 0,
			1, 0,
			0.9, 0.1,
			0.5, 0.5,
			0.4, 0.4,
		}),
		IDs: []byte(hex(1) + "\n" + hex(2) + "\n" + hex(3) + "\n" +
			hex(4) + "\n" + hex(5) + "\n" + hex(6) + "\n"),
		Parents: []byte(hex(3) + "\t" + hex(1) + "\n" +
			hex(4) + "\t" + hex(1) + "\n" +
			hex(5) + "\t" + hex(2) + "\n" +
			hex(6) + "\t" + hex(6) + "\n"),
		Titles:       []byte(hex(1) + "\tAngina\n" + hex(2) + "\tReflux\n"),
		URLs:         nil,
		Introduction: []byte(hex(4) + "\n"),
		Condition:    []byte(hex(1) + "\n" + hex(2) + "\n"),
		Symptoms:     []byte(hex(3) + "\n" + hex(5) + "\n" + hex(6) + "\n"),
	})
	require.NoError(t, err)
	return store
}

func TestResolve_MajorityCondition(t *testing.T) {
	store := testStore(t)
	embedder := &fixedEmbedder{vec: []float32{1, 0}}

	resolved, err := Resolve(context.Background(), embedder, store, "crushing chest pain")
	require.NoError(t, err)

	// Two of the top hits roll up to Angina, one to Reflux.
	assert.Equal(t, id(t, 1), resolved.ID)
	assert.Equal(t, "Angina", resolved.Name)
}

func TestResolve_CycledParentsAreSkipped(t *testing.T) {
	store := testStore(t)
	// The self-parented symptom ranks among the hits; its walk must
	// terminate and the resolution fall to the hits that do resolve.
	embedder := &fixedEmbedder{vec: []float32{0.4, 0.4}}

	resolved, err := Resolve(context.Background(), embedder, store, "vague unease")
	require.NoError(t, err)
	assert.NotEqual(t, id(t, 6), resolved.ID)
}

func TestResolve_NothingResolves(t *testing.T) {
	// A corpus whose only non-condition document is the self-parented one.
	store, err := corpus.New(corpus.Resources{
		Embeddings:   npy(t, 1, 2, []float32{1, 0}),
		IDs:          []byte(hex(6) + "\n"),
		Parents:      []byte(hex(6) + "\t" + hex(6) + "\n"),
		Symptoms:     []byte(hex(6) + "\n"),
		Introduction: nil,
		Condition:    nil,
	})
	require.NoError(t, err)

	_, resolveErr := Resolve(context.Background(), &fixedEmbedder{vec: []float32{1, 0}}, store, "anything")
	require.Error(t, resolveErr)
	assert.True(t, clinterr.HasCode(resolveErr, clinterr.CodeDiagnoseUnresolved))
	assert.True(t, clinterr.IsNotFound(resolveErr))
}

func TestResolve_UntitledConditionIsUnresolved(t *testing.T) {
	// One symptom rolling up to a condition the titles resource never names.
	store, err := corpus.New(corpus.Resources{
		Embeddings: npy(t, 2, 2, []float32{
			0, 0,
			1, 0,
		}),
		IDs:       []byte(hex(1) + "\n" + hex(3) + "\n"),
		Parents:   []byte(hex(3) + "\t" + hex(1) + "\n"),
		Titles:    nil,
		Condition: []byte(hex(1) + "\n"),
		Symptoms:  []byte(hex(3) + "\n"),
	})
	require.NoError(t, err)

	_, resolveErr := Resolve(context.Background(), &fixedEmbedder{vec: []float32{1, 0}}, store, "chest pain")
	require.Error(t, resolveErr)
	assert.True(t, clinterr.HasCode(resolveErr, clinterr.CodeDiagnoseUnresolved))
	assert.True(t, clinterr.IsNotFound(resolveErr))
}

func TestResolve_ConditionsExcludedFromRetrieval(t *testing.T) {
	store := testStore(t)
	// Conditions embed at the origin; nothing retrieves them directly, so a
	// resolution still has to come through the leaf documents.
	embedder := &fixedEmbedder{vec: []float32{0, 1}}

	resolved, err := Resolve(context.Background(), embedder, store, "burning sensation")
	require.NoError(t, err)
	assert.Contains(t, []corpus.DocID{id(t, 1), id(t, 2)}, resolved.ID)
}

func TestDedup(t *testing.T) {
	a, b := id(t, 1), id(t, 2)
	list := []Resolved{
		{ID: a, Name: "Angina"},
		{ID: b, Name: "Reflux"},
		{ID: a, Name: "Angina again"},
	}

	got := Dedup(list)
	require.Len(t, got, 2)
	assert.Equal(t, "Angina", got[0].Name)
	assert.Equal(t, "Reflux", got[1].Name)
}
