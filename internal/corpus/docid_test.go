// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus_test

import (
	"strings"
	"testing"

	"github.com/clint-dev/clint/internal/corpus"
	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocID_RoundTrip(t *testing.T) {
	hex := "0123456789abcdef0123456789abcdef"
	id, err := corpus.ParseDocID(hex)
	require.NoError(t, err)
	assert.Equal(t, hex, id.String())
}

func TestParseDocID_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "abcd"},
		{"too long", strings.Repeat("a", 34)},
		{"non-hex characters", strings.Repeat("zz", 16)},
		{"uppercase-mixed junk", "0123456789abcdef0123456789abcdeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := corpus.ParseDocID(tt.input)
			require.Error(t, err)
			assert.True(t, clinterr.HasCode(err, clinterr.CodeCorpusConstructInvalidID))
		})
	}
}
