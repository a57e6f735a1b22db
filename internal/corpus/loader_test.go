// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus

import (
	"os"
	"path/filepath"
	"testing"

	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpusDir(t *testing.T, res Resources, withPCA bool) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string][]byte{
		FileEmbeddings:   res.Embeddings,
		FileIDs:          res.IDs,
		FileParents:      res.Parents,
		FileTitles:       res.Titles,
		FileURLs:         res.URLs,
		FileIntroduction: res.Introduction,
		FileCondition:    res.Condition,
		FileSymptoms:     res.Symptoms,
	}
	if withPCA {
		files[FilePCAMapping] = res.PCAMapping
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeCorpusDir(t, testResources(t), false)

	store, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 2, store.Dim())

	// No PCA file: retrieval space is raw embedding space.
	got, err := store.GetPCAMapped([]float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got)
}

func TestLoadDir_MissingRequiredFile(t *testing.T) {
	dir := writeCorpusDir(t, testResources(t), false)
	require.NoError(t, os.Remove(filepath.Join(dir, FileIDs)))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.True(t, clinterr.HasCode(err, clinterr.CodeCorpusLoadReadFailure))
}
