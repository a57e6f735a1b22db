// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// Conventional filenames inside a corpus directory.
const (
	FileEmbeddings   = "embeddings.npy"
	FilePCAMapping   = "embeddings_pca_mapping.npy"
	FileIDs          = "embeddings_id.txt"
	FileParents      = "parents.tsv"
	FileTitles       = "titles.tsv"
	FileURLs         = "urls.tsv"
	FileIntroduction = "is_introduction.txt"
	FileCondition    = "is_condition.txt"
	FileSymptoms     = "is_symptoms.txt"
)

// LoadDir reads the conventional corpus files from dir and builds a Store.
// The PCA mapping file is optional; everything else must be present.
func LoadDir(dir string) (*Store, error) {
	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, clinterr.Wrapf(err, clinterr.CodeCorpusLoadReadFailure,
				"reading corpus file %s", name)
		}
		return data, nil
	}

	var res Resources
	var err error

	if res.Embeddings, err = read(FileEmbeddings); err != nil {
		return nil, err
	}
	if res.IDs, err = read(FileIDs); err != nil {
		return nil, err
	}
	if res.Parents, err = read(FileParents); err != nil {
		return nil, err
	}
	if res.Titles, err = read(FileTitles); err != nil {
		return nil, err
	}
	if res.URLs, err = read(FileURLs); err != nil {
		return nil, err
	}
	if res.Introduction, err = read(FileIntroduction); err != nil {
		return nil, err
	}
	if res.Condition, err = read(FileCondition); err != nil {
		return nil, err
	}
	if res.Symptoms, err = read(FileSymptoms); err != nil {
		return nil, err
	}

	res.PCAMapping, err = os.ReadFile(filepath.Join(dir, FilePCAMapping))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, clinterr.Wrapf(err, clinterr.CodeCorpusLoadReadFailure,
				"reading corpus file %s", FilePCAMapping)
		}
		res.PCAMapping = nil
	}

	return New(res)
}
