// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus

import (
	"encoding/hex"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// DocID is the opaque 16-byte identifier of a corpus document. In every text
// interchange format it appears as 32 lowercase hex characters.
type DocID [16]byte

// ParseDocID decodes a 32-character hex string into a DocID. Anything that
// does not decode to exactly 16 bytes is rejected.
func ParseDocID(s string) (DocID, error) {
	var id DocID
	if hex.DecodedLen(len(s)) != len(id) {
		return DocID{}, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidID,
			"doc id %q: want %d hex characters, got %d", s, hex.EncodedLen(len(id)), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return DocID{}, clinterr.Wrapf(err, clinterr.CodeCorpusConstructInvalidID,
			"doc id %q", s)
	}
	return id, nil
}

func (id DocID) String() string {
	return hex.EncodeToString(id[:])
}
