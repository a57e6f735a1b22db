// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus

import (
	"bytes"
	"encoding/binary"
	"math"
	"regexp"
	"strconv"
	"strings"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// The corpus matrices arrive as NPY buffers: the NumPy binary array format.
// Only what the corpus needs is supported — little-endian float32 payloads
// with a 2-D shape — in format versions 1.x and 2.x.
//
// https://numpy.org/doc/stable/reference/generated/numpy.lib.format.html

var npyMagic = []byte("\x93NUMPY")

// The header dict is written by NumPy with its keys in this fixed order.
var npyHeaderRe = regexp.MustCompile(
	`^\{\s*'descr':\s*'([^']+)',\s*'fortran_order':\s*(True|False),\s*'shape':\s*\(([^)]*)\),?\s*\}\s*$`)

// parseNPYMatrix decodes an NPY buffer into a row-major float32 matrix.
// Column-major (Fortran-order) payloads are transposed on load so the rest
// of the package only ever sees row-major data.
func parseNPYMatrix(data []byte) (*matrix, error) {
	header, payload, err := splitNPYHeader(data)
	if err != nil {
		return nil, err
	}

	m := npyHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
			"npy: malformed header %q", strings.TrimSpace(header))
	}

	descr, fortran, shape := m[1], m[2] == "True", m[3]
	if descr != "<f4" {
		return nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
			"npy: unsupported dtype %q, want little-endian float32", descr)
	}

	rows, cols, err := parseNPYShape(shape)
	if err != nil {
		return nil, err
	}

	want := rows * cols * 4
	if len(payload) != want {
		return nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
			"npy: payload is %d bytes, want %d for shape (%d, %d)", len(payload), want, rows, cols)
	}

	values := make([]float32, rows*cols)
	for i := range values {
		bits := binary.LittleEndian.Uint32(payload[i*4:])
		v := math.Float32frombits(bits)
		if v != v { // NaN
			return nil, clinterr.New(clinterr.CodeCorpusConstructNaN,
				"npy: array values must not be NaN")
		}
		values[i] = v
	}

	if fortran {
		// Payload is column-major: element (i, j) lives at j*rows + i.
		rowMajor := make([]float32, len(values))
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				rowMajor[i*cols+j] = values[j*rows+i]
			}
		}
		values = rowMajor
	}

	return &matrix{rows: rows, cols: cols, data: values}, nil
}

// splitNPYHeader validates the magic and version and returns the header
// string and the raw payload that follows it.
func splitNPYHeader(data []byte) (string, []byte, error) {
	if len(data) < len(npyMagic)+2 || !bytes.HasPrefix(data, npyMagic) {
		return "", nil, clinterr.New(clinterr.CodeCorpusConstructInvalidArray,
			"npy: missing magic prefix")
	}

	major := data[len(npyMagic)]
	rest := data[len(npyMagic)+2:]

	var headerLen, lenSize int
	switch major {
	case 1:
		lenSize = 2
		if len(rest) < lenSize {
			return "", nil, clinterr.New(clinterr.CodeCorpusConstructInvalidArray,
				"npy: truncated header length")
		}
		headerLen = int(binary.LittleEndian.Uint16(rest))
	case 2, 3:
		lenSize = 4
		if len(rest) < lenSize {
			return "", nil, clinterr.New(clinterr.CodeCorpusConstructInvalidArray,
				"npy: truncated header length")
		}
		headerLen = int(binary.LittleEndian.Uint32(rest))
	default:
		return "", nil, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
			"npy: unsupported format version %d", major)
	}

	rest = rest[lenSize:]
	if len(rest) < headerLen {
		return "", nil, clinterr.New(clinterr.CodeCorpusConstructInvalidArray,
			"npy: truncated header")
	}

	return string(rest[:headerLen]), rest[headerLen:], nil
}

// parseNPYShape parses the inside of the shape tuple, e.g. "3, 4". Only 2-D
// shapes are valid corpus input.
func parseNPYShape(shape string) (rows, cols int, err error) {
	parts := strings.Split(shape, ",")
	dims := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 {
			return 0, 0, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
				"npy: invalid shape dimension %q", p)
		}
		dims = append(dims, d)
	}
	if len(dims) != 2 {
		return 0, 0, clinterr.Errorf(clinterr.CodeCorpusConstructInvalidArray,
			"npy: want a 2-D array, got %d dimension(s)", len(dims))
	}
	return dims[0], dims[1], nil
}
