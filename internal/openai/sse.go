// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package openai

import (
	"bufio"
	"io"
	"strings"
)

// sseReader pulls server-sent events off a response body one at a time. An
// event is the data lines accumulated up to a blank line, joined with
// newlines. Comment lines and non-data fields (event, id, retry) are
// ignored; the completion protocol carries everything in data.
type sseReader struct {
	scanner *bufio.Scanner
	data    []string
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next returns the data payload of the next event. ok is false once the
// stream is exhausted; err reports a read failure.
func (r *sseReader) Next() (data string, ok bool, err error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if len(r.data) == 0 {
				continue
			}
			data = strings.Join(r.data, "\n")
			r.data = r.data[:0]
			return data, true, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			r.data = append(r.data, value)
		}
	}
	if err := r.scanner.Err(); err != nil {
		return "", false, err
	}

	// A final event without a trailing blank line still counts.
	if len(r.data) > 0 {
		data = strings.Join(r.data, "\n")
		r.data = nil
		return data, true, nil
	}
	return "", false, nil
}
