// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package corpus

// matrix is a dense row-major float32 matrix. Values are validated non-NaN
// at construction, so score comparisons downstream are total.
type matrix struct {
	rows, cols int
	data       []float32
}

func (m *matrix) at(i, j int) float32 {
	return m.data[i*m.cols+j]
}

// mulVec computes m · q: one dot product per row. len(q) must equal m.cols.
func (m *matrix) mulVec(q []float32) []float32 {
	out := make([]float32, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var sum float32
		for j, v := range row {
			sum += v * q[j]
		}
		out[i] = sum
	}
	return out
}

// vecMul computes q · m: the row vector q projected through m.
// len(q) must equal m.rows.
func (m *matrix) vecMul(q []float32) []float32 {
	out := make([]float32, m.cols)
	for i, qi := range q {
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j, v := range row {
			out[j] += qi * v
		}
	}
	return out
}
