package model

import (
	"math"

	"github.com/pkg/errors"

	"attnviz/pkg/tensor"
)

// PositionalEncoding is the fixed sinusoidal scheme from "Attention Is All
// You Need": for even dimension index i, entry (pos, i) is
// sin(pos / 10000^(i/D)), and entry (pos, i+1) is the cosine of the same
// argument. It is a pure function of position and dimension, precomputed as
// a table up to MaxLen.
type PositionalEncoding struct {
	Dim    int
	MaxLen int

	table *tensor.Tensor
}

// NewPositionalEncoding precomputes the encoding table for sequences up to
// maxLen positions.
func NewPositionalEncoding(dim, maxLen int) (*PositionalEncoding, error) {
	if dim <= 0 {
		return nil, errors.Errorf("encoding dimension must be positive, got %d", dim)
	}
	if maxLen <= 0 {
		return nil, errors.Errorf("maximum length must be positive, got %d", maxLen)
	}

	table := tensor.New(maxLen, dim)
	for pos := 0; pos < maxLen; pos++ {
		for i := 0; i < dim; i += 2 {
			angle := float64(pos) / math.Pow(10000, float64(i)/float64(dim))
			table.Set(math.Sin(angle), pos, i)
			if i+1 < dim {
				table.Set(math.Cos(angle), pos, i+1)
			}
		}
	}

	return &PositionalEncoding{Dim: dim, MaxLen: maxLen, table: table}, nil
}

// Table returns the full MaxLen×Dim encoding matrix.
func (pe *PositionalEncoding) Table() *tensor.Tensor {
	return pe.table
}

// AddTo returns embeddings + positional encoding, row for row. Errors if the
// sequence is longer than the precomputed table or the dimensions disagree.
func (pe *PositionalEncoding) AddTo(embeddings *tensor.Tensor) (*tensor.Tensor, error) {
	if embeddings.NumDims() != 2 || embeddings.Cols() != pe.Dim {
		return nil, errors.Errorf("embeddings shape %s does not match encoding dimension %d",
			embeddings.ShapeString(), pe.Dim)
	}
	n := embeddings.Rows()
	if n > pe.MaxLen {
		return nil, errors.Errorf("sequence length %d exceeds encoding table length %d", n, pe.MaxLen)
	}

	result := tensor.New(n, pe.Dim)
	for i := 0; i < n; i++ {
		erow := embeddings.Row(i)
		prow := pe.table.Row(i)
		out := result.Row(i)
		for j := range out {
			out[j] = erow[j] + prow[j]
		}
	}
	return result, nil
}
