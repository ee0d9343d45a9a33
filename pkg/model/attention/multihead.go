package attention

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"attnviz/pkg/tensor"
)

// MultiHeadAttention holds the projection weights for a multi-head
// self-attention forward pass.
//
// The weights are not trained. They are sampled once when the layer is
// created, from a seeded source, so a run's heatmaps are reproducible. Each
// projection is a full D×D matrix; heads operate on contiguous D/H-wide
// column bands of the projected matrices.
type MultiHeadAttention struct {
	NumHeads int
	ModelDim int
	HeadDim  int

	WQuery  *tensor.Tensor // (D, D)
	WKey    *tensor.Tensor // (D, D)
	WValue  *tensor.Tensor // (D, D)
	OutProj *tensor.Tensor // (D, D)
}

// NewMultiHeadAttention creates a layer with randomly initialized
// projections. Weights are drawn from Normal(0, 1/sqrt(D)); the scale keeps
// pre-softmax scores in a range where the heatmaps are neither uniform nor
// saturated.
func NewMultiHeadAttention(modelDim, numHeads int, seed uint64) (*MultiHeadAttention, error) {
	if modelDim <= 0 {
		return nil, errors.Errorf("model dimension must be positive, got %d", modelDim)
	}
	if numHeads <= 0 {
		return nil, errors.Errorf("number of heads must be positive, got %d", numHeads)
	}
	if modelDim%numHeads != 0 {
		return nil, errors.Errorf("model dimension (%d) must be divisible by number of heads (%d)",
			modelDim, numHeads)
	}

	normal := distuv.Normal{
		Mu:    0,
		Sigma: 1 / math.Sqrt(float64(modelDim)),
		Src:   rand.NewSource(seed),
	}

	return &MultiHeadAttention{
		NumHeads: numHeads,
		ModelDim: modelDim,
		HeadDim:  modelDim / numHeads,
		WQuery:   randomMatrix(modelDim, normal),
		WKey:     randomMatrix(modelDim, normal),
		WValue:   randomMatrix(modelDim, normal),
		OutProj:  randomMatrix(modelDim, normal),
	}, nil
}

func randomMatrix(dim int, normal distuv.Normal) *tensor.Tensor {
	m := tensor.New(dim, dim)
	for i := range m.Data {
		m.Data[i] = normal.Rand()
	}
	return m
}

// Forward computes multi-head self-attention over x.
//
// Input shapes:
//   - x: (N, D) embeddings, already combined with positional encoding
//   - mask: (N, N) additive penalties from Build, or nil for full attention
//
// Returns the (N, D) output matrix and the (H, N, N) per-head attention
// weights. Every weight row is non-negative and sums to 1.
//
// Per head h with band [h*Dh, (h+1)*Dh):
//  1. scores = Q_h K_h^T / sqrt(Dh)
//  2. scores += mask
//  3. weights_h = softmax(scores) row-wise, with max subtraction
//  4. out_h = weights_h V_h
//
// Head outputs are concatenated and passed through the output projection.
func (mha *MultiHeadAttention) Forward(x, mask *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	if x.NumDims() != 2 || x.Cols() != mha.ModelDim {
		return nil, nil, errors.Errorf("expected input shape (N, %d), got %s",
			mha.ModelDim, x.ShapeString())
	}
	n := x.Rows()
	if mask != nil {
		if mask.NumDims() != 2 || mask.Rows() != n || mask.Cols() != n {
			return nil, nil, errors.Errorf("mask shape %s does not match sequence length %d",
				mask.ShapeString(), n)
		}
	}

	q, err := tensor.Matmul(x, mha.WQuery)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "query projection")
	}
	k, err := tensor.Matmul(x, mha.WKey)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "key projection")
	}
	v, err := tensor.Matmul(x, mha.WValue)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "value projection")
	}

	concat := tensor.New(n, mha.ModelDim)
	weights := tensor.New(mha.NumHeads, n, n)
	scale := 1 / math.Sqrt(float64(mha.HeadDim))

	for h := 0; h < mha.NumHeads; h++ {
		start, end := h*mha.HeadDim, (h+1)*mha.HeadDim

		qh, err := q.SliceCols(start, end)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d query band", h)
		}
		kh, err := k.SliceCols(start, end)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d key band", h)
		}
		vh, err := v.SliceCols(start, end)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d value band", h)
		}

		khT, err := kh.Transpose2D()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d key transpose", h)
		}
		scores, err := tensor.Matmul(qh, khT)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d scores", h)
		}
		scores = scores.Scale(scale)

		if mask != nil {
			scores, err = tensor.Add(scores, mask)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "head %d mask", h)
			}
		}

		wh := tensor.SoftmaxRows(scores)
		copy(weights.Data[h*n*n:(h+1)*n*n], wh.Data)

		outh, err := tensor.Matmul(wh, vh)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "head %d value aggregation", h)
		}
		if err := concat.SetCols(start, outh); err != nil {
			return nil, nil, errors.Wrapf(err, "head %d concatenation", h)
		}
	}

	output, err := tensor.Matmul(concat, mha.OutProj)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "output projection")
	}
	return output, weights, nil
}

// HeadWeights returns the N×N weight matrix of head h from the (H, N, N)
// weights tensor produced by Forward.
func HeadWeights(weights *tensor.Tensor, h int) (*tensor.Tensor, error) {
	if weights.NumDims() != 3 {
		return nil, errors.Errorf("expected (H, N, N) weights, got %s", weights.ShapeString())
	}
	numHeads, n := weights.Shape[0], weights.Shape[1]
	if h < 0 || h >= numHeads {
		return nil, errors.Errorf("head %d out of range (have %d heads)", h, numHeads)
	}
	return tensor.FromSlice(weights.Data[h*n*n:(h+1)*n*n], n, n)
}

// MeanWeights averages the (H, N, N) weights tensor across heads.
func MeanWeights(weights *tensor.Tensor) (*tensor.Tensor, error) {
	if weights.NumDims() != 3 {
		return nil, errors.Errorf("expected (H, N, N) weights, got %s", weights.ShapeString())
	}
	numHeads, n := weights.Shape[0], weights.Shape[1]
	mean := tensor.New(n, n)
	for h := 0; h < numHeads; h++ {
		for i := 0; i < n*n; i++ {
			mean.Data[i] += weights.Data[h*n*n+i]
		}
	}
	for i := range mean.Data {
		mean.Data[i] /= float64(numHeads)
	}
	return mean, nil
}
