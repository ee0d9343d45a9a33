package model

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"attnviz/pkg/tensor"
)

// Embedder produces demonstration embeddings for tokens. Vectors are drawn
// from a standard normal distribution through a seeded source, and cached
// per token, so the same token always maps to the same vector within a run
// and across runs with the same seed.
//
// To make the heatmaps less arbitrary, tokens that share a first letter get
// correlated vectors: the first half of the dimensions is scaled by the
// letter's position in the alphabet. Content similarity then shows up as
// attention structure even without trained weights.
type Embedder struct {
	dim    int
	normal distuv.Normal
	cache  map[string][]float64
}

// NewEmbedder creates an embedder for the given dimension and seed.
func NewEmbedder(dim int, seed uint64) (*Embedder, error) {
	if dim <= 0 {
		return nil, errors.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &Embedder{
		dim: dim,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
		cache: make(map[string][]float64),
	}, nil
}

// Embed returns an N×D matrix with one row per token.
func (e *Embedder) Embed(tokens []string) (*tensor.Tensor, error) {
	if len(tokens) == 0 {
		return nil, errors.New("cannot embed an empty token sequence")
	}
	result := tensor.New(len(tokens), e.dim)
	for i, tok := range tokens {
		copy(result.Row(i), e.vector(tok))
	}
	return result, nil
}

// vector returns the cached embedding for a token, sampling it on first use.
func (e *Embedder) vector(tok string) []float64 {
	if v, ok := e.cache[tok]; ok {
		return v
	}

	v := make([]float64, e.dim)
	for i := range v {
		v[i] = e.normal.Rand()
	}

	// First-letter similarity heuristic: scale the first half of the
	// dimensions by the initial letter's alphabet position.
	scale := 0.0
	if len(tok) > 0 && tok[0] >= 'a' && tok[0] <= 'z' {
		scale = float64(tok[0]-'a') / 26.0
	}
	for i := 0; i < e.dim/2; i++ {
		v[i] *= scale
	}

	e.cache[tok] = v
	return v
}
