package model

import (
	"github.com/pkg/errors"

	"attnviz/pkg/model/attention"
	"attnviz/pkg/tensor"
)

// AttentionModel ties the pipeline together: tokens are embedded, combined
// with positional encoding, and passed through a single multi-head
// self-attention layer. It holds the only per-run state there is — the
// randomly initialized embeddings and projection weights.
type AttentionModel struct {
	Config     Config
	Embedder   *Embedder
	Positional *PositionalEncoding
	Attention  *attention.MultiHeadAttention
}

// maxSequenceLen bounds the precomputed positional table. Demonstration
// sentences are far shorter.
const maxSequenceLen = 512

// New creates a model from a validated configuration.
func New(cfg Config) (*AttentionModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration")
	}

	embedder, err := NewEmbedder(cfg.EmbeddingDim, cfg.Seed)
	if err != nil {
		return nil, err
	}
	positional, err := NewPositionalEncoding(cfg.EmbeddingDim, maxSequenceLen)
	if err != nil {
		return nil, err
	}
	// Offset the seed so projection weights and embeddings draw from
	// independent streams.
	mha, err := attention.NewMultiHeadAttention(cfg.EmbeddingDim, cfg.NumHeads, cfg.Seed+1)
	if err != nil {
		return nil, err
	}

	return &AttentionModel{
		Config:     cfg,
		Embedder:   embedder,
		Positional: positional,
		Attention:  mha,
	}, nil
}

// Result is one visualization run: the attention weights to render, plus
// everything needed to annotate them.
type Result struct {
	// Tokens label the heatmap axes.
	Tokens []string

	// Output is the final (N, D) matrix after head concatenation and output
	// projection.
	Output *tensor.Tensor

	// Weights are the (H, N, N) per-head attention weights.
	Weights *tensor.Tensor

	// Mask is the (N, N) additive mask that was applied.
	Mask *tensor.Tensor
}

// Analyze runs the full pipeline on a token sequence.
//
// The usePositional switch exists for the encoding comparison demo; normal
// runs pass true.
func (m *AttentionModel) Analyze(tokens []string, usePositional bool) (*Result, error) {
	if len(tokens) == 0 {
		return nil, errors.New("cannot analyze an empty token sequence")
	}
	n := len(tokens)

	embeddings, err := m.Embedder.Embed(tokens)
	if err != nil {
		return nil, errors.Wrapf(err, "embedding %d tokens", n)
	}

	x := embeddings
	if usePositional {
		x, err = m.Positional.AddTo(embeddings)
		if err != nil {
			return nil, errors.Wrapf(err, "adding positional encoding")
		}
	}

	mask, err := attention.Build(n, m.Config.MaskMode, m.maskOptions(n))
	if err != nil {
		return nil, errors.Wrapf(err, "building %s mask", m.Config.MaskMode)
	}

	output, weights, err := m.Attention.Forward(x, mask)
	if err != nil {
		return nil, errors.Wrapf(err, "attention forward pass")
	}

	return &Result{
		Tokens:  tokens,
		Output:  output,
		Weights: weights,
		Mask:    mask,
	}, nil
}

// maskOptions resolves configured mask parameters against the
// sequence-length defaults.
func (m *AttentionModel) maskOptions(n int) attention.MaskOptions {
	opts := attention.MaskOptions{
		WindowRadius:    m.Config.WindowRadius,
		GlobalPositions: m.Config.GlobalPositions,
	}
	if opts.WindowRadius < 0 {
		opts.WindowRadius = attention.DefaultWindowRadius(n)
	}
	if m.Config.MaskMode == attention.MaskGlobalLocal && len(opts.GlobalPositions) == 0 {
		opts.GlobalPositions = attention.DefaultGlobalPositions(n)
	}
	return opts
}

// NumHeads returns the number of heads in the result's weights tensor.
func (r *Result) NumHeads() int {
	return r.Weights.Shape[0]
}

// HeadWeights returns head h's N×N weight matrix.
func (r *Result) HeadWeights(h int) (*tensor.Tensor, error) {
	return attention.HeadWeights(r.Weights, h)
}

// MeanWeights averages the attention weights across heads.
func (r *Result) MeanWeights() (*tensor.Tensor, error) {
	return attention.MeanWeights(r.Weights)
}

// MostAttended returns, for each query position, the key position that
// receives the highest head-averaged attention weight.
func (r *Result) MostAttended() ([]int, error) {
	mean, err := r.MeanWeights()
	if err != nil {
		return nil, err
	}
	n := len(r.Tokens)
	best := make([]int, n)
	for i := 0; i < n; i++ {
		row := mean.Row(i)
		for j, w := range row {
			if w > row[best[i]] {
				best[i] = j
			}
		}
	}
	return best, nil
}
