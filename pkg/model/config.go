// Package model assembles the pieces of the attention visualizer pipeline:
// token embeddings, sinusoidal positional encodings, and the multi-head
// self-attention forward pass over them.
//
// Nothing here is trained. Embeddings and projection weights are drawn once
// per run from a seeded random source, so repeated runs with the same seed
// produce identical visualizations.
package model

import (
	"github.com/pkg/errors"

	"attnviz/pkg/model/attention"
)

// Config holds the parameters of a visualization run.
type Config struct {
	// EmbeddingDim is the dimension of token embeddings (D).
	EmbeddingDim int

	// NumHeads is the number of attention heads (H). EmbeddingDim must be
	// divisible by NumHeads.
	NumHeads int

	// MaskMode selects the attention pattern (none, causal, local,
	// global-local).
	MaskMode attention.MaskMode

	// WindowRadius is the neighborhood radius for local and global-local
	// masks. Zero permits self-attention only; negative means "use the
	// sequence-length default" (max(1, n/4)).
	WindowRadius int

	// GlobalPositions are the positions every query may attend to under the
	// global-local mask. Empty means "use the default prefix" (the first
	// max(1, n/5) positions).
	GlobalPositions []int

	// Seed initializes embedding and projection weight sampling.
	Seed uint64
}

// DefaultConfig returns the demonstration parameters used by the CLI:
// a 64-dimensional embedding split across 4 heads, unmasked.
func DefaultConfig() Config {
	return Config{
		EmbeddingDim: 64,
		NumHeads:     4,
		MaskMode:     attention.MaskNone,
		WindowRadius: -1,
		Seed:         42,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.EmbeddingDim <= 0 {
		return errors.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	if c.NumHeads <= 0 {
		return errors.Errorf("number of heads must be positive, got %d", c.NumHeads)
	}
	if c.EmbeddingDim%c.NumHeads != 0 {
		return errors.Errorf("embedding dimension (%d) must be divisible by number of heads (%d)",
			c.EmbeddingDim, c.NumHeads)
	}
	for _, p := range c.GlobalPositions {
		if p < 0 {
			return errors.Errorf("global position must be non-negative, got %d", p)
		}
	}
	return nil
}

// HeadDimension returns the per-head dimension (D / H).
func (c Config) HeadDimension() int {
	return c.EmbeddingDim / c.NumHeads
}
