package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"attnviz/pkg/model/attention"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"zero dimension", func(c *Config) { c.EmbeddingDim = 0 }, true},
		{"negative dimension", func(c *Config) { c.EmbeddingDim = -8 }, true},
		{"zero heads", func(c *Config) { c.NumHeads = 0 }, true},
		{"dimension not divisible by heads", func(c *Config) { c.EmbeddingDim = 10; c.NumHeads = 4 }, true},
		{"negative global position", func(c *Config) { c.GlobalPositions = []int{-2} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbeddingDim = 10
	cfg.NumHeads = 4
	_, err := New(cfg)
	require.Error(t, err)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	cfg := Config{
		EmbeddingDim: 8,
		NumHeads:     2,
		MaskMode:     attention.MaskCausal,
		WindowRadius: -1,
		Seed:         42,
	}
	m, err := New(cfg)
	require.NoError(t, err)

	tokens := []string{"the", "cat", "sat", "on", "the", "mat"}
	res, err := m.Analyze(tokens, true)
	require.NoError(t, err)

	require.Equal(t, []int{6, 8}, res.Output.Shape)
	require.Equal(t, []int{2, 6, 6}, res.Weights.Shape)
	require.Equal(t, 2, res.NumHeads())

	// Causal: row i carries no weight past column i.
	for h := 0; h < 2; h++ {
		for i := 0; i < 6; i++ {
			for j := i + 1; j < 6; j++ {
				require.InDelta(t, 0.0, res.Weights.At(h, i, j), 1e-6)
			}
		}
	}
}

func TestAnalyzeEmptySequence(t *testing.T) {
	m, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = m.Analyze(nil, true)
	require.Error(t, err)
}

func TestAnalyzeIsReproducible(t *testing.T) {
	tokens := []string{"john", "said", "he", "would", "arrive"}

	run := func() *Result {
		cfg := DefaultConfig()
		cfg.Seed = 123
		m, err := New(cfg)
		require.NoError(t, err)
		res, err := m.Analyze(tokens, true)
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	require.True(t, a.Weights.Equals(b.Weights, 0))
	require.True(t, a.Output.Equals(b.Output, 0))
}

func TestAnalyzePositionalSwitchChangesWeights(t *testing.T) {
	cfg := DefaultConfig()
	m, err := New(cfg)
	require.NoError(t, err)

	tokens := []string{"the", "cat", "sat", "on", "the", "mat"}
	with, err := m.Analyze(tokens, true)
	require.NoError(t, err)
	without, err := m.Analyze(tokens, false)
	require.NoError(t, err)

	require.False(t, with.Weights.Equals(without.Weights, 1e-9))

	// Without positional encoding repeated tokens are indistinguishable:
	// queries "the" (positions 0 and 4) produce identical weight rows up to
	// the key symmetry; with encoding they differ.
	require.NotEqual(t, with.Weights.At(0, 0, 0), with.Weights.At(0, 4, 4))
}

func TestMostAttended(t *testing.T) {
	cfg := Config{
		EmbeddingDim: 8,
		NumHeads:     2,
		MaskMode:     attention.MaskLocal,
		WindowRadius: 0,
		Seed:         1,
	}
	m, err := New(cfg)
	require.NoError(t, err)

	res, err := m.Analyze([]string{"a", "b", "c", "d"}, true)
	require.NoError(t, err)

	// Radius zero forces every token to attend solely to itself.
	best, err := res.MostAttended()
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, best)
}

func TestHeadWeightsFromResult(t *testing.T) {
	m, err := New(DefaultConfig())
	require.NoError(t, err)
	res, err := m.Analyze([]string{"short", "example"}, true)
	require.NoError(t, err)

	h0, err := res.HeadWeights(0)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, h0.Shape)

	mean, err := res.MeanWeights()
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, mean.Shape)
}
