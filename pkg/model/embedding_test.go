package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbedderShapeAndErrors(t *testing.T) {
	e, err := NewEmbedder(8, 1)
	require.NoError(t, err)

	emb, err := e.Embed([]string{"the", "cat", "sat"})
	require.NoError(t, err)
	require.Equal(t, []int{3, 8}, emb.Shape)

	_, err = e.Embed(nil)
	require.Error(t, err)

	_, err = NewEmbedder(0, 1)
	require.Error(t, err)
	_, err = NewEmbedder(-4, 1)
	require.Error(t, err)
}

func TestEmbedderSameTokenSameVector(t *testing.T) {
	e, err := NewEmbedder(8, 1)
	require.NoError(t, err)

	emb, err := e.Embed([]string{"the", "cat", "sat", "on", "the", "mat"})
	require.NoError(t, err)

	// "the" appears at positions 0 and 4 and must embed identically.
	require.Equal(t, emb.Row(0), emb.Row(4))
}

func TestEmbedderIsSeedDeterministic(t *testing.T) {
	tokens := []string{"attention", "is", "all", "you", "need"}

	a, err := NewEmbedder(16, 42)
	require.NoError(t, err)
	b, err := NewEmbedder(16, 42)
	require.NoError(t, err)

	embA, err := a.Embed(tokens)
	require.NoError(t, err)
	embB, err := b.Embed(tokens)
	require.NoError(t, err)
	require.True(t, embA.Equals(embB, 0))

	// A different seed draws different vectors.
	c, err := NewEmbedder(16, 7)
	require.NoError(t, err)
	embC, err := c.Embed(tokens)
	require.NoError(t, err)
	require.False(t, embA.Equals(embC, 1e-9))
}

func TestEmbedderFirstLetterHeuristic(t *testing.T) {
	// "a" has alphabet position 0, so the first half of its dimensions is
	// zeroed while the second half keeps its sampled values.
	e, err := NewEmbedder(8, 3)
	require.NoError(t, err)

	emb, err := e.Embed([]string{"a"})
	require.NoError(t, err)
	row := emb.Row(0)
	for j := 0; j < 4; j++ {
		require.Equal(t, 0.0, row[j], "dimension %d", j)
	}
	nonzero := false
	for j := 4; j < 8; j++ {
		if row[j] != 0 {
			nonzero = true
		}
	}
	require.True(t, nonzero)
}
