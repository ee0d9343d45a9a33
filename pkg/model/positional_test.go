package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"attnviz/pkg/tensor"
)

func TestPositionalEncodingValues(t *testing.T) {
	pe, err := NewPositionalEncoding(4, 8)
	require.NoError(t, err)
	table := pe.Table()

	// Position 0 alternates sin(0)=0 and cos(0)=1.
	require.InDelta(t, 0.0, table.At(0, 0), 1e-12)
	require.InDelta(t, 1.0, table.At(0, 1), 1e-12)
	require.InDelta(t, 0.0, table.At(0, 2), 1e-12)
	require.InDelta(t, 1.0, table.At(0, 3), 1e-12)

	// Position 3, dimension pair 2: angle = 3 / 10000^(2/4).
	angle := 3.0 / math.Pow(10000, 2.0/4.0)
	require.InDelta(t, math.Sin(angle), table.At(3, 2), 1e-12)
	require.InDelta(t, math.Cos(angle), table.At(3, 3), 1e-12)
}

func TestPositionalEncodingIsDeterministic(t *testing.T) {
	a, err := NewPositionalEncoding(16, 32)
	require.NoError(t, err)
	b, err := NewPositionalEncoding(16, 32)
	require.NoError(t, err)
	require.True(t, a.Table().Equals(b.Table(), 0))
}

func TestPositionalEncodingOddDimension(t *testing.T) {
	// An odd dimension leaves no partner for the last sine entry; the table
	// must still fill every column.
	pe, err := NewPositionalEncoding(5, 4)
	require.NoError(t, err)
	angle := 2.0 / math.Pow(10000, 4.0/5.0)
	require.InDelta(t, math.Sin(angle), pe.Table().At(2, 4), 1e-12)
}

func TestPositionalEncodingErrors(t *testing.T) {
	_, err := NewPositionalEncoding(0, 4)
	require.Error(t, err)
	_, err = NewPositionalEncoding(4, 0)
	require.Error(t, err)
}

func TestAddTo(t *testing.T) {
	pe, err := NewPositionalEncoding(4, 8)
	require.NoError(t, err)

	emb := tensor.New(3, 4)
	for i := range emb.Data {
		emb.Data[i] = 10
	}

	got, err := pe.AddTo(emb)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, got.Shape)
	require.InDelta(t, 10+pe.Table().At(2, 1), got.At(2, 1), 1e-12)

	// Dimension mismatch.
	_, err = pe.AddTo(tensor.New(3, 6))
	require.Error(t, err)

	// Sequence longer than the table.
	_, err = pe.AddTo(tensor.New(9, 4))
	require.Error(t, err)
}
