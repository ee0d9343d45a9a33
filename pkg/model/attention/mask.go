// Package attention implements the multi-head self-attention forward pass
// and the mask patterns the visualizer renders:
//
//   - MaskNone: standard bidirectional self-attention
//   - MaskCausal: decoder-style, no attending to future positions
//   - MaskLocal: fixed-radius neighborhood around each position
//   - MaskGlobalLocal: local neighborhood plus a set of globally visible
//     positions
//
// Masks are additive N×N score penalties: 0 where attention is allowed and
// Penalty where it is not, so that applying a mask is a plain element-wise
// add before softmax.
package attention

import (
	"github.com/pkg/errors"

	"attnviz/pkg/tensor"
)

// Penalty is added to disallowed score entries. It is large enough that the
// corresponding post-softmax weight underflows to zero in float64.
const Penalty = -1e9

// MaskMode selects an attention pattern.
type MaskMode int

const (
	MaskNone MaskMode = iota
	MaskCausal
	MaskLocal
	MaskGlobalLocal
)

// String returns the flag-friendly name of the mode.
func (m MaskMode) String() string {
	switch m {
	case MaskNone:
		return "none"
	case MaskCausal:
		return "causal"
	case MaskLocal:
		return "local"
	case MaskGlobalLocal:
		return "global-local"
	default:
		return "unknown"
	}
}

// ParseMaskMode converts a flag value into a MaskMode.
func ParseMaskMode(s string) (MaskMode, error) {
	switch s {
	case "none", "":
		return MaskNone, nil
	case "causal":
		return MaskCausal, nil
	case "local":
		return MaskLocal, nil
	case "global-local":
		return MaskGlobalLocal, nil
	default:
		return MaskNone, errors.Errorf("unknown mask mode %q (want none, causal, local or global-local)", s)
	}
}

// MaskOptions carries the parameters of the local and global-local patterns.
type MaskOptions struct {
	// WindowRadius is the neighborhood radius r: position i may attend to j
	// when |i-j| <= r. Zero permits self-attention only; a radius of n-1 or
	// more degenerates to full attention.
	WindowRadius int

	// GlobalPositions may be attended to by every query, and may themselves
	// attend to everything. Only used by MaskGlobalLocal.
	GlobalPositions []int
}

// DefaultWindowRadius is the demonstration default for a sequence of length
// n: a quarter of the sequence, at least 1.
func DefaultWindowRadius(n int) int {
	if n/4 < 1 {
		return 1
	}
	return n / 4
}

// DefaultGlobalPositions is the demonstration default: the first max(1, n/5)
// positions act as global tokens.
func DefaultGlobalPositions(n int) []int {
	count := n / 5
	if count < 1 {
		count = 1
	}
	positions := make([]int, count)
	for i := range positions {
		positions[i] = i
	}
	return positions
}

// Build returns the N×N additive mask for the given mode.
func Build(n int, mode MaskMode, opts MaskOptions) (*tensor.Tensor, error) {
	if n <= 0 {
		return nil, errors.Errorf("sequence length must be positive, got %d", n)
	}

	switch mode {
	case MaskNone:
		return tensor.New(n, n), nil
	case MaskCausal:
		return buildCausal(n), nil
	case MaskLocal:
		return buildLocal(n, opts.WindowRadius)
	case MaskGlobalLocal:
		return buildGlobalLocal(n, opts.WindowRadius, opts.GlobalPositions)
	default:
		return nil, errors.Errorf("unknown mask mode %d", mode)
	}
}

// buildCausal penalizes every entry above the diagonal: query i may only
// attend to keys j <= i.
func buildCausal(n int) *tensor.Tensor {
	mask := tensor.New(n, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			mask.Set(Penalty, i, j)
		}
	}
	return mask
}

func buildLocal(n, radius int) (*tensor.Tensor, error) {
	if radius < 0 {
		return nil, errors.Errorf("window radius must be non-negative, got %d", radius)
	}
	mask := tensor.New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if abs(i-j) > radius {
				mask.Set(Penalty, i, j)
			}
		}
	}
	return mask, nil
}

func buildGlobalLocal(n, radius int, globals []int) (*tensor.Tensor, error) {
	mask, err := buildLocal(n, radius)
	if err != nil {
		return nil, err
	}
	for _, g := range globals {
		if g < 0 || g >= n {
			return nil, errors.Errorf("global position %d out of range for sequence length %d", g, n)
		}
		// Global positions see everything and are seen by everyone.
		for j := 0; j < n; j++ {
			mask.Set(0, g, j)
			mask.Set(0, j, g)
		}
	}
	return mask, nil
}

// Allowed reports whether the mask permits attention from query i to key j.
func Allowed(mask *tensor.Tensor, i, j int) bool {
	return mask.At(i, j) == 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
