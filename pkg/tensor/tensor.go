// Package tensor provides the numeric substrate for the attention
// visualizer: a flat-slice multi-dimensional array of float64 values with
// the handful of operations the attention forward pass needs.
//
// This is intentionally small. There is no autodiff, no broadcasting beyond
// what masking requires, and no attempt at performance beyond cache-friendly
// row-major storage.
package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Tensor represents a multi-dimensional array of float64 values.
// It stores data in a flat row-major slice with shape information for
// indexing.
type Tensor struct {
	Data    []float64 // Flattened data storage
	Shape   []int     // Dimensions (e.g., [heads, seq, seq])
	Strides []int     // Precomputed strides for indexing
}

// New creates a new tensor with the given shape, initialized to zeros.
// It panics on a non-positive dimension; shapes are always program
// constants or validated configuration by the time they reach here.
func New(shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			panic(fmt.Sprintf("tensor: invalid dimension %d in shape %v", dim, shape))
		}
		size *= dim
	}

	return &Tensor{
		Data:    make([]float64, size),
		Shape:   copyShape(shape),
		Strides: stridesFor(shape),
	}
}

// FromSlice creates a tensor from existing data with the given shape.
// The data is copied. Returns an error if the data size doesn't match the
// shape.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	expected := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, errors.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		expected *= dim
	}
	if len(data) != expected {
		return nil, errors.Errorf("data size %d does not match shape %v (expected %d elements)",
			len(data), shape, expected)
	}

	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)

	return &Tensor{
		Data:    dataCopy,
		Shape:   copyShape(shape),
		Strides: stridesFor(shape),
	}, nil
}

// At returns the element at the given indices.
func (t *Tensor) At(indices ...int) float64 {
	return t.Data[t.flatIndex(indices)]
}

// Set assigns the element at the given indices.
func (t *Tensor) Set(value float64, indices ...int) {
	t.Data[t.flatIndex(indices)] = value
}

// flatIndex converts multi-dimensional indices into a flat offset.
func (t *Tensor) flatIndex(indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d-dimensional tensor", len(indices), len(t.Shape)))
	}
	idx := 0
	for i, ix := range indices {
		idx += ix * t.Strides[i]
	}
	return idx
}

// Rows returns the first dimension of the tensor.
func (t *Tensor) Rows() int { return t.Shape[0] }

// Cols returns the last dimension of the tensor.
func (t *Tensor) Cols() int { return t.Shape[len(t.Shape)-1] }

// NumDims returns the number of dimensions.
func (t *Tensor) NumDims() int { return len(t.Shape) }

// Row returns a view of row i of a 2D tensor. The returned slice shares
// storage with the tensor.
func (t *Tensor) Row(i int) []float64 {
	if len(t.Shape) != 2 {
		panic(fmt.Sprintf("tensor: Row on %dD tensor", len(t.Shape)))
	}
	cols := t.Shape[1]
	return t.Data[i*cols : (i+1)*cols]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.Shape...)
	copy(c.Data, t.Data)
	return c
}

// ShapeEquals reports whether two tensors have identical shapes.
func (t *Tensor) ShapeEquals(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// Equals reports whether two tensors have the same shape and element-wise
// equal values within the given tolerance.
func (t *Tensor) Equals(other *Tensor, tolerance float64) bool {
	if !t.ShapeEquals(other) {
		return false
	}
	for i := range t.Data {
		if math.Abs(t.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

// ShapeString returns a human-readable shape, e.g. "(6, 8)".
func (t *Tensor) ShapeString() string {
	parts := make([]string, len(t.Shape))
	for i, dim := range t.Shape {
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Matmul performs 2D matrix multiplication: (m, k) @ (k, n) -> (m, n).
func Matmul(a, b *Tensor) (*Tensor, error) {
	if len(a.Shape) != 2 || len(b.Shape) != 2 {
		return nil, errors.Errorf("matmul requires 2D tensors, got %s and %s",
			a.ShapeString(), b.ShapeString())
	}
	if a.Shape[1] != b.Shape[0] {
		return nil, errors.Errorf("matmul shape mismatch: %s @ %s", a.ShapeString(), b.ShapeString())
	}

	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]
	result := New(m, n)
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			av := a.Data[i*k+p]
			if av == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				result.Data[i*n+j] += av * b.Data[p*n+j]
			}
		}
	}
	return result, nil
}

// Transpose2D returns the transpose of a 2D tensor.
func (t *Tensor) Transpose2D() (*Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, errors.Errorf("transpose requires a 2D tensor, got %s", t.ShapeString())
	}
	rows, cols := t.Shape[0], t.Shape[1]
	result := New(cols, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			result.Data[j*rows+i] = t.Data[i*cols+j]
		}
	}
	return result, nil
}

// Scale returns a new tensor with every element multiplied by s.
func (t *Tensor) Scale(s float64) *Tensor {
	result := New(t.Shape...)
	for i, v := range t.Data {
		result.Data[i] = v * s
	}
	return result
}

// Add performs element-wise addition of two tensors of identical shape.
func Add(a, b *Tensor) (*Tensor, error) {
	if !a.ShapeEquals(b) {
		return nil, errors.Errorf("add shape mismatch: %s vs %s", a.ShapeString(), b.ShapeString())
	}
	result := New(a.Shape...)
	for i := range a.Data {
		result.Data[i] = a.Data[i] + b.Data[i]
	}
	return result, nil
}

// SoftmaxRows applies a numerically stable softmax along the last dimension
// of the tensor: every contiguous run of Cols() elements is normalized
// independently, with the row maximum subtracted before exponentiation.
func SoftmaxRows(t *Tensor) *Tensor {
	result := New(t.Shape...)
	rowLen := t.Cols()

	for start := 0; start < len(t.Data); start += rowLen {
		row := t.Data[start : start+rowLen]
		out := result.Data[start : start+rowLen]

		maxVal := math.Inf(-1)
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}

		sum := 0.0
		for i, v := range row {
			out[i] = math.Exp(v - maxVal)
			sum += out[i]
		}
		for i := range out {
			out[i] /= sum
		}
	}
	return result
}

// SliceCols returns a copy of columns [start, end) of a 2D tensor.
func (t *Tensor) SliceCols(start, end int) (*Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, errors.Errorf("slice requires a 2D tensor, got %s", t.ShapeString())
	}
	if start < 0 || end > t.Shape[1] || start >= end {
		return nil, errors.Errorf("invalid column range [%d, %d) for shape %s",
			start, end, t.ShapeString())
	}
	rows, cols := t.Shape[0], t.Shape[1]
	result := New(rows, end-start)
	for i := 0; i < rows; i++ {
		copy(result.Row(i), t.Data[i*cols+start:i*cols+end])
	}
	return result, nil
}

// SetCols copies src (rows × w) into columns [start, start+w) of a 2D tensor.
func (t *Tensor) SetCols(start int, src *Tensor) error {
	if len(t.Shape) != 2 || len(src.Shape) != 2 {
		return errors.Errorf("set columns requires 2D tensors, got %s and %s",
			t.ShapeString(), src.ShapeString())
	}
	w := src.Shape[1]
	if src.Shape[0] != t.Shape[0] || start < 0 || start+w > t.Shape[1] {
		return errors.Errorf("cannot place %s at column %d of %s",
			src.ShapeString(), start, t.ShapeString())
	}
	for i := 0; i < t.Shape[0]; i++ {
		copy(t.Row(i)[start:start+w], src.Row(i))
	}
	return nil
}

// String returns a compact representation for debugging and log output.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString("Tensor" + t.ShapeString())
	if len(t.Shape) == 2 && t.Shape[0] <= 12 && t.Shape[1] <= 12 {
		sb.WriteString(" [")
		for i := 0; i < t.Shape[0]; i++ {
			if i > 0 {
				sb.WriteString("; ")
			}
			for j := 0; j < t.Shape[1]; j++ {
				if j > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(fmt.Sprintf("%.3f", t.At(i, j)))
			}
		}
		sb.WriteString("]")
	}
	return sb.String()
}

func stridesFor(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func copyShape(shape []int) []int {
	c := make([]int, len(shape))
	copy(c, shape)
	return c
}
