// Package viz renders attention weight matrices for inspection: PNG
// heatmaps via gonum/plot, interactive HTML via go-plotly, and a terminal
// summary via lipgloss.
//
// The only contract with the math packages is that weight matrices are
// row-stochastic N×N tensors labeled by token identity.
package viz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"

	"attnviz/pkg/model/attention"
	"attnviz/pkg/tensor"
)

// weightGrid adapts an N×N attention weight matrix to plotter.GridXYZ.
// Grid rows are flipped so that query position 0 is drawn at the top,
// matching the reading order of the token sequence.
type weightGrid struct {
	w *tensor.Tensor
}

func (g weightGrid) Dims() (c, r int) {
	return g.w.Cols(), g.w.Rows()
}

func (g weightGrid) Z(c, r int) float64 {
	return g.w.At(g.w.Rows()-1-r, c)
}

func (g weightGrid) X(c int) float64 { return float64(c) }
func (g weightGrid) Y(r int) float64 { return float64(r) }

// SaveHeatmaps writes one PNG per attention head plus a head-averaged PNG
// into dir, named <prefix>_head<h>.png and <prefix>_mean.png. It returns the
// written paths.
func SaveHeatmaps(dir, prefix string, tokens []string, weights *tensor.Tensor) ([]string, error) {
	if weights.NumDims() != 3 {
		return nil, errors.Errorf("expected (H, N, N) weights, got %s", weights.ShapeString())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", dir)
	}

	var paths []string
	for h := 0; h < weights.Shape[0]; h++ {
		hw, err := attention.HeadWeights(weights, h)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_head%d.png", prefix, h))
		title := fmt.Sprintf("Attention Weights (Head %d)", h)
		if err := saveHeatmap(path, title, tokens, hw); err != nil {
			return nil, errors.Wrapf(err, "rendering head %d", h)
		}
		paths = append(paths, path)
	}

	mean, err := attention.MeanWeights(weights)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, prefix+"_mean.png")
	if err := saveHeatmap(path, "Attention Weights (Head Average)", tokens, mean); err != nil {
		return nil, errors.Wrapf(err, "rendering head average")
	}
	paths = append(paths, path)

	klog.V(1).Infof("wrote %d heatmaps to %s", len(paths), dir)
	return paths, nil
}

// SaveMaskHeatmap renders the additive mask itself (allowed = 1,
// disallowed = 0), mirroring the weight heatmaps so patterns can be compared
// side by side.
func SaveMaskHeatmap(path, title string, tokens []string, mask *tensor.Tensor) error {
	n := mask.Rows()
	allowed := tensor.New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if attention.Allowed(mask, i, j) {
				allowed.Set(1, i, j)
			}
		}
	}
	return saveHeatmap(path, title, tokens, allowed)
}

func saveHeatmap(path, title string, tokens []string, w *tensor.Tensor) error {
	if w.NumDims() != 2 || w.Rows() != len(tokens) || w.Cols() != len(tokens) {
		return errors.Errorf("weights shape %s does not match %d tokens", w.ShapeString(), len(tokens))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Key (to)"
	p.Y.Label.Text = "Query (from)"

	hm := plotter.NewHeatMap(weightGrid{w: w}, palette.Heat(16, 1))
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	n := len(tokens)
	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i, tok := range tokens {
		xTicks[i] = plot.Tick{Value: float64(i), Label: tok}
		// Rows are flipped in the grid, flip the labels to match.
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: tok}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	width := vg.Length(2+n) * vg.Centimeter
	height := vg.Length(1+n) * vg.Centimeter
	return p.Save(width, height, path)
}
