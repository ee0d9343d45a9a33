package viz

import (
	"fmt"
	"os"
	"path/filepath"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/offline"
	ptypes "github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"attnviz/pkg/model/attention"
	"attnviz/pkg/tensor"
)

// SaveHTML writes an interactive heatmap per head plus a head-averaged one,
// named like SaveHeatmaps but with an .html suffix. Hovering shows the exact
// weight, which the static PNGs cannot.
func SaveHTML(dir, prefix string, tokens []string, weights *tensor.Tensor) ([]string, error) {
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
		path := filepath.Join(dir, fmt.Sprintf("%s_head%d.html", prefix, h))
		writeHeatmapHTML(path, fmt.Sprintf("Attention Weights (Head %d)", h), tokens, hw)
		paths = append(paths, path)
	}

	mean, err := attention.MeanWeights(weights)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, prefix+"_mean.html")
	writeHeatmapHTML(path, "Attention Weights (Head Average)", tokens, mean)
	paths = append(paths, path)

	klog.V(1).Infof("wrote %d interactive heatmaps to %s", len(paths), dir)
	return paths, nil
}

func writeHeatmapHTML(path, title string, tokens []string, w *tensor.Tensor) {
	n := len(tokens)
	z := make([][]float64, n)
	for i := 0; i < n; i++ {
		// Plotly draws row 0 at the bottom; flip so query 0 reads from the top.
		z[i] = w.Row(n - 1 - i)
	}
	yLabels := make([]string, n)
	for i, tok := range tokens {
		yLabels[n-1-i] = tok
	}

	fig := &grob.Fig{
		Data: []ptypes.Trace{
			&grob.Heatmap{
				Z: ptypes.DataArray(z),
				X: ptypes.DataArray(tokens),
				Y: ptypes.DataArray(yLabels),
			},
		},
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{Text: ptypes.S(title)},
			Xaxis: &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: ptypes.S("Key (to)")}},
			Yaxis: &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: ptypes.S("Query (from)")}},
		},
	}
	offline.ToHtml(fig, path)
}
