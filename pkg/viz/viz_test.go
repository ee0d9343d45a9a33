package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"attnviz/pkg/model"
	"attnviz/pkg/model/attention"
)

func testResult(t *testing.T) *model.Result {
	t.Helper()
	cfg := model.Config{
		EmbeddingDim: 8,
		NumHeads:     2,
		MaskMode:     attention.MaskCausal,
		WindowRadius: -1,
		Seed:         42,
	}
	m, err := model.New(cfg)
	require.NoError(t, err)
	res, err := m.Analyze([]string{"the", "cat", "sat"}, true)
	require.NoError(t, err)
	return res
}

func TestSaveHeatmaps(t *testing.T) {
	res := testResult(t)
	dir := t.TempDir()

	paths, err := SaveHeatmaps(dir, "causal", res.Tokens, res.Weights)
	require.NoError(t, err)
	require.Len(t, paths, 3) // two heads plus the average

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, "missing %s", p)
		require.Greater(t, info.Size(), int64(0))
	}
	require.Contains(t, paths, filepath.Join(dir, "causal_head0.png"))
	require.Contains(t, paths, filepath.Join(dir, "causal_mean.png"))
}

func TestSaveHeatmapsRejectsBadShape(t *testing.T) {
	res := testResult(t)
	mean, err := res.MeanWeights()
	require.NoError(t, err)
	_, err = SaveHeatmaps(t.TempDir(), "x", res.Tokens, mean)
	require.Error(t, err)
}

func TestSaveMaskHeatmap(t *testing.T) {
	res := testResult(t)
	path := filepath.Join(t.TempDir(), "mask.png")

	err := SaveMaskHeatmap(path, "causal mask", res.Tokens, res.Mask)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestSaveHTML(t *testing.T) {
	res := testResult(t)
	dir := t.TempDir()

	paths, err := SaveHTML(dir, "causal", res.Tokens, res.Weights)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	data, err := os.ReadFile(filepath.Join(dir, "causal_head1.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), "plotly")
}

func TestWeightGrid(t *testing.T) {
	res := testResult(t)
	mean, err := res.MeanWeights()
	require.NoError(t, err)

	grid, err := WeightGrid(res.Tokens, mean)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(grid, "\n"), "\n")
	require.Len(t, lines, 4) // one per token plus the axis note
	require.Contains(t, lines[0], "the")
	require.Contains(t, lines[2], "sat")

	_, err = WeightGrid([]string{"too", "few"}, mean)
	require.Error(t, err)
}

func TestMostAttendedTable(t *testing.T) {
	res := testResult(t)
	mean, err := res.MeanWeights()
	require.NoError(t, err)
	best, err := res.MostAttended()
	require.NoError(t, err)

	out, err := MostAttendedTable(res.Tokens, mean, best)
	require.NoError(t, err)
	require.Contains(t, out, "TOKEN")
	require.Contains(t, out, "cat")

	_, err = MostAttendedTable(res.Tokens, mean, []int{0})
	require.Error(t, err)
}
