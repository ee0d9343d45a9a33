package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	"attnviz/pkg/tensor"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// shades maps a weight in [0, 1] to a block character, darkest for the
// highest weights.
var shades = []rune{' ', '░', '▒', '▓', '█'}

func shade(w float64) rune {
	idx := int(w * float64(len(shades)))
	if idx >= len(shades) {
		idx = len(shades) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return shades[idx]
}

// WeightGrid renders an N×N weight matrix as a shaded text grid, one row per
// query token. It is the terminal stand-in for the PNG heatmaps.
func WeightGrid(tokens []string, w *tensor.Tensor) (string, error) {
	n := len(tokens)
	if w.NumDims() != 2 || w.Rows() != n || w.Cols() != n {
		return "", errors.Errorf("weights shape %s does not match %d tokens", w.ShapeString(), n)
	}

	labelWidth := 0
	for _, tok := range tokens {
		if len(tok) > labelWidth {
			labelWidth = len(tok)
		}
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf("%*s ", labelWidth, tokens[i]))
		for j := 0; j < n; j++ {
			r := shade(w.At(i, j))
			sb.WriteRune(r)
			sb.WriteRune(r)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%*s (rows: query, columns: key)", labelWidth, "")))
	sb.WriteString("\n")
	return sb.String(), nil
}

// MostAttendedTable renders the head-averaged "most attended token" summary
// as a bordered table.
func MostAttendedTable(tokens []string, mean *tensor.Tensor, best []int) (string, error) {
	n := len(tokens)
	if len(best) != n || mean.NumDims() != 2 || mean.Rows() != n {
		return "", errors.Errorf("summary inputs do not match %d tokens", n)
	}

	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("POS", "TOKEN", "ATTENDS TO", "WEIGHT")

	for i, tok := range tokens {
		tbl.Row(
			fmt.Sprintf("%d", i),
			tok,
			tokens[best[i]],
			fmt.Sprintf("%.2f", mean.At(i, best[i])),
		)
	}
	return tbl.String(), nil
}
