// Command attnviz runs the self-attention visualizer on a sentence and
// renders the per-head attention weight heatmaps.
//
// Examples:
//
//	attnviz -sentence "the cat sat on the mat" -mask causal
//	attnviz -sentence "transformers changed everything" -mask local -window 1
//	attnviz -mask global-local -globals 0,3 -html
//	attnviz -compare-positional
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"attnviz/pkg/model"
	"attnviz/pkg/model/attention"
	"attnviz/pkg/tokenizer"
	"attnviz/pkg/viz"
)

var (
	flagSentence = flag.String("sentence", "the cat sat on the mat", "Sentence to visualize")
	flagDim      = flag.Int("dim", 64, "Embedding dimension (must be divisible by -heads)")
	flagHeads    = flag.Int("heads", 4, "Number of attention heads")
	flagMask     = flag.String("mask", "none", "Mask mode: none, causal, local or global-local")
	flagWindow   = flag.Int("window", -1, "Local window radius (-1 selects max(1, n/4))")
	flagGlobals  = flag.String("globals", "", "Comma-separated global positions for global-local mask")
	flagSeed     = flag.Uint64("seed", 42, "Random seed for embeddings and projection weights")
	flagOut      = flag.String("out", "attention_plots", "Directory for rendered heatmaps")
	flagHTML     = flag.Bool("html", false, "Also write interactive HTML heatmaps")
	flagCompare  = flag.Bool("compare-positional", false,
		"Run the sentence with and without positional encoding and render both")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg := model.Config{
		EmbeddingDim:    *flagDim,
		NumHeads:        *flagHeads,
		MaskMode:        must.M1(attention.ParseMaskMode(*flagMask)),
		WindowRadius:    *flagWindow,
		GlobalPositions: must.M1(parsePositions(*flagGlobals)),
		Seed:            *flagSeed,
	}
	must.M(cfg.Validate())

	tokens := must.M1(tokenizer.Tokenize(*flagSentence))
	klog.V(1).Infof("tokenized %q into %d tokens", *flagSentence, len(tokens))

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("        Attention Mechanism Visualizer")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Embedding Dim: %d\n", cfg.EmbeddingDim)
	fmt.Printf("  Num Heads: %d\n", cfg.NumHeads)
	fmt.Printf("  Mask Mode: %s\n", cfg.MaskMode)
	if cfg.MaskMode == attention.MaskLocal || cfg.MaskMode == attention.MaskGlobalLocal {
		fmt.Printf("  Window Radius: %s\n", windowLabel(cfg.WindowRadius))
	}
	if cfg.MaskMode == attention.MaskGlobalLocal {
		fmt.Printf("  Global Positions: %s\n", globalsLabel(cfg.GlobalPositions))
	}
	fmt.Printf("  Seed: %d\n", cfg.Seed)
	fmt.Println()

	m := must.M1(model.New(cfg))

	if *flagCompare {
		comparePositional(m, tokens)
		return
	}

	res := must.M1(m.Analyze(tokens, true))
	render(res, cfg.MaskMode.String())
}

// render writes the heatmaps and prints the terminal summary for one run.
func render(res *model.Result, prefix string) {
	paths := must.M1(viz.SaveHeatmaps(*flagOut, prefix, res.Tokens, res.Weights))
	must.M(viz.SaveMaskHeatmap(
		fmt.Sprintf("%s/%s_mask.png", *flagOut, prefix),
		fmt.Sprintf("%q Attention Mask", prefix),
		res.Tokens, res.Mask))
	if *flagHTML {
		paths = append(paths, must.M1(viz.SaveHTML(*flagOut, prefix, res.Tokens, res.Weights))...)
	}
	fmt.Printf("Wrote %d plots to %s/\n\n", len(paths)+1, *flagOut)

	mean := must.M1(res.MeanWeights())
	fmt.Println("Head-averaged attention:")
	fmt.Println(must.M1(viz.WeightGrid(res.Tokens, mean)))

	best := must.M1(res.MostAttended())
	fmt.Println("Most attended tokens:")
	fmt.Println(must.M1(viz.MostAttendedTable(res.Tokens, mean, best)))
}

// comparePositional demonstrates what positional encoding adds: without it,
// attention depends only on token identity, so repeated words get identical
// rows.
func comparePositional(m *model.AttentionModel, tokens []string) {
	withPos := must.M1(m.Analyze(tokens, true))
	withoutPos := must.M1(m.Analyze(tokens, false))

	fmt.Println("Without positional encoding:")
	fmt.Println(must.M1(viz.WeightGrid(tokens, must.M1(withoutPos.MeanWeights()))))
	fmt.Println("With positional encoding:")
	fmt.Println(must.M1(viz.WeightGrid(tokens, must.M1(withPos.MeanWeights()))))

	must.M1(viz.SaveHeatmaps(*flagOut, "without_positional", tokens, withoutPos.Weights))
	must.M1(viz.SaveHeatmaps(*flagOut, "with_positional", tokens, withPos.Weights))
	fmt.Printf("Wrote comparison plots to %s/\n", *flagOut)
}

func parsePositions(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	positions := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid global position %q: %w", p, err)
		}
		positions = append(positions, v)
	}
	return positions, nil
}

func windowLabel(r int) string {
	if r < 0 {
		return "auto (max(1, n/4))"
	}
	return strconv.Itoa(r)
}

func globalsLabel(positions []int) string {
	if len(positions) == 0 {
		return "auto (first max(1, n/5))"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
