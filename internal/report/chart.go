package report

import (
	"math"
	"slices"
	"strings"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as one line of block characters. Longer series are
// averaged into width buckets; width <= 0 means one block per value.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	if width > 0 && len(values) > width {
		values = resample(values, width)
	}

	lo, hi := slices.Min(values), slices.Max(values)
	var b strings.Builder
	for _, v := range values {
		idx := len(sparkBlocks) / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1)))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// resample averages values into n equal buckets
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		start := i * len(values) / n
		end := (i + 1) * len(values) / n
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
