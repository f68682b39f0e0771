package associate

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/rgbdassoc/stamp"
)

// Summary describes how well two streams associated. An association with zero matches is a valid
// result and shows up here as Matches == 0.
type Summary struct {
	FirstLen  int
	SecondLen int
	Matches   int
	MeanGap   float64
	StdDevGap float64
	MaxGap    float64
}

// Unmatched returns how many first-stream stamps found no partner.
func (s Summary) Unmatched() int {
	return s.FirstLen - s.Matches
}

// Summarize computes gap statistics for an association of first and second.
func Summarize(first, second *stamp.Index, assoc *Association, opts Options) Summary {
	summary := Summary{
		FirstLen:  first.Len(),
		SecondLen: second.Len(),
		Matches:   assoc.Len(),
	}
	if summary.Matches == 0 {
		return summary
	}

	gaps := make([]float64, 0, summary.Matches)
	for _, m := range assoc.Matches() {
		gaps = append(gaps, gap(m.First, m.Second, opts.Offset))
	}
	summary.MaxGap = floats.Max(gaps)
	if len(gaps) == 1 {
		summary.MeanGap = gaps[0]
		return summary
	}
	summary.MeanGap, summary.StdDevGap = stat.MeanStdDev(gaps, nil)
	return summary
}
