package associate

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"go.viam.com/rgbdassoc/stamp"
)

// Candidate is a possible match between a first-stream stamp and a second-stream stamp, with the
// absolute gap between them after applying the offset.
type Candidate struct {
	Gap    float64
	First  float64
	Second float64
}

func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(a.Gap, b.Gap); c != 0 {
		return c
	}
	if c := cmp.Compare(a.First, b.First); c != 0 {
		return c
	}
	return cmp.Compare(a.Second, b.Second)
}

func gap(first, second, offset float64) float64 {
	return math.Abs(first - (second + offset))
}

// Candidates returns every (first, second) pair whose gap is strictly below opts.MaxDifference,
// sorted by gap, then first stamp, then second stamp.
//
// Only second-stream stamps inside a window around each first-stream stamp are examined, but the
// result is exactly the set the full cross product would produce: the window is a prefilter and
// every pair is still checked with the same gap predicate.
func Candidates(first, second *stamp.Index, opts Options) []Candidate {
	if first.Len() == 0 || second.Len() == 0 || !(opts.MaxDifference > 0) {
		return nil
	}
	seconds := second.Stamps()

	var candidates []Candidate
	for _, a := range first.Stamps() {
		within := func(b float64) bool {
			return gap(a, b, opts.Offset) < opts.MaxDifference
		}
		lower := a - opts.Offset - opts.MaxDifference
		upper := a - opts.Offset + opts.MaxDifference

		start := sort.SearchFloat64s(seconds, lower)
		// The window bounds are rounded; widen until the predicate itself stops holding.
		for start > 0 && within(seconds[start-1]) {
			start--
		}
		for j := start; j < len(seconds); j++ {
			b := seconds[j]
			if within(b) {
				candidates = append(candidates, Candidate{Gap: gap(a, b, opts.Offset), First: a, Second: b})
				continue
			}
			if b > upper {
				break
			}
		}
	}

	slices.SortFunc(candidates, compareCandidates)
	return candidates
}
