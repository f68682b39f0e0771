// Package associate pairs the timestamps of two independently clocked sensor streams.
//
// Association is greedy by smallest gap: every pair closer than the maximum difference is a
// candidate, candidates are visited from the smallest gap up (ties broken by the first stamp and
// then the second), and a candidate is committed when neither of its stamps has been used yet.
// This is not a minimum-weight matching; a greedy choice can block a better global assignment.
// The greedy result is what downstream datasets are built from, so it must not be replaced with
// an optimal matcher.
package associate

import (
	"cmp"
	"math"
	"slices"

	"github.com/pkg/errors"

	"go.viam.com/rgbdassoc/stamp"
)

const (
	// DefaultOffset is the default shift, in seconds, added to second-stream stamps.
	DefaultOffset = 0.0
	// DefaultMaxDifference is the default exclusive bound, in seconds, on a match's gap.
	DefaultMaxDifference = 0.02
)

// Options configures an association.
type Options struct {
	// Offset is added to every second-stream stamp before differencing. It models a fixed latency
	// between the two sensors.
	Offset float64 `json:"offset"`
	// MaxDifference is the exclusive upper bound on a match's gap. A non-positive value yields an
	// empty association.
	MaxDifference float64 `json:"max_difference"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Offset: DefaultOffset, MaxDifference: DefaultMaxDifference}
}

// Validate rejects options that are not finite numbers.
func (opts Options) Validate() error {
	if math.IsNaN(opts.Offset) || math.IsInf(opts.Offset, 0) {
		return errors.Errorf("offset must be finite, got %v", opts.Offset)
	}
	if math.IsNaN(opts.MaxDifference) || math.IsInf(opts.MaxDifference, 0) {
		return errors.Errorf("max difference must be finite, got %v", opts.MaxDifference)
	}
	return nil
}

// Match pairs a first-stream stamp with a second-stream stamp.
type Match struct {
	First  float64
	Second float64
}

// Association is a one to one partial matching from first-stream stamps to second-stream stamps.
// No first stamp and no second stamp appears in more than one match.
type Association struct {
	matches []Match
	byFirst map[float64]float64
	seconds map[float64]struct{}
}

// Associate matches the stamps of first and second.
func Associate(first, second *stamp.Index, opts Options) *Association {
	return commit(Candidates(first, second, opts))
}

// commit greedily consumes candidates, which must already be in (gap, first, second) order.
func commit(candidates []Candidate) *Association {
	assoc := &Association{
		byFirst: map[float64]float64{},
		seconds: map[float64]struct{}{},
	}
	for _, c := range candidates {
		if assoc.HasFirst(c.First) || assoc.HasSecond(c.Second) {
			continue
		}
		assoc.byFirst[c.First] = c.Second
		assoc.seconds[c.Second] = struct{}{}
		assoc.matches = append(assoc.matches, Match{First: c.First, Second: c.Second})
	}
	slices.SortFunc(assoc.matches, func(a, b Match) int {
		return cmp.Compare(a.First, b.First)
	})
	return assoc
}

// Len returns the number of matches.
func (assoc *Association) Len() int {
	if assoc == nil {
		return 0
	}
	return len(assoc.matches)
}

// Matches returns the matches in ascending order of their first stamp.
func (assoc *Association) Matches() []Match {
	if assoc == nil {
		return nil
	}
	return slices.Clone(assoc.matches)
}

// Lookup returns the second-stream stamp matched to first.
func (assoc *Association) Lookup(first float64) (float64, bool) {
	if assoc == nil {
		return 0, false
	}
	second, ok := assoc.byFirst[first]
	return second, ok
}

// HasFirst reports whether the first-stream stamp is matched.
func (assoc *Association) HasFirst(first float64) bool {
	_, ok := assoc.Lookup(first)
	return ok
}

// HasSecond reports whether the second-stream stamp is matched.
func (assoc *Association) HasSecond(second float64) bool {
	if assoc == nil {
		return false
	}
	_, ok := assoc.seconds[second]
	return ok
}
