// Package manifest joins pairwise associations through a shared anchor stream and writes the
// resulting manifests.
package manifest

import (
	"github.com/pkg/errors"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/stamp"
)

// Entry is one stream's sample inside a joined record.
type Entry struct {
	Stamp   float64
	Payload []string
}

// Pair is an anchor sample and its partner from a single association.
type Pair struct {
	Anchor  Entry
	Partner Entry
}

// Joined is an anchor sample together with its partners from two associations.
type Joined struct {
	Anchor Entry
	First  Entry
	Second Entry
}

// Join returns a record for every anchor stamp matched in both anchorFirst and anchorSecond, in
// ascending anchor order. Anchor stamps matched in only one association are dropped. Both
// associations must have been computed with anchor as their first stream.
func Join(
	anchor, first, second *stamp.Index,
	anchorFirst, anchorSecond *associate.Association,
) ([]Joined, error) {
	var joined []Joined
	for _, m := range anchorFirst.Matches() {
		secondStamp, ok := anchorSecond.Lookup(m.First)
		if !ok {
			continue
		}
		anchorEntry, err := entry(anchor, m.First)
		if err != nil {
			return nil, err
		}
		firstEntry, err := entry(first, m.Second)
		if err != nil {
			return nil, err
		}
		secondEntry, err := entry(second, secondStamp)
		if err != nil {
			return nil, err
		}
		joined = append(joined, Joined{Anchor: anchorEntry, First: firstEntry, Second: secondEntry})
	}
	return joined, nil
}

// Pairs expands a single association into anchor/partner records in ascending anchor order.
func Pairs(anchor, partner *stamp.Index, assoc *associate.Association) ([]Pair, error) {
	pairs := make([]Pair, 0, assoc.Len())
	for _, m := range assoc.Matches() {
		anchorEntry, err := entry(anchor, m.First)
		if err != nil {
			return nil, err
		}
		partnerEntry, err := entry(partner, m.Second)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Anchor: anchorEntry, Partner: partnerEntry})
	}
	return pairs, nil
}

// Split turns joined records into the anchor/first and anchor/second pair lists.
func Split(joined []Joined) (first, second []Pair) {
	first = make([]Pair, 0, len(joined))
	second = make([]Pair, 0, len(joined))
	for _, j := range joined {
		first = append(first, Pair{Anchor: j.Anchor, Partner: j.First})
		second = append(second, Pair{Anchor: j.Anchor, Partner: j.Second})
	}
	return first, second
}

func entry(idx *stamp.Index, s float64) (Entry, error) {
	payload, ok := idx.Payload(s)
	if !ok {
		return Entry{}, errors.Errorf("stamp %f is not in stream %q", s, idx.Name())
	}
	return Entry{Stamp: s, Payload: payload}, nil
}
