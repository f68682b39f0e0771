// Package stamp loads timestamped sensor streams into immutable, stamp-keyed indexes.
//
// A stream file holds one record per line, "<timestamp> <token>...", where tokens are separated by
// spaces, tabs or commas and lines starting with '#' are comments. The payload tokens are opaque
// (file names, poses, ...) and are kept verbatim and in order.
package stamp

import (
	"slices"

	"github.com/samber/lo"
)

// Record is a timestamp paired with its payload tokens.
type Record struct {
	Stamp   float64
	Payload []string
}

// Index maps timestamps of one stream to their payloads. Keys are unique. An Index is never
// mutated after construction.
type Index struct {
	name        string
	payloads    map[float64][]string
	stamps      []float64
	overwritten int
}

// NewIndex builds an index from in-memory records. Later records win over earlier ones sharing
// the same stamp.
func NewIndex(name string, records ...Record) *Index {
	payloads := make(map[float64][]string, len(records))
	overwritten := 0
	for _, rec := range records {
		if _, ok := payloads[rec.Stamp]; ok {
			overwritten++
		}
		payloads[rec.Stamp] = slices.Clone(rec.Payload)
	}
	return newIndex(name, payloads, overwritten)
}

func newIndex(name string, payloads map[float64][]string, overwritten int) *Index {
	stamps := lo.Keys(payloads)
	slices.Sort(stamps)
	return &Index{
		name:        name,
		payloads:    payloads,
		stamps:      stamps,
		overwritten: overwritten,
	}
}

// Name returns the source the index was loaded from.
func (idx *Index) Name() string {
	if idx == nil {
		return ""
	}
	return idx.name
}

// Len returns the number of distinct stamps.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.stamps)
}

// Overwritten returns how many records were dropped because a later record reused their stamp.
func (idx *Index) Overwritten() int {
	if idx == nil {
		return 0
	}
	return idx.overwritten
}

// Has reports whether the stamp is present.
func (idx *Index) Has(stamp float64) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.payloads[stamp]
	return ok
}

// Payload returns a copy of the payload stored for stamp.
func (idx *Index) Payload(stamp float64) ([]string, bool) {
	if idx == nil {
		return nil, false
	}
	payload, ok := idx.payloads[stamp]
	if !ok {
		return nil, false
	}
	return slices.Clone(payload), true
}

// Stamps returns all stamps in ascending order.
func (idx *Index) Stamps() []float64 {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.stamps)
}

// Records returns every record in ascending stamp order.
func (idx *Index) Records() []Record {
	if idx == nil {
		return nil
	}
	return lo.Map(idx.stamps, func(s float64, _ int) Record {
		return Record{Stamp: s, Payload: slices.Clone(idx.payloads[s])}
	})
}
