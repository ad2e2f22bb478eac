// Package bloom provides a Bloom filter that grows as it fills, so callers
// never have to size uniqueness tracking up front. New keys land in the
// newest sub-filter; membership checks walk the whole chain.
package bloom

import (
	bbloom "github.com/bits-and-blooms/bloom/v3"
)

const (
	// DefaultCapacity and DefaultErrorRate size the first sub-filter when a
	// caller has no better estimate.
	DefaultCapacity  = 10000
	DefaultErrorRate = 0.001

	growthFactor    = 4
	tighteningRatio = 0.9
)

// Filter is a chain of fixed-size Bloom filters. When the newest sub-filter
// reaches its capacity a larger one (growthFactor times the size, with a
// tightened error rate) is appended and takes all further inserts.
type Filter struct {
	capacity  int
	errorRate float64
	count     int // inserts into the newest sub-filter
	subs      []*bbloom.BloomFilter
}

// New returns a Filter whose first sub-filter holds capacity keys at the
// given error rate. Out-of-range arguments fall back to the defaults.
func New(capacity int, errorRate float64) *Filter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if errorRate <= 0 || errorRate >= 1 {
		errorRate = DefaultErrorRate
	}
	return &Filter{
		capacity:  capacity,
		errorRate: errorRate,
		subs:      []*bbloom.BloomFilter{bbloom.NewWithEstimates(uint(capacity), errorRate)},
	}
}

// Contains reports whether key has probably been added. Sub-filters are
// scanned newest first, since recent keys are the common probe.
func (f *Filter) Contains(key string) bool {
	b := []byte(key)
	for i := len(f.subs) - 1; i >= 0; i-- {
		if f.subs[i].Test(b) {
			return true
		}
	}
	return false
}

// Add inserts key and reports whether it was added. With check set, a key
// already present anywhere in the chain is left alone; callers loading keys
// known to be distinct can skip the membership scan.
func (f *Filter) Add(key string, check bool) bool {
	if check && f.Contains(key) {
		return false
	}
	f.subs[len(f.subs)-1].Add([]byte(key))
	f.count++
	if f.count >= f.capacity {
		f.grow()
	}
	return true
}

func (f *Filter) grow() {
	f.capacity *= growthFactor
	f.errorRate *= tighteningRatio
	f.count = 0
	f.subs = append(f.subs, bbloom.NewWithEstimates(uint(f.capacity), f.errorRate))
}
