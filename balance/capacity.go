package balance

import (
	"fmt"
	"sort"
)

// Capacities returns the exact group sizes for n points in k groups:
// floor(n/k) each, with the n mod k extra units going to the lowest-indexed
// groups. The order is kept for output compatibility.
func Capacities(n, k int) ([]int, error) {
	if k < 1 || n < k {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidClusterCount, k, n)
	}
	base, extra := n/k, n%k
	caps := make([]int, k)
	for c := range caps {
		caps[c] = base
		if c < extra {
			caps[c]++
		}
	}
	return caps, nil
}

// SlotTable maps slots to clusters. Entry c is the first slot of cluster c
// and the final entry equals the total slot count, so cluster c owns slots
// [t[c], t[c+1]).
type SlotTable []int

// NewSlotTable builds the contiguous slot ranges for caps.
func NewSlotTable(caps []int) SlotTable {
	t := make(SlotTable, len(caps)+1)
	for c, capacity := range caps {
		t[c+1] = t[c] + capacity
	}
	return t
}

// Clusters returns the number of clusters in the table.
func (t SlotTable) Clusters() int { return len(t) - 1 }

// Slots returns the total number of slots.
func (t SlotTable) Slots() int { return t[len(t)-1] }

// ClusterOf returns the cluster owning slot s, or -1 if s is out of range.
func (t SlotTable) ClusterOf(s int) int {
	if s < 0 || s >= t.Slots() {
		return -1
	}
	// First start strictly greater than s, minus one.
	return sort.Search(len(t), func(i int) bool { return t[i] > s }) - 1
}

// expand widens an n×k cost matrix to n×slots by repeating column c once per
// slot of cluster c. Values are copied unchanged.
func expand(cost [][]float64, t SlotTable) [][]float64 {
	slots := t.Slots()
	owner := make([]int, slots)
	for c := 0; c < t.Clusters(); c++ {
		for s := t[c]; s < t[c+1]; s++ {
			owner[s] = c
		}
	}

	out := make([][]float64, len(cost))
	for p, row := range cost {
		wide := make([]float64, slots)
		for s, c := range owner {
			wide[s] = row[c]
		}
		out[p] = wide
	}
	return out
}
