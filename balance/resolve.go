package balance

import "fmt"

// resolve converts a point→slot permutation into per-point cluster labels.
func resolve(rowToSlot []int, t SlotTable) ([]int, error) {
	if len(rowToSlot) != t.Slots() {
		return nil, fmt.Errorf("%w: %d points for %d slots", ErrInvalidAssignment, len(rowToSlot), t.Slots())
	}

	taken := make([]bool, t.Slots())
	labels := make([]int, len(rowToSlot))
	for p, s := range rowToSlot {
		c := t.ClusterOf(s)
		if c < 0 {
			return nil, fmt.Errorf("%w: point %d mapped to slot %d out of range", ErrInvalidAssignment, p, s)
		}
		if taken[s] {
			return nil, fmt.Errorf("%w: slot %d assigned twice", ErrInvalidAssignment, s)
		}
		taken[s] = true
		labels[p] = c
	}
	return labels, nil
}
