package compose

import "math"

// LockedTotal is the export batch size under a set of locked values. A
// locked wildcard contributes the number of locked values, an unlocked one
// contributes 1 (it stays pinned to its current value) and ext_text always
// contributes its full count.
func LockedTotal(counts map[string]int, extTextCount int, locked map[string][]string) int64 {
	dims := []int64{atLeastOne(extTextCount)}
	for name := range counts {
		if n := len(locked[name]); n > 0 {
			dims = append(dims, int64(n))
		}
	}
	return product(dims)
}

// SampleCompositionIDs picks up to n representative ids from [0, total).
// The current id always comes first, followed by evenly spaced positions
// floor(i·total/n). Collisions simply shrink the result.
func SampleCompositionIDs(total int64, n int, currentID int64) []int64 {
	if total <= 0 || n <= 0 {
		return nil
	}
	if total <= int64(n) {
		ids := make([]int64, total)
		for i := range ids {
			ids[i] = int64(i)
		}
		return ids
	}

	seen := make(map[int64]bool, n)
	ids := make([]int64, 0, n)
	add := func(id int64) {
		if !seen[id] && len(ids) < n {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	add(mod(currentID, total))
	step, rem := total/int64(n), total%int64(n)
	for i := int64(0); i < int64(n); i++ {
		// i*total/n without overflowing
		add(mod(i*step+i*rem/int64(n), total))
	}
	return ids
}

// LockedCompositionIDs enumerates the constrained sub-product behind
// LockedTotal, in odometer order. Unlocked wildcards keep their index from
// current; locked values missing from a wildcard fall back to index 0.
// At most limit ids are returned (limit <= 0 means no limit).
func LockedCompositionIDs(table Table, extTextCount int, current Indices, locked map[string][]string, limit int) []int64 {
	counts := table.Counts()
	names, dims := dimensions(extTextCount, counts)

	// choices per dimension, in canonical order
	choices := make([][]int64, len(dims))
	choices[0] = make([]int64, dims[0])
	for i := range choices[0] {
		choices[0][i] = int64(i)
	}
	for i, name := range names {
		values := locked[name]
		if len(values) == 0 {
			choices[i+1] = []int64{mod(int64(current.Get(name)), dims[i+1])}
			continue
		}
		seen := make(map[int64]bool)
		for _, v := range values {
			idx := int64(table.IndexOf(name, v))
			if idx < 0 {
				idx = 0
			}
			if !seen[idx] {
				seen[idx] = true
				choices[i+1] = append(choices[i+1], idx)
			}
		}
	}

	capacity := int64(math.MaxInt64)
	if limit > 0 {
		capacity = int64(limit)
	}

	var ids []int64
	digits := make([]int64, len(dims))
	var walk func(dim int) bool
	walk = func(dim int) bool {
		if dim == len(dims) {
			ids = append(ids, recompose(digits, dims))
			return int64(len(ids)) < capacity
		}
		for _, c := range choices[dim] {
			digits[dim] = c
			if !walk(dim + 1) {
				return false
			}
		}
		return true
	}
	walk(0)
	return ids
}
