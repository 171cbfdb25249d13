package compose

import (
	"math"
	"sort"
)

// Indices is one decoded composition: the ext_text index plus a value index
// per wildcard
type Indices struct {
	Ext       int
	Wildcards map[string]int
}

// Get returns the index for a wildcard, 0 when the wildcard is not a dimension
func (i Indices) Get(name string) int {
	return i.Wildcards[name]
}

// CompositionToIndices decodes a composition id with the mixed-radix odometer.
//
// The dimension vector is [extTextCount, count(w1) … count(wn)] with names
// sorted ascending. The last wildcard varies fastest, ext_text slowest. Ids
// wrap modulo the total, so negative ids decode too.
func CompositionToIndices(compositionID int64, extTextCount int, counts map[string]int) Indices {
	names, dims := dimensions(extTextCount, counts)
	digits := decompose(compositionID, dims)
	return toIndices(names, digits)
}

// IndicesToComposition is the inverse of CompositionToIndices. Indices out of
// range are reduced modulo their dimension.
func IndicesToComposition(idx Indices, extTextCount int, counts map[string]int) int64 {
	names, dims := dimensions(extTextCount, counts)
	digits := make([]int64, len(dims))
	digits[0] = int64(idx.Ext)
	for i, name := range names {
		digits[i+1] = int64(idx.Wildcards[name])
	}
	return recompose(digits, dims)
}

// Total is the number of compositions: extTextCount × Π(wildcard counts).
// The product saturates at math.MaxInt64, so a saturated total is only an
// upper bound: ids at or past it no longer wrap modulo the true product,
// while smaller ids still decode and encode exactly.
func Total(extTextCount int, counts map[string]int) int64 {
	_, dims := dimensions(extTextCount, counts)
	return product(dims)
}

// dimensions builds the canonical dimension vector. Zero counts become 1.
func dimensions(extTextCount int, counts map[string]int) ([]string, []int64) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	dims := make([]int64, 0, len(names)+1)
	dims = append(dims, atLeastOne(extTextCount))
	for _, name := range names {
		dims = append(dims, atLeastOne(counts[name]))
	}
	return names, dims
}

// decompose runs the odometer over an arbitrary radix vector
func decompose(id int64, dims []int64) []int64 {
	idx := mod(id, product(dims))
	digits := make([]int64, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		digits[i] = idx % dims[i]
		idx /= dims[i]
	}
	return digits
}

// recompose folds digits back into an id, left (slowest) to right (fastest)
func recompose(digits, dims []int64) int64 {
	var id int64
	for i, d := range dims {
		id = id*d + mod(digits[i], d)
	}
	return mod(id, product(dims))
}

func toIndices(names []string, digits []int64) Indices {
	idx := Indices{Ext: int(digits[0]), Wildcards: make(map[string]int, len(names))}
	for i, name := range names {
		idx.Wildcards[name] = int(digits[i+1])
	}
	return idx
}

// product multiplies the dimensions, saturating at math.MaxInt64.
// An empty or zero product is treated as 1.
func product(dims []int64) int64 {
	total := int64(1)
	for _, d := range dims {
		if d <= 0 {
			continue
		}
		if total > math.MaxInt64/d {
			return math.MaxInt64
		}
		total *= d
	}
	return total
}

// mod returns a non-negative remainder; a non-positive modulus is treated as 1
func mod(a, m int64) int64 {
	if m <= 0 {
		return 0
	}
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func atLeastOne(n int) int64 {
	if n <= 0 {
		return 1
	}
	return int64(n)
}
