package compose

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositionToIndicesOrder(t *testing.T) {
	counts := map[string]int{"tone": 3, "role": 2}

	// role < tone, so tone is the rightmost, fastest dimension
	got := CompositionToIndices(1, 1, counts)
	assert.Equal(t, 0, got.Ext)
	assert.Equal(t, 0, got.Get("role"))
	assert.Equal(t, 1, got.Get("tone"))

	got = CompositionToIndices(3, 1, counts)
	assert.Equal(t, 1, got.Get("role"))
	assert.Equal(t, 0, got.Get("tone"))

	// ext_text is the slowest dimension
	got = CompositionToIndices(6, 2, counts)
	assert.Equal(t, 1, got.Ext)
	assert.Equal(t, 0, got.Get("role"))
	assert.Equal(t, 0, got.Get("tone"))
}

func TestCompositionToIndicesWraps(t *testing.T) {
	counts := map[string]int{"a": 4, "b": 3, "c": 5}
	total := Total(2, counts)
	require.Equal(t, int64(120), total)

	for _, c := range []int64{0, 1, 17, 59, 119, 1000} {
		want := CompositionToIndices(c, 2, counts)
		got := CompositionToIndices(c+total, 2, counts)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("id %d: wraparound mismatch (-want +got):\n%s", c, diff)
		}
	}

	neg := CompositionToIndices(-1, 2, counts)
	last := CompositionToIndices(total-1, 2, counts)
	assert.Equal(t, last, neg)
}

func TestIndicesRoundTrip(t *testing.T) {
	counts := map[string]int{"mood": 3, "place": 4, "time": 2}
	total := Total(5, counts)
	require.Equal(t, int64(5*3*4*2), total)

	for c := int64(0); c < total; c++ {
		idx := CompositionToIndices(c, 5, counts)
		assert.Equal(t, c, IndicesToComposition(idx, 5, counts))
	}
	assert.Equal(t, int64(7), IndicesToComposition(CompositionToIndices(7+3*total, 5, counts), 5, counts))
}

func TestZeroDimensionsAreOne(t *testing.T) {
	counts := map[string]int{"empty": 0, "two": 2}
	assert.Equal(t, int64(2), Total(0, counts))

	got := CompositionToIndices(3, 0, counts)
	assert.Equal(t, 0, got.Ext)
	assert.Equal(t, 0, got.Get("empty"))
	assert.Equal(t, 1, got.Get("two"))
}

func TestTotalNoWildcards(t *testing.T) {
	assert.Equal(t, int64(1), Total(0, nil))
	assert.Equal(t, int64(4), Total(4, nil))
	idx := CompositionToIndices(6, 4, nil)
	assert.Equal(t, 2, idx.Ext)
	assert.Empty(t, idx.Wildcards)
}

func TestTotalSaturates(t *testing.T) {
	counts := make(map[string]int)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		counts[name] = 1000
	}
	require.Equal(t, int64(math.MaxInt64), Total(1, counts))

	// ids below the saturated total still round-trip
	for _, id := range []int64{0, 1, 999, 123456789012} {
		assert.Equal(t, id, IndicesToComposition(CompositionToIndices(id, 1, counts), 1, counts), "id %d", id)
	}
}
