package compose

// Windows holds the window cap per dimension. A cap of 0 disables windowing
// for that dimension.
type Windows struct {
	Ext       int
	Wildcards map[string]int
}

// BucketCount is the number of windows a dimension of count values splits
// into under the window cap
func BucketCount(count, window int) int {
	if window <= 0 {
		return 1
	}
	return (int(atLeastOne(count)) + window - 1) / window
}

// WindowSize is the number of values a window of dimension count shows
func WindowSize(count, window int) int {
	n := int(atLeastOne(count))
	if window <= 0 || window >= n {
		return n
	}
	return window
}

// WindowValueIndex is the value index at slot inside a window that starts at
// offset. The last, partial window wraps around to the start of the list.
func WindowValueIndex(count, offset, slot int) int {
	return int(mod(int64(offset+slot), atLeastOne(count)))
}

// WindowIndices lists the value indices a window shows
func WindowIndices(count, window, offset int) []int {
	size := WindowSize(count, window)
	indices := make([]int, size)
	for slot := range indices {
		indices[slot] = WindowValueIndex(count, offset, slot)
	}
	return indices
}

// BucketTotal is the number of bucket-compositions, the unit of navigation
func BucketTotal(extTextCount int, counts map[string]int, windows Windows) int64 {
	_, dims := bucketDimensions(extTextCount, counts, windows)
	return product(dims)
}

// BucketCompositionToIndices runs the odometer over bucket counts instead of
// value counts and returns a bucket index per dimension
func BucketCompositionToIndices(bucketID int64, extTextCount int, counts map[string]int, windows Windows) Indices {
	names, dims := bucketDimensions(extTextCount, counts, windows)
	return toIndices(names, decompose(bucketID, dims))
}

func bucketDimensions(extTextCount int, counts map[string]int, windows Windows) ([]string, []int64) {
	names, _ := dimensions(extTextCount, counts)
	dims := make([]int64, 0, len(names)+1)
	dims = append(dims, int64(BucketCount(extTextCount, windows.Ext)))
	for _, name := range names {
		dims = append(dims, int64(BucketCount(counts[name], windows.Wildcards[name])))
	}
	return names, dims
}

// Bucket is one bucket-composition: a window per dimension
type Bucket struct {
	ID    int64
	Total int64

	Index   Indices // bucket index per dimension
	Offsets Indices // window start offset per dimension
	Sizes   Indices // values shown per dimension

	extTextCount int
	counts       map[string]int
}

// NewBucket resolves a bucket-composition id into its windows
func NewBucket(bucketID int64, extTextCount int, counts map[string]int, windows Windows) Bucket {
	total := BucketTotal(extTextCount, counts, windows)
	index := BucketCompositionToIndices(bucketID, extTextCount, counts, windows)

	b := Bucket{
		ID:           mod(bucketID, total),
		Total:        total,
		Index:        index,
		Offsets:      Indices{Ext: index.Ext * windows.Ext, Wildcards: make(map[string]int, len(counts))},
		Sizes:        Indices{Ext: WindowSize(extTextCount, windows.Ext), Wildcards: make(map[string]int, len(counts))},
		extTextCount: extTextCount,
		counts:       counts,
	}
	for name, count := range counts {
		window := windows.Wildcards[name]
		b.Offsets.Wildcards[name] = index.Wildcards[name] * window
		b.Sizes.Wildcards[name] = WindowSize(count, window)
	}
	return b
}

// SlotTotal is the number of compositions visible inside the bucket
func (b Bucket) SlotTotal() int64 {
	return Total(b.Sizes.Ext, b.Sizes.Wildcards)
}

// Indices picks concrete value indices inside the bucket. slotID runs the
// odometer over window sizes; each slot is added to its window offset and
// reduced modulo the dimension's count.
func (b Bucket) Indices(slotID int64) Indices {
	slots := CompositionToIndices(slotID, b.Sizes.Ext, b.Sizes.Wildcards)
	idx := Indices{
		Ext:       WindowValueIndex(b.extTextCount, b.Offsets.Ext, slots.Ext),
		Wildcards: make(map[string]int, len(b.counts)),
	}
	for name, count := range b.counts {
		idx.Wildcards[name] = WindowValueIndex(count, b.Offsets.Wildcards[name], slots.Wildcards[name])
	}
	return idx
}

// Window lists the value indices shown for one wildcard
func (b Bucket) Window(name string) []int {
	count, ok := b.counts[name]
	if !ok {
		return nil
	}
	return WindowIndices(count, b.Sizes.Wildcards[name], b.Offsets.Wildcards[name])
}

// HasExt reports whether the template draws any ext_text. The ext
// dimension still counts as 1 in totals when it does not.
func (b Bucket) HasExt() bool {
	return b.extTextCount > 0
}

// ExtWindow lists the ext_text indices shown, nil without ext_text
func (b Bucket) ExtWindow() []int {
	if !b.HasExt() {
		return nil
	}
	return WindowIndices(b.extTextCount, b.Sizes.Ext, b.Offsets.Ext)
}
