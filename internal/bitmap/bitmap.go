// Package bitmap is a dense set of non-negative ids, used to deduplicate
// base ids across tier lists without hashing.
package bitmap

// Bitmap is a bitset over [0, limit).
type Bitmap struct {
	data  []uint64
	limit int64
	n     int
}

// New returns an empty set able to hold ids in [0, limit). A limit <= 0
// yields a set that holds nothing.
func New(limit int64) *Bitmap {
	if limit <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (limit+63)/64), limit: limit}
}

// Add inserts id and reports whether it was newly added. Ids outside
// [0, limit) are never stored and always report false.
func (b *Bitmap) Add(id int64) bool {
	if id < 0 || id >= b.limit {
		return false
	}
	w, mask := id/64, uint64(1)<<uint(id%64)
	if b.data[w]&mask != 0 {
		return false
	}
	b.data[w] |= mask
	b.n++
	return true
}

// Has reports whether id is in the set.
func (b *Bitmap) Has(id int64) bool {
	if id < 0 || id >= b.limit {
		return false
	}
	return b.data[id/64]&(uint64(1)<<uint(id%64)) != 0
}

// Len returns the number of ids in the set.
func (b *Bitmap) Len() int { return b.n }

// Limit returns the exclusive upper bound.
func (b *Bitmap) Limit() int64 { return b.limit }
