// Package partition splits a batch into contiguous slices for parallel
// workers.
package partition

// Split returns p contiguous, non-overlapping sub-slices of items. Each holds
// len(items)/p elements except the last, which also takes the remainder.
// When len(items) < p the leading partitions are empty. p < 1 is treated as 1.
// The sub-slices share the backing array of items.
func Split[T any](items []T, p int) [][]T {
	if p < 1 {
		p = 1
	}
	size := len(items) / p
	out := make([][]T, p)
	for i := 0; i < p; i++ {
		lo := i * size
		hi := lo + size
		if i == p-1 {
			hi = len(items)
		}
		out[i] = items[lo:hi:hi]
	}
	return out
}

// NonEmpty reports the number of partitions holding at least one item.
func NonEmpty[T any](parts [][]T) int {
	n := 0
	for _, p := range parts {
		if len(p) > 0 {
			n++
		}
	}
	return n
}
