// Package paging slices a result list into fixed-size pages. Page indexes are
// zero-based; a page size below one is treated as one.
package paging

// Count returns the number of pages needed for n items, ceil(n/size).
func Count(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Clamp limits page to [0, Count(n, size)-1]. It returns 0 for an empty list.
func Clamp(page, n, size int) int {
	last := Count(n, size) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Bounds returns the half-open item range [start, end) shown on page after
// clamping it.
func Bounds(page, n, size int) (start, end int) {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 0, 0
	}
	page = Clamp(page, n, size)
	start = page * size
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}
