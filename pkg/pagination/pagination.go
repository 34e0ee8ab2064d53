// Package pagination slices ordered collections into fixed-size pages.
//
// The engine is stateless: callers keep the current page number in session data and
// use Step to move it in response to the list sentinels.
package pagination

// Sentinel row ids appended to paginated lists.
const (
	NextPage     = "next_page"
	PreviousPage = "prev_page"
)

// Page is one slice of a collection.
type Page[T any] struct {
	Items       []T
	Number      int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
}

// TotalPages returns ceil(count/size), never less than 1.
func TotalPages(count, size int) int {
	if size < 1 {
		size = 1
	}
	total := (count + size - 1) / size
	if total < 1 {
		return 1
	}
	return total
}

// Paginate returns page number (1-based) of items. A page outside 1..TotalPages is
// clamped to the nearest valid page; a size below 1 is treated as 1.
func Paginate[T any](items []T, size, number int) Page[T] {
	if size < 1 {
		size = 1
	}
	total := TotalPages(len(items), size)
	number = min(max(number, 1), total)

	start := min((number-1)*size, len(items))
	end := min(start+size, len(items))

	return Page[T]{
		Items:       items[start:end:end],
		Number:      number,
		TotalPages:  total,
		HasPrevious: number > 1,
		HasNext:     number < total,
	}
}

// Step moves page according to a list reply body. It reports false when body is not
// a paging sentinel, so the caller can treat it as a selection.
func Step(page int, body string) (int, bool) {
	switch body {
	case NextPage:
		return page + 1, true
	case PreviousPage:
		return max(page-1, 1), true
	default:
		return page, false
	}
}
