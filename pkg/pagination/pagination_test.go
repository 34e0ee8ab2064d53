package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate_Laws(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for size := 1; size <= 7; size++ {
			want := (n + size - 1) / size
			if want < 1 {
				want = 1
			}
			for k := 1; k <= want; k++ {
				p := Paginate(seq(n), size, k)
				assert.Equal(t, want, p.TotalPages, "n=%d size=%d", n, size)
				assert.Equal(t, k < want, p.HasNext, "n=%d size=%d k=%d", n, size, k)
				assert.Equal(t, k > 1, p.HasPrevious, "n=%d size=%d k=%d", n, size, k)
				assert.LessOrEqual(t, len(p.Items), size)
			}
		}
	}
}

func TestPaginate_Slices(t *testing.T) {
	p := Paginate(seq(12), 5, 3)
	assert.Equal(t, []int{11, 12}, p.Items)
	assert.Equal(t, 3, p.Number)

	p = Paginate(seq(12), 5, 2)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, p.Items)
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]string{}, 5, 1)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrevious)
}

func TestPaginate_Clamps(t *testing.T) {
	p := Paginate(seq(7), 5, 9)
	assert.Equal(t, 2, p.Number)
	assert.Equal(t, []int{6, 7}, p.Items)

	p = Paginate(seq(7), 5, 0)
	assert.Equal(t, 1, p.Number)

	p = Paginate(seq(3), 0, 1)
	assert.Equal(t, 3, p.TotalPages)
}

func TestPaginate_ItemsDoNotAliasAppend(t *testing.T) {
	items := seq(10)
	p := Paginate(items, 5, 1)
	_ = append(p.Items, 99)
	assert.Equal(t, 6, items[5])
}

func TestStep(t *testing.T) {
	page, ok := Step(2, NextPage)
	assert.True(t, ok)
	assert.Equal(t, 3, page)

	page, ok = Step(1, PreviousPage)
	assert.True(t, ok)
	assert.Equal(t, 1, page)

	page, ok = Step(4, "CS101")
	assert.False(t, ok)
	assert.Equal(t, 4, page)
}
