package cell

import "github.com/roach88/fundledger/internal/fault"

// Iterator walks a caller-supplied account list in its fixed order.
type Iterator struct {
	cells []*Cell
	next  int
}

// Iter returns an Iterator over cells.
func Iter(cells []*Cell) *Iterator {
	return &Iterator{cells: cells}
}

// Next returns the next cell, or InvalidArgument if the list is exhausted.
func (it *Iterator) Next() (*Cell, error) {
	if it.next >= len(it.cells) {
		return nil, fault.New(fault.InvalidArgument,
			"account list too short: need more than %d accounts", len(it.cells))
	}
	c := it.cells[it.next]
	it.next++
	return c, nil
}

// NextN returns the next n cells.
func (it *Iterator) NextN(n int) ([]*Cell, error) {
	out := make([]*Cell, 0, n)
	for i := 0; i < n; i++ {
		c, err := it.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
