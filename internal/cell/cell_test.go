package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

var (
	program = ident.Identity{0xaa}
	other   = ident.Identity{0xbb}
	addr    = ident.Identity{0x01}
)

func writableCell(capacity int) *Cell {
	c := New(addr, program, capacity)
	c.Writable = true
	return c
}

func TestNew_ZeroInitialized(t *testing.T) {
	c := New(addr, program, 8)

	assert.Equal(t, make([]byte, 8), c.Data())
	assert.Equal(t, 8, c.Capacity())
	assert.False(t, c.Initialized())
	assert.False(t, c.Dirty())
}

func TestLoad_CopiesData(t *testing.T) {
	src := []byte{2, 3, 4}
	c := Load(addr, program, src)
	src[0] = 9

	assert.Equal(t, []byte{2, 3, 4}, c.Data())
	assert.True(t, c.Initialized())
	assert.Equal(t, byte(2), c.Kind())
}

func TestOverwrite_Succeeds(t *testing.T) {
	c := writableCell(6)

	require.NoError(t, c.Overwrite(program, []byte{1, 2, 3, 4, 5}))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0}, c.Data())
	assert.True(t, c.Dirty())

	// A shorter record zeroes the stale tail.
	require.NoError(t, c.Overwrite(program, []byte{7}))
	assert.Equal(t, []byte{7, 0, 0, 0, 0, 0}, c.Data())
}

func TestOverwrite_ExactCapacity(t *testing.T) {
	c := writableCell(3)
	require.NoError(t, c.Overwrite(program, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, c.Data())
}

func TestOverwrite_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		cell    func() *Cell
		program ident.Identity
		data    []byte
		code    fault.Code
	}{
		{
			name:    "foreign owner",
			cell:    func() *Cell { return writableCell(4) },
			program: other,
			data:    []byte{1},
			code:    fault.AuthorizationMismatch,
		},
		{
			name:    "read only",
			cell:    func() *Cell { return New(addr, program, 4) },
			program: program,
			data:    []byte{1},
			code:    fault.AuthorizationMismatch,
		},
		{
			name:    "too large",
			cell:    func() *Cell { return writableCell(2) },
			program: program,
			data:    []byte{1, 2, 3},
			code:    fault.CapacityExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cell()
			before := c.Data()

			err := c.Overwrite(tt.program, tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.code, fault.CodeOf(err))
			assert.Equal(t, before, c.Data(), "rejected write must not mutate")
			assert.False(t, c.Dirty())
		})
	}
}

func TestRequireSigner(t *testing.T) {
	c := New(addr, program, 0)
	assert.True(t, fault.Is(RequireSigner(c), fault.MissingAuthentication))

	c.Signer = true
	assert.NoError(t, RequireSigner(c))
}

func TestRequireOwner(t *testing.T) {
	c := New(addr, program, 0)
	assert.NoError(t, RequireOwner(c, program))
	assert.True(t, fault.Is(RequireOwner(c, other), fault.AuthorizationMismatch))
}

func TestIterator(t *testing.T) {
	a := New(ident.Identity{1}, program, 0)
	b := New(ident.Identity{2}, program, 0)
	it := Iter([]*Cell{a, b})

	got, err := it.Next()
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = it.Next()
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = it.Next()
	assert.True(t, fault.Is(err, fault.InvalidArgument))
}

func TestIterator_NextN(t *testing.T) {
	cells := []*Cell{New(ident.Identity{1}, program, 0), New(ident.Identity{2}, program, 0)}

	got, err := Iter(cells).NextN(2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Iter(cells).NextN(3)
	assert.True(t, fault.Is(err, fault.InvalidArgument))
}
