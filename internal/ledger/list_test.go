package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/ident"
)

type fakeSource struct {
	cells []*cell.Cell
	err   error
}

func (f fakeSource) CellsOwnedBy(_ context.Context, owner ident.Identity) ([]*cell.Cell, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*cell.Cell
	for _, c := range f.cells {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

func padded(b []byte) []byte {
	out := make([]byte, DefaultCapacity)
	copy(out, b)
	return out
}

func TestListOrganizations(t *testing.T) {
	program := ident.Identity{0xaa}
	src := fakeSource{cells: []*cell.Cell{
		cell.Load(ident.Identity{1}, program, padded(Organization{Owner: "alice", Name: "acme"}.Encode())),
		cell.Load(ident.Identity{2}, program, padded(Organization{Owner: "bob", Name: "zeta"}.Encode())),
		cell.Load(ident.Identity{3}, program, padded(Investment{Investor: "alice", Amount: 5}.Encode())),
		cell.Load(ident.Identity{4}, program, make([]byte, DefaultCapacity)),
		cell.Load(ident.Identity{5}, program, []byte{KindOrganization, 0xff}),
		cell.Load(ident.Identity{6}, ident.Identity{0xbb}, padded(Organization{Owner: "alice", Name: "foreign"}.Encode())),
	}}

	all, err := ListOrganizations(context.Background(), src, program, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "acme", all[0].Organization.Name)
	assert.Equal(t, ident.Identity{1}, all[0].Address)
	assert.Equal(t, "zeta", all[1].Organization.Name)

	alice, err := ListOrganizations(context.Background(), src, program, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "acme", alice[0].Organization.Name)
}

func TestListOrganizations_SourceError(t *testing.T) {
	_, err := ListOrganizations(context.Background(), fakeSource{err: errors.New("boom")}, ident.Identity{}, "")
	assert.ErrorContains(t, err, "boom")
}
