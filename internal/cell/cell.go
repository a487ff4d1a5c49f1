// Package cell provides handles to the fixed-capacity storage cells a
// command executes against.
//
// A Cell is created by the host before any command runs: its address, owner
// and capacity are fixed at creation. The processor only ever overwrites the
// data of a cell it owns, and never deletes one.
package cell

import (
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// Cell is a fixed-capacity, owner-tagged byte buffer keyed by address.
type Cell struct {
	// Address is the key of this cell in the store.
	Address ident.Identity

	// Owner is the program allowed to overwrite Data.
	Owner ident.Identity

	// Signer is set by the host when the caller authenticated as Address.
	Signer bool

	// Writable is set by the host when the caller declared the cell writable.
	Writable bool

	data  []byte
	dirty bool
}

// New creates a zero-initialized cell.
func New(address, owner ident.Identity, capacity int) *Cell {
	return &Cell{
		Address: address,
		Owner:   owner,
		data:    make([]byte, capacity),
	}
}

// Load wraps existing cell contents read from the store.
// data is copied; its length is the cell's capacity.
func Load(address, owner ident.Identity, data []byte) *Cell {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Cell{Address: address, Owner: owner, data: buf}
}

// Data returns a copy of the cell contents.
func (c *Cell) Data() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// Capacity returns the fixed size of the cell in bytes.
func (c *Cell) Capacity() int {
	return len(c.data)
}

// Kind returns the leading record-kind byte. A zero-initialized cell has kind 0.
func (c *Cell) Kind() byte {
	if len(c.data) == 0 {
		return 0
	}
	return c.data[0]
}

// Initialized reports whether a record has ever been written to the cell.
func (c *Cell) Initialized() bool {
	return c.Kind() != 0
}

// Dirty reports whether Overwrite succeeded on this handle.
func (c *Cell) Dirty() bool {
	return c.dirty
}

// Overwrite replaces the cell contents with b on behalf of program.
//
// Checks, in order:
//  1. Owner == program, else AuthorizationMismatch
//  2. Writable, else AuthorizationMismatch
//  3. len(b) <= Capacity(), else CapacityExceeded (never truncates)
//
// Bytes past len(b) are zeroed so a shorter record leaves no stale tail.
func (c *Cell) Overwrite(program ident.Identity, b []byte) error {
	if c.Owner != program {
		return fault.New(fault.AuthorizationMismatch,
			"cell is owned by %s, not %s", c.Owner, program).WithAccount(c.Address)
	}
	if !c.Writable {
		return fault.New(fault.AuthorizationMismatch, "cell is not writable").WithAccount(c.Address)
	}
	if len(b) > len(c.data) {
		return fault.New(fault.CapacityExceeded,
			"record is %d bytes, cell holds %d", len(b), len(c.data)).WithAccount(c.Address)
	}

	copy(c.data, b)
	clear(c.data[len(b):])
	c.dirty = true
	return nil
}

// RequireSigner fails with MissingAuthentication unless c is an authenticated signer.
func RequireSigner(c *Cell) error {
	if !c.Signer {
		return fault.New(fault.MissingAuthentication, "caller did not sign").WithAccount(c.Address)
	}
	return nil
}

// RequireOwner fails with AuthorizationMismatch unless c is owned by program.
func RequireOwner(c *Cell, program ident.Identity) error {
	if c.Owner != program {
		return fault.New(fault.AuthorizationMismatch,
			"cell is owned by %s, not %s", c.Owner, program).WithAccount(c.Address)
	}
	return nil
}
